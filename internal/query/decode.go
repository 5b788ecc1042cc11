package query

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/crudzilla/crudzilla/internal/domain"
)

// Decode fills dst from string request parameters. Values are weakly typed
// ("10" into an int, "true" into a *bool), names match json tags
// case-insensitively and unknown parameters are ignored. Defaults are applied
// first and the result is normalized, so the page size clamp always holds.
func Decode(params map[string]string, dst Filterer) error {
	*dst.Base() = NewFilter()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("filter decoder: %w", err)
	}

	in := make(map[string]any, len(params))
	for k, v := range params {
		in[k] = v
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%w: filter %T: %v", domain.ErrDecode, dst, err)
	}

	dst.Base().Normalize()
	return nil
}

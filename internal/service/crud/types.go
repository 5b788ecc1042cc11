package crud

import (
	"github.com/crudzilla/crudzilla/internal/entity"
)

// Types returns the constants of a named enumeration as {value, text}
// options, in declaration order.
func (s *Service) Types(name string) ([]entity.SelectOption, error) {
	values, err := s.reg.Types(name)
	if err != nil {
		return nil, err
	}
	out := make([]entity.SelectOption, 0, len(values))
	for _, v := range values {
		out = append(out, entity.SelectOption{Value: v.ID, Text: v.Description})
	}
	return out, nil
}

// TypesMultiselect returns the constants of a named enumeration as
// {id, value} options.
func (s *Service) TypesMultiselect(name string) ([]entity.MultiselectOption, error) {
	values, err := s.reg.Types(name)
	if err != nil {
		return nil, err
	}
	out := make([]entity.MultiselectOption, 0, len(values))
	for _, v := range values {
		out = append(out, entity.MultiselectOption{ID: v.ID, Value: v.Description})
	}
	return out, nil
}

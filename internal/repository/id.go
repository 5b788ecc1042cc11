package repository

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/domain"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// ParseID converts the textual form of an identifier into K.
// Signed and unsigned integers, strings and uuid.UUID are supported; any
// other key type fails with domain.ErrNotImplemented and needs a repository
// override of ConvertID.
func ParseID[K comparable](raw string) (K, error) {
	var id K
	v, err := ParseIDOf(reflect.TypeOf(&id).Elem(), raw)
	if err != nil {
		return id, err
	}
	return v.(K), nil
}

// ParseIDOf is ParseID for a key type known only at runtime.
func ParseIDOf(t reflect.Type, raw string) (any, error) {
	v := reflect.New(t).Elem()
	raw = strings.TrimSpace(raw)

	if t == uuidType {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q: %v", domain.ErrDecode, raw, err)
		}
		return u, nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("%w: id %q: %v", domain.ErrDecode, raw, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("%w: id %q: %v", domain.ErrDecode, raw, err)
		}
		v.SetUint(n)
	case reflect.String:
		v.SetString(raw)
	default:
		return nil, fmt.Errorf("convert id to %s: %w", t, domain.ErrNotImplemented)
	}
	return v.Interface(), nil
}

// CoerceID converts an arbitrary identifier value (K itself, its string form,
// or a convertible numeric such as a JSON float64) into K.
func CoerceID[K comparable](id any) (K, error) {
	var zero K
	v, err := CoerceIDOf(reflect.TypeOf(&zero).Elem(), id)
	if err != nil {
		return zero, err
	}
	return v.(K), nil
}

// CoerceIDOf is CoerceID for a key type known only at runtime.
func CoerceIDOf(t reflect.Type, id any) (any, error) {
	rv := reflect.ValueOf(id)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil id", domain.ErrDecode)
	}
	if rv.Type() == t {
		return id, nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil id", domain.ErrDecode)
		}
		if rv.Type().Elem() == t {
			return rv.Elem().Interface(), nil
		}
	}

	switch v := id.(type) {
	case string:
		return ParseIDOf(t, v)
	case fmt.Stringer:
		return ParseIDOf(t, v.String())
	}

	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return convertNumber(rv, t)
	}
	return nil, fmt.Errorf("%w: id %v (%T) is not a %s", domain.ErrDecode, id, id, t)
}

// convertNumber converts rv to the numeric type t when the value survives
// the conversion exactly.
func convertNumber(rv reflect.Value, t reflect.Type) (any, error) {
	out := reflect.New(t).Elem()
	bad := func() (any, error) {
		return nil, fmt.Errorf("%w: id %v (%s) does not fit a %s", domain.ErrDecode, rv.Interface(), rv.Type(), t)
	}

	switch kindClass(rv.Kind()) {
	case 'f':
		f := rv.Float()
		if kindClass(t.Kind()) == 'f' {
			out.SetFloat(f)
			return out.Interface(), nil
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return bad()
		}
		// float64 holds 2^63 and 2^64 exactly; both are outside every integer key.
		switch kindClass(t.Kind()) {
		case 'i':
			if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
				return bad()
			}
			out.SetInt(int64(f))
		case 'u':
			if f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
				return bad()
			}
			out.SetUint(uint64(f))
		}
	case 'i':
		n := rv.Int()
		switch kindClass(t.Kind()) {
		case 'i':
			if out.OverflowInt(n) {
				return bad()
			}
			out.SetInt(n)
		case 'u':
			if n < 0 || out.OverflowUint(uint64(n)) {
				return bad()
			}
			out.SetUint(uint64(n))
		case 'f':
			out.SetFloat(float64(n))
		}
	case 'u':
		n := rv.Uint()
		switch kindClass(t.Kind()) {
		case 'i':
			if n > math.MaxInt64 || out.OverflowInt(int64(n)) {
				return bad()
			}
			out.SetInt(int64(n))
		case 'u':
			if out.OverflowUint(n) {
				return bad()
			}
			out.SetUint(n)
		case 'f':
			out.SetFloat(float64(n))
		}
	}
	return out.Interface(), nil
}

func kindClass(k reflect.Kind) byte {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 'i'
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 'u'
	case reflect.Float32, reflect.Float64:
		return 'f'
	}
	return 0
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

package query

import (
	"reflect"
	"strings"

	"github.com/crudzilla/crudzilla/internal/schema"
)

// Criterion is one equality constraint derived from a filter field. Values
// holds one element for "=" and several for "IN".
type Criterion struct {
	Field  *schema.Field
	Values []any
}

// Criteria derives the constraints of a generic filter: every set field
// (non-nil pointer, non-empty slice, non-zero value) whose name matches a
// scalar or reference field of s. The embedded Filter is ignored.
func Criteria(filter any, s *schema.Schema) []Criterion {
	v := reflect.ValueOf(filter)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	var out []Criterion
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		ef, ok := s.Lookup(sf.Name)
		if !ok {
			continue
		}
		if ef.Relation != schema.Scalar && ef.Relation != schema.ToOne {
			continue
		}

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Pointer:
			if fv.IsNil() {
				continue
			}
			out = append(out, Criterion{Field: ef, Values: []any{fv.Elem().Interface()}})
		case reflect.Slice:
			if fv.Len() == 0 {
				continue
			}
			vals := make([]any, fv.Len())
			for j := range vals {
				vals[j] = fv.Index(j).Interface()
			}
			out = append(out, Criterion{Field: ef, Values: vals})
		default:
			if fv.IsZero() {
				continue
			}
			out = append(out, Criterion{Field: ef, Values: []any{fv.Interface()}})
		}
	}
	return out
}

// SortField resolves a client sort column against the stored fields of s,
// by field name or column name. Unknown columns resolve to the identifier.
func SortField(s *schema.Schema, column string) *schema.Field {
	if column = strings.TrimSpace(column); column == "" {
		return s.ID
	}
	if f, ok := s.Lookup(column); ok && f.Stored() {
		return f
	}
	if f, ok := s.ByColumn(column); ok {
		return f
	}
	return s.ID
}

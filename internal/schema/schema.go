// Package schema derives persistence and relationship metadata from entity
// struct tags. A Schema is computed once per type and memoized.
//
// Tags:
//
//	db:"column"                    column name (default: snake_case of the field name), "-" to skip
//	crud:"id"                      identifier field
//	crud:"ref"                     to-one reference (*T), stored in the db column (default <field>_id)
//	crud:"owned,backref=Field"     owned to-many ([]*T); Field is the child's reference to the parent
//	crud:"linked,table=t,owner=c,target=c"
//	                               many-to-many ([]*T) through link table t
//	crud:"values"                  embedded value collection, stored as an array column
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Relation classifies how a field participates in persistence.
type Relation int

const (
	Scalar Relation = iota
	ToOne
	Owned
	Linked
	Values
)

func (r Relation) String() string {
	switch r {
	case Scalar:
		return "scalar"
	case ToOne:
		return "ref"
	case Owned:
		return "owned"
	case Linked:
		return "linked"
	case Values:
		return "values"
	default:
		return fmt.Sprintf("relation(%d)", int(r))
	}
}

// ErrInvalidSchema is returned for malformed struct tags.
var ErrInvalidSchema = errors.New("invalid schema")

// Field describes one persisted struct field.
type Field struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Column   string
	Relation Relation

	// Target is the referenced entity type (pointer form) for ToOne, Owned
	// and Linked, and the element type for Values.
	Target reflect.Type

	BackRef      string
	LinkTable    string
	OwnerColumn  string
	TargetColumn string
}

// Schema is the parsed description of an entity struct.
type Schema struct {
	Type   reflect.Type
	ID     *Field
	Fields []*Field

	byName map[string]*Field
}

var cache sync.Map // reflect.Type -> *Schema

// Of returns the memoized schema for t. t may be a struct or a pointer to one.
func Of(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidSchema)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := cache.Load(t); ok {
		return v.(*Schema), nil
	}
	s, err := parse(t)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// MustOf is Of that panics on error. Intended for package-level registration.
func MustOf(t reflect.Type) *Schema {
	s, err := Of(t)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup finds a field by case-insensitive name.
func (s *Schema) Lookup(name string) (*Field, bool) {
	f, ok := s.byName[strings.ToLower(name)]
	return f, ok
}

// Columns returns the stored columns (scalars, values and reference
// foreign keys) excluding the identifier.
func (s *Schema) Columns() []string {
	var cols []string
	for _, f := range s.Fields {
		if f.Stored() && f != s.ID {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// Stored returns the fields that map to a column of the entity's own
// table, excluding the identifier.
func (s *Schema) Stored() []*Field {
	var out []*Field
	for _, f := range s.Fields {
		if f.Stored() && f != s.ID {
			out = append(out, f)
		}
	}
	return out
}

// Relations returns the fields of the given relation kind.
func (s *Schema) Relations(kind Relation) []*Field {
	var out []*Field
	for _, f := range s.Fields {
		if f.Relation == kind {
			out = append(out, f)
		}
	}
	return out
}

// ByColumn finds a stored field by column name.
func (s *Schema) ByColumn(col string) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Stored() && f.Column == col {
			return f, true
		}
	}
	return nil, false
}

// Stored reports whether the field lives in the entity's own table.
func (f *Field) Stored() bool {
	switch f.Relation {
	case Scalar, ToOne, Values:
		return true
	}
	return false
}

func parse(t reflect.Type) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidSchema, t)
	}

	s := &Schema{Type: t, byName: make(map[string]*Field)}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		col := sf.Tag.Get("db")
		if col == "-" {
			continue
		}

		f := &Field{Name: sf.Name, Index: sf.Index, Type: sf.Type, Column: col}
		if err := applyCrudTag(f, sf.Tag.Get("crud"), s); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidSchema, t.Name(), sf.Name, err)
		}
		if f.Column == "" && f.Stored() {
			f.Column = SnakeCase(sf.Name)
			if f.Relation == ToOne {
				f.Column += "_id"
			}
		}

		s.Fields = append(s.Fields, f)
		s.byName[strings.ToLower(f.Name)] = f
	}

	if s.ID == nil {
		if f, ok := s.byName["id"]; ok && f.Relation == Scalar {
			s.ID = f
		} else {
			return nil, fmt.Errorf("%w: %s has no identifier field", ErrInvalidSchema, t.Name())
		}
	}
	if s.ID.Column == "" {
		s.ID.Column = "id"
	}

	return s, nil
}

func applyCrudTag(f *Field, tag string, s *Schema) error {
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ",")
	opts := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
		opts[k] = v
	}

	switch strings.TrimSpace(parts[0]) {
	case "id":
		if s.ID != nil {
			return fmt.Errorf("duplicate identifier, already %s", s.ID.Name)
		}
		s.ID = f
	case "ref":
		if !isStructPtr(f.Type) {
			return fmt.Errorf("ref must be a pointer to struct, got %s", f.Type)
		}
		f.Relation = ToOne
		f.Target = f.Type
	case "owned":
		if !isStructPtrSlice(f.Type) {
			return fmt.Errorf("owned must be a slice of struct pointers, got %s", f.Type)
		}
		f.Relation = Owned
		f.Target = f.Type.Elem()
		f.BackRef = opts["backref"]
		f.Column = ""
	case "linked":
		if !isStructPtrSlice(f.Type) {
			return fmt.Errorf("linked must be a slice of struct pointers, got %s", f.Type)
		}
		f.Relation = Linked
		f.Target = f.Type.Elem()
		f.LinkTable, f.OwnerColumn, f.TargetColumn = opts["table"], opts["owner"], opts["target"]
		if f.LinkTable == "" || f.OwnerColumn == "" || f.TargetColumn == "" {
			return fmt.Errorf("linked requires table, owner and target options")
		}
		f.Column = ""
	case "values":
		if f.Type.Kind() != reflect.Slice {
			return fmt.Errorf("values must be a slice, got %s", f.Type)
		}
		f.Relation = Values
		f.Target = f.Type.Elem()
	default:
		return fmt.Errorf("unknown crud option %q", parts[0])
	}
	return nil
}

func isStructPtr(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

func isStructPtrSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && isStructPtr(t.Elem())
}

// SnakeCase converts a Go identifier to snake_case: CategoryID -> category_id.
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

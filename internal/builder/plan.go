package builder

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

type planKey struct {
	entity, form reflect.Type
}

type plan struct {
	bindings []binding
}

type binding struct {
	entity  *schema.Field
	form    []int
	store   repository.Store
	convert func(reflect.Value) reflect.Value
}

func (b *Builder) planFor(entityType, formType reflect.Type) (*plan, error) {
	key := planKey{entity: entityType, form: formType}
	if p, ok := b.plans.Load(key); ok {
		return p.(*plan), nil
	}
	p, err := b.compile(entityType, formType)
	if err != nil {
		return nil, err
	}
	actual, _ := b.plans.LoadOrStore(key, p)
	return actual.(*plan), nil
}

func (b *Builder) compile(entityType, formType reflect.Type) (*plan, error) {
	s, err := schema.Of(entityType)
	if err != nil {
		return nil, err
	}
	formFields := indexFields(formType.Elem())
	p := &plan{}

	skip := func(f *schema.Field, reason string) {
		b.log.Debug("binding skipped",
			slog.String("entity", s.Type.Name()),
			slog.String("form", formType.Elem().Name()),
			slog.String("field", f.Name),
			slog.String("reason", reason),
		)
	}

	for _, f := range s.Fields {
		if f == s.ID {
			continue
		}

		switch f.Relation {
		case schema.Scalar:
			ff, ok := formFields[strings.ToLower(f.Name)]
			if !ok {
				skip(f, "no form field")
				continue
			}
			conv := converter(ff.Type, f.Type)
			if conv == nil {
				skip(f, fmt.Sprintf("cannot assign %s to %s", ff.Type, f.Type))
				continue
			}
			p.bindings = append(p.bindings, binding{entity: f, form: ff.Index, convert: conv})

		case schema.ToOne:
			ff, ok := formFields[strings.ToLower(f.Name)]
			if !ok {
				skip(f, "no form field")
				continue
			}
			store, ok := b.storeFor(f, skip)
			if !ok {
				continue
			}
			if t := derefType(ff.Type); t != store.KeyType() {
				skip(f, fmt.Sprintf("form field is %s, reference key is %s", ff.Type, store.KeyType()))
				continue
			}
			p.bindings = append(p.bindings, binding{entity: f, form: ff.Index, store: store})

		case schema.Owned:
			ff, ok := formFields[strings.ToLower(f.Name+"Forms")]
			if !ok {
				skip(f, "no "+f.Name+"Forms form field")
				continue
			}
			if ff.Type.Kind() != reflect.Slice {
				skip(f, fmt.Sprintf("sub-forms must be a slice, got %s", ff.Type))
				continue
			}
			p.bindings = append(p.bindings, binding{entity: f, form: ff.Index})

		case schema.Linked:
			ff, ok := formFields[strings.ToLower("Ids"+f.Name)]
			if !ok {
				skip(f, "no Ids"+f.Name+" form field")
				continue
			}
			store, ok := b.storeFor(f, skip)
			if !ok {
				continue
			}
			if ff.Type.Kind() != reflect.Slice || ff.Type.Elem() != store.KeyType() {
				skip(f, fmt.Sprintf("form field is %s, linked key is %s", ff.Type, store.KeyType()))
				continue
			}
			p.bindings = append(p.bindings, binding{entity: f, form: ff.Index, store: store})

		case schema.Values:
			ff, ok := formFields[strings.ToLower(f.Name)]
			if !ok {
				skip(f, "no form field")
				continue
			}
			if ff.Type.Kind() != reflect.Slice {
				skip(f, fmt.Sprintf("values must be a slice, got %s", ff.Type))
				continue
			}
			conv := converter(ff.Type.Elem(), f.Type.Elem())
			if conv == nil {
				skip(f, fmt.Sprintf("cannot assign %s to %s", ff.Type, f.Type))
				continue
			}
			p.bindings = append(p.bindings, binding{entity: f, form: ff.Index, convert: conv})
		}
	}
	return p, nil
}

func (b *Builder) storeFor(f *schema.Field, skip func(*schema.Field, string)) (repository.Store, bool) {
	store, err := b.loc.StoreFor(f.Target)
	if err != nil {
		skip(f, err.Error())
		return nil, false
	}
	return store, true
}

func indexFields(t reflect.Type) map[string]reflect.StructField {
	out := make(map[string]reflect.StructField)
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := strings.ToLower(sf.Name)
		if _, dup := out[name]; !dup {
			out[name] = sf
		}
	}
	return out
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// converter returns a function turning a from-typed value into a to-typed
// one, or nil when the types are incompatible. Pointer and value forms of the
// same type are adapted; a nil pointer becomes the zero value.
func converter(from, to reflect.Type) func(reflect.Value) reflect.Value {
	if direct := plainConverter(from, to); direct != nil {
		return direct
	}
	if from.Kind() == reflect.Pointer {
		if inner := plainConverter(from.Elem(), to); inner != nil {
			return func(v reflect.Value) reflect.Value {
				if v.IsNil() {
					return reflect.Zero(to)
				}
				return inner(v.Elem())
			}
		}
	}
	if to.Kind() == reflect.Pointer {
		if inner := plainConverter(from, to.Elem()); inner != nil {
			return func(v reflect.Value) reflect.Value {
				p := reflect.New(to.Elem())
				p.Elem().Set(inner(v))
				return p
			}
		}
		if from.Kind() == reflect.Pointer {
			if inner := plainConverter(from.Elem(), to.Elem()); inner != nil {
				return func(v reflect.Value) reflect.Value {
					if v.IsNil() {
						return reflect.Zero(to)
					}
					p := reflect.New(to.Elem())
					p.Elem().Set(inner(v.Elem()))
					return p
				}
			}
		}
	}
	return nil
}

func plainConverter(from, to reflect.Type) func(reflect.Value) reflect.Value {
	switch {
	case from.AssignableTo(to):
		if from.Kind() == reflect.Pointer {
			// never alias form memory into the entity
			return func(v reflect.Value) reflect.Value {
				if v.IsNil() {
					return reflect.Zero(to)
				}
				p := reflect.New(from.Elem())
				p.Elem().Set(v.Elem())
				return p.Convert(to)
			}
		}
		return func(v reflect.Value) reflect.Value { return v.Convert(to) }
	case sameFamily(from, to) && from.ConvertibleTo(to):
		return func(v reflect.Value) reflect.Value { return v.Convert(to) }
	}
	return nil
}

// sameFamily excludes conversions that change meaning, such as int to string.
func sameFamily(a, b reflect.Type) bool {
	family := func(k reflect.Kind) int {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return 1
		case reflect.String:
			return 2
		case reflect.Bool:
			return 3
		}
		return int(k) + 100
	}
	return family(a.Kind()) == family(b.Kind())
}

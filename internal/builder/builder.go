// Package builder binds decoded forms onto entities, re-materializing the
// entity's relationships from the flat form data:
//
//   - scalar fields are copied by case-insensitive name;
//   - a to-one reference is loaded from the identifier in the same-named form field;
//   - an owned collection is rebuilt from the sub-forms in the "<Field>Forms" form field;
//   - a linked collection is replaced by the entities named in "Ids<Field>";
//   - a value collection is replaced by the same-named form slice.
//
// Form fields that are missing or have an unusable type are skipped.
// Repository errors are not.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

// SaveFunc runs the nested save pipeline for an owned child: it builds (or
// loads and rebuilds) an entity of entityType from form, calls beforeSave and
// returns the entity without persisting it.
type SaveFunc func(ctx context.Context, entityType reflect.Type, form any, beforeSave func(e any) error) (any, error)

// Builder is the default form binder. Binding plans are computed once per
// (entity type, form type) pair.
type Builder struct {
	loc   repository.Locator
	save  SaveFunc
	log   *slog.Logger
	plans sync.Map // planKey -> *plan
}

// New creates a Builder.
func New(log *slog.Logger, loc repository.Locator, save SaveFunc) *Builder {
	return &Builder{
		loc:  loc,
		save: save,
		log:  log.With("component", "builder"),
	}
}

// BuildNew binds form onto a blank entity.
func (b *Builder) BuildNew(ctx context.Context, form, blank any) (any, error) {
	return b.bind(ctx, form, blank)
}

// BuildExisting binds form onto a loaded entity.
func (b *Builder) BuildExisting(ctx context.Context, form, loaded any) (any, error) {
	return b.bind(ctx, form, loaded)
}

func (b *Builder) bind(ctx context.Context, form, target any) (any, error) {
	fv, err := structPtr(form, "form")
	if err != nil {
		return nil, err
	}
	ev, err := structPtr(target, "entity")
	if err != nil {
		return nil, err
	}

	p, err := b.planFor(ev.Type(), fv.Type())
	if err != nil {
		return nil, err
	}

	for _, bd := range p.bindings {
		src := fv.Elem().FieldByIndex(bd.form)
		dst := ev.Elem().FieldByIndex(bd.entity.Index)

		switch bd.entity.Relation {
		case schema.Scalar:
			dst.Set(bd.convert(src))
		case schema.ToOne:
			if err := b.bindToOne(ctx, bd, src, dst); err != nil {
				return nil, err
			}
		case schema.Owned:
			if err := b.bindOwned(ctx, bd, src, dst, ev); err != nil {
				return nil, err
			}
		case schema.Linked:
			if err := b.bindLinked(ctx, bd, src, dst); err != nil {
				return nil, err
			}
		case schema.Values:
			bindValues(bd, src, dst)
		}
	}
	return target, nil
}

func (b *Builder) bindToOne(ctx context.Context, bd binding, src, dst reflect.Value) error {
	id, ok := refID(src)
	if !ok {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	ref, err := bd.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", bd.entity.Name, err)
	}
	dst.Set(reflect.ValueOf(ref))
	return nil
}

func (b *Builder) bindOwned(ctx context.Context, bd binding, src, dst, owner reflect.Value) error {
	children := reflect.MakeSlice(dst.Type(), 0, src.Len())
	backRef := bd.entity.BackRef

	for i := 0; i < src.Len(); i++ {
		sub := src.Index(i)
		if sub.Kind() != reflect.Pointer && sub.CanAddr() {
			sub = sub.Addr()
		}
		if sub.Kind() == reflect.Pointer && sub.IsNil() {
			continue
		}

		child, err := b.save(ctx, bd.entity.Target, sub.Interface(), func(e any) error {
			if backRef == "" {
				return nil
			}
			f := reflect.ValueOf(e).Elem().FieldByName(backRef)
			if !f.IsValid() || !f.CanSet() || !owner.Type().AssignableTo(f.Type()) {
				return fmt.Errorf("%s: back reference %s.%s cannot hold %s",
					bd.entity.Name, bd.entity.Target.Elem().Name(), backRef, owner.Type())
			}
			f.Set(owner)
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", bd.entity.Name, i, err)
		}
		children = reflect.Append(children, reflect.ValueOf(child))
	}

	dst.Set(children)
	return nil
}

func (b *Builder) bindLinked(ctx context.Context, bd binding, src, dst reflect.Value) error {
	ids := make([]any, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		ids = append(ids, src.Index(i).Interface())
	}

	linked := reflect.MakeSlice(dst.Type(), 0, len(ids))
	if len(ids) > 0 {
		found, err := bd.store.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("%s: %w", bd.entity.Name, err)
		}
		for _, e := range found {
			linked = reflect.Append(linked, reflect.ValueOf(e))
		}
	}
	dst.Set(linked)
	return nil
}

func bindValues(bd binding, src, dst reflect.Value) {
	if dst.IsNil() {
		dst.Set(reflect.MakeSlice(dst.Type(), 0, src.Len()))
	} else {
		dst.SetLen(0)
	}
	for i := 0; i < src.Len(); i++ {
		dst.Set(reflect.Append(dst, bd.convert(src.Index(i))))
	}
}

// refID extracts a reference identifier from a K or *K form field. A nil
// pointer or zero value means "no reference".
func refID(src reflect.Value) (any, bool) {
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			return nil, false
		}
		src = src.Elem()
	}
	if src.IsZero() {
		return nil, false
	}
	return src.Interface(), true
}

func structPtr(v any, what string) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s must be a non-nil struct pointer, got %T", what, v)
	}
	return rv, nil
}

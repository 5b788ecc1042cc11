// Package memory is an in-process repository.Store. It backs tests and the
// "memory" store driver.
package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

// Store keeps copies of entities keyed by identifier, in insertion order.
// Owned children are stored in their own type's store (resolved through the
// locator) so that they get identifiers and orphans are removed on update.
type Store struct {
	loc repository.Locator
	s   *schema.Schema
	et  reflect.Type
	kt  reflect.Type

	mu    sync.RWMutex
	rows  map[any]reflect.Value
	order []any
	seq   uint64
}

var _ repository.Store = (*Store)(nil)

// New creates a store for the entity type described by s. loc may be nil
// when the type has no owned collections.
func New(loc repository.Locator, s *schema.Schema) *Store {
	kt := s.ID.Type
	if kt.Kind() == reflect.Pointer {
		kt = kt.Elem()
	}
	return &Store{
		loc:  loc,
		s:    s,
		et:   reflect.PointerTo(s.Type),
		kt:   kt,
		rows: make(map[any]reflect.Value),
	}
}

// Factory adapts New to the registry's default repository signature.
func Factory(loc repository.Locator, s *schema.Schema, _ string) (repository.Store, error) {
	return New(loc, s), nil
}

func (m *Store) EntityType() reflect.Type { return m.et }
func (m *Store) KeyType() reflect.Type    { return m.kt }

func (m *Store) New() any { return reflect.New(m.s.Type).Interface() }

func (m *Store) Identify(e any) (any, bool) {
	id, err := entity.FormID(e)
	if err != nil || id == nil {
		return nil, false
	}
	return id, true
}

func (m *Store) ConvertID(raw string) (any, error) {
	return repository.ParseIDOf(m.kt, raw)
}

func (m *Store) Get(_ context.Context, id any) (any, error) {
	k, err := repository.CoerceIDOf(m.kt, id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	row, ok := m.rows[k]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s %v: %w", m.s.Type.Name(), k, domain.ErrNotFound)
	}
	return clone(row).Interface(), nil
}

// GetEagerLoaded is Get: every relationship is held in memory.
func (m *Store) GetEagerLoaded(ctx context.Context, id any) (any, error) {
	return m.Get(ctx, id)
}

func (m *Store) GetAll(context.Context) ([]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]any, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, clone(m.rows[k]).Interface())
	}
	return out, nil
}

func (m *Store) Remove(ctx context.Context, id any) error {
	k, err := repository.CoerceIDOf(m.kt, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	row, ok := m.rows[k]
	if ok {
		delete(m.rows, k)
		m.order = slices.DeleteFunc(m.order, func(o any) bool { return o == k })
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s %v: %w", m.s.Type.Name(), k, domain.ErrNotFound)
	}
	return m.removeOwned(ctx, row, nil)
}

func (m *Store) RemoveByIDs(ctx context.Context, ids []any) error {
	for _, id := range ids {
		if err := m.Remove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Put validates e, then inserts it (nil identifier) or replaces the stored
// copy. Updating an absent identifier fails with domain.ErrNotFound.
func (m *Store) Put(ctx context.Context, e any) (any, error) {
	v := reflect.ValueOf(e)
	if v.Type() != m.et || v.IsNil() {
		return nil, fmt.Errorf("put: %T is not %s", e, m.et)
	}
	if err := repository.Validate(e); err != nil {
		return nil, err
	}

	id, persisted := m.Identify(e)

	m.mu.Lock()
	var previous reflect.Value
	if persisted {
		row, ok := m.rows[id]
		if !ok {
			m.mu.Unlock()
			return nil, fmt.Errorf("%s %v: %w", m.s.Type.Name(), id, domain.ErrNotFound)
		}
		previous = row
	} else {
		next, err := m.nextID()
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		setID(v, next)
		id = next
	}
	m.mu.Unlock()

	if err := m.putOwned(ctx, v, previous); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, ok := m.rows[id]; !ok {
		m.order = append(m.order, id)
	}
	m.rows[id] = clone(v)
	m.mu.Unlock()

	return e, nil
}

func (m *Store) GetByTerm(ctx context.Context, term string) ([]any, error) {
	return m.match(ctx, term, false)
}

func (m *Store) GetByTermActive(ctx context.Context, term string) ([]any, error) {
	if _, ok := m.New().(entity.Activatable); !ok {
		return nil, fmt.Errorf("%s get by term (active): %w", m.s.Type.Name(), domain.ErrNotImplemented)
	}
	return m.match(ctx, term, true)
}

// GetByIDs returns the identified entities in insertion order, skipping
// identifiers that are absent.
func (m *Store) GetByIDs(_ context.Context, ids []any) ([]any, error) {
	want := make(map[any]bool, len(ids))
	for _, id := range ids {
		k, err := repository.CoerceIDOf(m.kt, id)
		if err != nil {
			return nil, err
		}
		want[k] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]any, 0, len(want))
	for _, k := range m.order {
		if want[k] {
			out = append(out, clone(m.rows[k]).Interface())
		}
	}
	return out, nil
}

func (m *Store) Projection(_ context.Context, name string, _ []byte) (any, error) {
	return nil, fmt.Errorf("projection %q: %w", name, domain.ErrProjectionNotFound)
}

func (m *Store) match(ctx context.Context, term string, activeOnly bool) ([]any, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	var out []any
	for _, e := range all {
		if activeOnly && !e.(entity.Activatable).IsActive() {
			continue
		}
		if strings.Contains(strings.ToLower(e.(entity.Labeled).GetLabel()), term) {
			out = append(out, e)
		}
	}
	return out, nil
}

// nextID must be called with mu held.
func (m *Store) nextID() (any, error) {
	k := reflect.New(m.kt).Elem()
	switch {
	case m.kt == reflect.TypeOf(uuid.UUID{}):
		return uuid.New(), nil
	case k.Kind() == reflect.String:
		k.SetString(uuid.NewString())
	case k.CanInt():
		m.seq++
		k.SetInt(int64(m.seq))
	case k.CanUint():
		m.seq++
		k.SetUint(m.seq)
	default:
		return nil, fmt.Errorf("generate %s id: %w", m.kt, domain.ErrNotImplemented)
	}
	return k.Interface(), nil
}

func (m *Store) putOwned(ctx context.Context, v, previous reflect.Value) error {
	owned := m.s.Relations(schema.Owned)
	if len(owned) == 0 {
		return nil
	}
	for _, f := range owned {
		children := v.Elem().FieldByIndex(f.Index)
		if children.IsNil() {
			continue
		}
		if m.loc == nil {
			return fmt.Errorf("%s.%s: owned collection needs a locator", m.s.Type.Name(), f.Name)
		}
		store, err := m.loc.StoreFor(f.Target)
		if err != nil {
			return err
		}
		kept := make(map[any]bool, children.Len())
		for i := 0; i < children.Len(); i++ {
			child := children.Index(i)
			if f.BackRef != "" {
				if ref := child.Elem().FieldByName(f.BackRef); ref.IsValid() && ref.CanSet() && ref.Type() == v.Type() {
					ref.Set(v)
				}
			}
			if _, err := store.Put(ctx, child.Interface()); err != nil {
				return fmt.Errorf("%s.%s[%d]: %w", m.s.Type.Name(), f.Name, i, err)
			}
			if id, ok := store.Identify(child.Interface()); ok {
				kept[id] = true
			}
		}
		if previous.IsValid() {
			if err := removeChildren(ctx, store, previous.Elem().FieldByIndex(f.Index), kept); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Store) removeOwned(ctx context.Context, row reflect.Value, kept map[any]bool) error {
	if m.loc == nil {
		return nil
	}
	for _, f := range m.s.Relations(schema.Owned) {
		store, err := m.loc.StoreFor(f.Target)
		if err != nil {
			return err
		}
		if err := removeChildren(ctx, store, row.Elem().FieldByIndex(f.Index), kept); err != nil {
			return err
		}
	}
	return nil
}

func removeChildren(ctx context.Context, store repository.Store, children reflect.Value, kept map[any]bool) error {
	for i := 0; i < children.Len(); i++ {
		id, ok := store.Identify(children.Index(i).Interface())
		if !ok || kept[id] {
			continue
		}
		if err := store.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

func setID(v reflect.Value, id any) {
	v.MethodByName("SetID").Call([]reflect.Value{reflect.ValueOf(id)})
}

// clone copies the struct behind ptr and its top-level slices.
func clone(ptr reflect.Value) reflect.Value {
	out := reflect.New(ptr.Elem().Type())
	out.Elem().Set(ptr.Elem())
	for i := 0; i < out.Elem().NumField(); i++ {
		f := out.Elem().Field(i)
		if f.Kind() == reflect.Slice && !f.IsNil() && f.CanSet() {
			c := reflect.MakeSlice(f.Type(), f.Len(), f.Len())
			reflect.Copy(c, f)
			f.Set(c)
		}
	}
	return out
}

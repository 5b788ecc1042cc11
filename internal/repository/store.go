package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
)

// Store is the type-erased view of a Repository. Identifiers may be passed
// as K, *K, their string form or a convertible number.
type Store interface {
	EntityType() reflect.Type
	KeyType() reflect.Type

	// New returns a blank, unpersisted entity.
	New() any
	// Identify returns the entity's identifier, false when not yet persisted.
	Identify(e any) (any, bool)

	Get(ctx context.Context, id any) (any, error)
	GetEagerLoaded(ctx context.Context, id any) (any, error)
	GetAll(ctx context.Context) ([]any, error)
	Remove(ctx context.Context, id any) error
	RemoveByIDs(ctx context.Context, ids []any) error
	Put(ctx context.Context, e any) (any, error)
	ConvertID(raw string) (any, error)
	GetByTerm(ctx context.Context, term string) ([]any, error)
	GetByTermActive(ctx context.Context, term string) ([]any, error)
	GetByIDs(ctx context.Context, ids []any) ([]any, error)

	// Projection invokes the named query method declared on the concrete
	// repository: func(ctx[, params []byte]) (T, error). Unknown names fail
	// with domain.ErrProjectionNotFound.
	Projection(ctx context.Context, name string, params []byte) (any, error)
}

// Locator resolves the store serving an entity type (struct or pointer).
type Locator interface {
	StoreFor(t reflect.Type) (Store, error)
}

// Erase adapts a typed repository to Store.
func Erase[E entity.Entity[K], K comparable](r Repository[E, K]) Store {
	return &erased[E, K]{repo: r}
}

// Typed recovers the typed repository behind a Store produced by Erase.
func Typed[E entity.Entity[K], K comparable](s Store) (Repository[E, K], bool) {
	e, ok := s.(*erased[E, K])
	if !ok {
		return nil, false
	}
	return e.repo, true
}

type erased[E entity.Entity[K], K comparable] struct {
	repo Repository[E, K]
}

func (s *erased[E, K]) EntityType() reflect.Type { return reflect.TypeOf((*E)(nil)).Elem() }
func (s *erased[E, K]) KeyType() reflect.Type    { return reflect.TypeOf((*K)(nil)).Elem() }

func (s *erased[E, K]) New() any { return NewEntity[E]() }

func (s *erased[E, K]) Identify(e any) (any, bool) {
	typed, ok := e.(E)
	if !ok {
		return nil, false
	}
	return IDOf[E, K](typed)
}

func (s *erased[E, K]) Get(ctx context.Context, id any) (any, error) {
	k, err := CoerceID[K](id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, k)
}

func (s *erased[E, K]) GetEagerLoaded(ctx context.Context, id any) (any, error) {
	k, err := CoerceID[K](id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetEagerLoaded(ctx, k)
}

func (s *erased[E, K]) GetAll(ctx context.Context) ([]any, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return toAny(all), nil
}

func (s *erased[E, K]) Remove(ctx context.Context, id any) error {
	k, err := CoerceID[K](id)
	if err != nil {
		return err
	}
	return s.repo.Remove(ctx, k)
}

func (s *erased[E, K]) RemoveByIDs(ctx context.Context, ids []any) error {
	keys, err := coerceAll[K](ids)
	if err != nil {
		return err
	}
	return s.repo.RemoveByIDs(ctx, keys)
}

func (s *erased[E, K]) Put(ctx context.Context, e any) (any, error) {
	typed, ok := e.(E)
	if !ok {
		return nil, fmt.Errorf("put: %T is not %s", e, s.EntityType())
	}
	return s.repo.Put(ctx, typed)
}

func (s *erased[E, K]) ConvertID(raw string) (any, error) {
	return s.repo.ConvertID(raw)
}

func (s *erased[E, K]) GetByTerm(ctx context.Context, term string) ([]any, error) {
	found, err := s.repo.GetByTerm(ctx, term)
	if err != nil {
		return nil, err
	}
	return toAny(found), nil
}

func (s *erased[E, K]) GetByTermActive(ctx context.Context, term string) ([]any, error) {
	found, err := s.repo.GetByTermActive(ctx, term)
	if err != nil {
		return nil, err
	}
	return toAny(found), nil
}

func (s *erased[E, K]) GetByIDs(ctx context.Context, ids []any) ([]any, error) {
	keys, err := coerceAll[K](ids)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.GetByIDs(ctx, keys)
	if err != nil {
		return nil, err
	}
	return toAny(found), nil
}

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType   = reflect.TypeOf((*error)(nil)).Elem()
	bytesType = reflect.TypeOf([]byte(nil))

	// contract methods are never exposed as projections.
	contractMethods = func() map[string]bool {
		t := reflect.TypeOf((*Repository[entity.Entity[int], int])(nil)).Elem()
		m := make(map[string]bool, t.NumMethod())
		for i := 0; i < t.NumMethod(); i++ {
			m[t.Method(i).Name] = true
		}
		return m
	}()
)

func (s *erased[E, K]) Projection(ctx context.Context, name string, params []byte) (any, error) {
	if name == "" || contractMethods[name] {
		return nil, fmt.Errorf("projection %q: %w", name, domain.ErrProjectionNotFound)
	}
	m := reflect.ValueOf(s.repo).MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("projection %q: %w", name, domain.ErrProjectionNotFound)
	}

	mt := m.Type()
	var args []reflect.Value
	switch {
	case mt.NumIn() == 0:
	case mt.NumIn() == 1 && mt.In(0) == ctxType:
		args = []reflect.Value{reflect.ValueOf(ctx)}
	case mt.NumIn() == 2 && mt.In(0) == ctxType && mt.In(1) == bytesType:
		args = []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(params)}
	default:
		return nil, fmt.Errorf("projection %q: unsupported signature: %w", name, domain.ErrProjectionNotFound)
	}

	// Only (T, error) results qualify, which keeps helpers promoted from an
	// embedded base repository (Store, Conn) out of reach.
	if mt.NumOut() != 2 || mt.Out(1) != errType {
		return nil, fmt.Errorf("projection %q: unsupported signature: %w", name, domain.ErrProjectionNotFound)
	}
	out := m.Call(args)
	if err, _ := out[1].Interface().(error); err != nil {
		return nil, err
	}
	return out[0].Interface(), nil
}

// NewEntity allocates a blank E. Pointer entity types get a fresh pointee.
func NewEntity[E any]() E {
	var zero E
	t := reflect.TypeOf((*E)(nil)).Elem()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(E)
	}
	return zero
}

func toAny[E any](in []E) []any {
	out := make([]any, len(in))
	for i, e := range in {
		out[i] = e
	}
	return out
}

func coerceAll[K comparable](ids []any) ([]K, error) {
	keys := make([]K, 0, len(ids))
	for _, id := range ids {
		k, err := CoerceID[K](id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

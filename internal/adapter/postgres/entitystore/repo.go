package entitystore

import (
	"context"
	"fmt"
	"reflect"

	sq "github.com/Masterminds/squirrel"

	"github.com/crudzilla/crudzilla/internal/adapter/postgres"
	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

// Repo is the typed repository.Repository over a Store. Entity repositories
// embed *Repo and override the optional lookups, for example:
//
//	func (r *ProductRepo) GetByTerm(ctx context.Context, term string) ([]*Product, error) {
//		return r.SelectWhere(ctx, sq.ILike{"name": "%" + term + "%"})
//	}
//
// Exported methods with a projection signature become named projections
// once the repository is registered through repository.Erase.
type Repo[E entity.Entity[K], K comparable] struct {
	repository.Unimplemented[E, K]
	store *Store
}

var _ repository.Repository[entity.Entity[int], int] = (*Repo[entity.Entity[int], int])(nil)

// NewRepo maps E to table. The store is shared with the mapper's default
// factory, so related types reach it for cascades.
func NewRepo[E entity.Entity[K], K comparable](m *Mapper, table string) (*Repo[E, K], error) {
	s, err := schema.Of(reflect.TypeOf((*E)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	st, err := m.newStore(s, table)
	if err != nil {
		return nil, err
	}
	if st.kt != reflect.TypeOf((*K)(nil)).Elem() {
		return nil, fmt.Errorf("%s is keyed by %s", s.Type.Name(), st.kt)
	}
	return &Repo[E, K]{
		Unimplemented: repository.Unimplemented[E, K]{Entity: s.Type.Name()},
		store:         st,
	}, nil
}

// Store returns the untyped store.
func (r *Repo[E, K]) Store() *Store { return r.store }

// Conn returns the transaction carried by ctx, or the pool.
func (r *Repo[E, K]) Conn(ctx context.Context) postgres.Querier { return r.store.Conn(ctx) }

func (r *Repo[E, K]) Get(ctx context.Context, id K) (E, error) {
	return one[E](r.store.Get(ctx, id))
}

func (r *Repo[E, K]) GetEagerLoaded(ctx context.Context, id K) (E, error) {
	return one[E](r.store.GetEagerLoaded(ctx, id))
}

func (r *Repo[E, K]) GetAll(ctx context.Context) ([]E, error) {
	return many[E](r.store.GetAll(ctx))
}

func (r *Repo[E, K]) Remove(ctx context.Context, id K) error {
	return r.store.Remove(ctx, id)
}

func (r *Repo[E, K]) RemoveEntity(ctx context.Context, e E) error {
	id, ok := repository.IDOf[E, K](e)
	if !ok {
		return fmt.Errorf("%s: remove unsaved entity: %w", r.Entity, domain.ErrNotFound)
	}
	return r.store.Remove(ctx, id)
}

func (r *Repo[E, K]) RemoveByIDs(ctx context.Context, ids []K) error {
	return r.store.RemoveByIDs(ctx, anyOf(ids))
}

func (r *Repo[E, K]) RemoveEntities(ctx context.Context, es []E) error {
	ids := make([]any, 0, len(es))
	for _, e := range es {
		if id, ok := repository.IDOf[E, K](e); ok {
			ids = append(ids, id)
		}
	}
	return r.store.RemoveByIDs(ctx, ids)
}

func (r *Repo[E, K]) Put(ctx context.Context, e E) (E, error) {
	return one[E](r.store.Put(ctx, e))
}

func (r *Repo[E, K]) Validate(e E) error { return repository.Validate(e) }

func (r *Repo[E, K]) ConvertID(raw string) (K, error) { return repository.ParseID[K](raw) }

// SelectWhere returns the rows matching pred, ordered by orderBy or else by
// identifier.
func (r *Repo[E, K]) SelectWhere(ctx context.Context, pred sq.Sqlizer, orderBy ...string) ([]E, error) {
	return many[E](r.store.SelectWhere(ctx, pred, orderBy...))
}

// CountWhere counts the rows matching pred.
func (r *Repo[E, K]) CountWhere(ctx context.Context, pred sq.Sqlizer) (int64, error) {
	return r.store.CountWhere(ctx, pred)
}

// FindByIDs returns the rows with the given identifiers, ordered by id.
func (r *Repo[E, K]) FindByIDs(ctx context.Context, ids []K) ([]E, error) {
	return many[E](r.store.FindByIDs(ctx, anyOf(ids)))
}

func one[E any](v any, err error) (E, error) {
	var zero E
	if err != nil {
		return zero, err
	}
	return v.(E), nil
}

func many[E any](vs []any, err error) ([]E, error) {
	if err != nil {
		return nil, err
	}
	out := make([]E, len(vs))
	for i, v := range vs {
		out[i] = v.(E)
	}
	return out, nil
}

func anyOf[K any](ids []K) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

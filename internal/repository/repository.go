// Package repository defines the generic persistence contract every managed
// entity type is served by, and a type-erased Store view used where the
// concrete entity type is only known at runtime.
package repository

import (
	"context"
	"fmt"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
)

// Repository is the typed persistence contract for entity E keyed by K.
//
// Get and Remove fail with domain.ErrNotFound when the entity is absent.
// Put validates the entity first; on failure it returns *domain.ValidationError
// carrying every violation. GetByTerm, GetByTermActive and GetByIDs are
// optional capabilities: the default implementations fail with
// domain.ErrNotImplemented.
type Repository[E entity.Entity[K], K comparable] interface {
	Get(ctx context.Context, id K) (E, error)
	GetEagerLoaded(ctx context.Context, id K) (E, error)
	GetAll(ctx context.Context) ([]E, error)
	Remove(ctx context.Context, id K) error
	RemoveEntity(ctx context.Context, e E) error
	RemoveByIDs(ctx context.Context, ids []K) error
	RemoveEntities(ctx context.Context, es []E) error
	Put(ctx context.Context, e E) (E, error)
	Validate(e E) error
	ConvertID(raw string) (K, error)
	GetByTerm(ctx context.Context, term string) ([]E, error)
	GetByTermActive(ctx context.Context, term string) ([]E, error)
	GetByIDs(ctx context.Context, ids []K) ([]E, error)
}

// Unimplemented provides the default behavior of the optional lookup
// capabilities. Embed it in a repository and override what the entity supports.
type Unimplemented[E any, K comparable] struct {
	Entity string
}

func (u Unimplemented[E, K]) GetByTerm(context.Context, string) ([]E, error) {
	return nil, fmt.Errorf("%s get by term: %w", u.Entity, domain.ErrNotImplemented)
}

func (u Unimplemented[E, K]) GetByTermActive(context.Context, string) ([]E, error) {
	return nil, fmt.Errorf("%s get by term (active): %w", u.Entity, domain.ErrNotImplemented)
}

func (u Unimplemented[E, K]) GetByIDs(context.Context, []K) ([]E, error) {
	return nil, fmt.Errorf("%s get by ids: %w", u.Entity, domain.ErrNotImplemented)
}

// Validate runs entity.Validatable when e implements it.
func Validate(e any) error {
	if v, ok := e.(entity.Validatable); ok {
		return v.Validate()
	}
	return nil
}

// IDOf returns the identifier of e, or false when it has not been persisted.
func IDOf[E entity.Entity[K], K comparable](e E) (K, bool) {
	var zero K
	id := e.GetID()
	if id == nil {
		return zero, false
	}
	return *id, true
}

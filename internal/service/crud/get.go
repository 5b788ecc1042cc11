package crud

import (
	"context"
	"fmt"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/registry"
	"github.com/crudzilla/crudzilla/internal/security"
)

// GetByID returns the eagerly loaded entity of key identified by rawID.
func (s *Service) GetByID(ctx context.Context, key, rawID string) (any, error) {
	d, err := s.resolve(ctx, key, security.GetByID)
	if err != nil {
		return nil, err
	}
	id, err := convertID(d, rawID)
	if err != nil {
		return nil, err
	}
	return d.Repository.GetEagerLoaded(ctx, id)
}

// GetAll lists every entity of key. Keys registered with DisableListAll
// fail with domain.ErrNotFound.
func (s *Service) GetAll(ctx context.Context, key string) ([]any, error) {
	d, err := s.resolve(ctx, key, security.GetAll)
	if err != nil {
		return nil, err
	}
	return s.getAll(ctx, d)
}

// GetAllMultiselect lists every entity of key as {id, value} options.
func (s *Service) GetAllMultiselect(ctx context.Context, key string) ([]entity.MultiselectOption, error) {
	d, err := s.resolve(ctx, key, security.GetAll)
	if err != nil {
		return nil, err
	}
	all, err := s.getAll(ctx, d)
	if err != nil {
		return nil, err
	}

	out := make([]entity.MultiselectOption, 0, len(all))
	for _, e := range all {
		id, _ := d.Repository.Identify(e)
		out = append(out, entity.MultiselectOption{ID: idString(id), Value: labelOf(e)})
	}
	return out, nil
}

func (s *Service) getAll(ctx context.Context, d *registry.Descriptor) ([]any, error) {
	if d.DisableListAll {
		return nil, fmt.Errorf("%q: list all disabled: %w", d.Key, domain.ErrNotFound)
	}
	all, err := d.Repository.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []any{}
	}
	return all, nil
}

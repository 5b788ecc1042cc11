package crud

import (
	"context"

	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/registry"
)

// Autocomplete returns the entities of key matching term as {id, name}
// options. The lookup is served by the key's repository override.
func (s *Service) Autocomplete(ctx context.Context, key, term string) ([]entity.AutocompleteOption, error) {
	d, err := s.reg.Resolve(key)
	if err != nil {
		return nil, err
	}
	found, err := d.Repository.GetByTerm(ctx, term)
	if err != nil {
		return nil, err
	}
	return autocompleteOptions(d, found), nil
}

// AutocompleteActive is Autocomplete restricted to active entities.
func (s *Service) AutocompleteActive(ctx context.Context, key, term string) ([]entity.AutocompleteOption, error) {
	d, err := s.reg.Resolve(key)
	if err != nil {
		return nil, err
	}
	found, err := d.Repository.GetByTermActive(ctx, term)
	if err != nil {
		return nil, err
	}
	return autocompleteOptions(d, found), nil
}

// AutocompleteByIDs returns the options of the identified entities, in the
// order the repository yields them.
func (s *Service) AutocompleteByIDs(ctx context.Context, key string, rawIDs []string) ([]entity.AutocompleteOption, error) {
	d, err := s.reg.Resolve(key)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := convertID(d, raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []entity.AutocompleteOption{}, nil
	}

	found, err := d.Repository.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return autocompleteOptions(d, found), nil
}

func autocompleteOptions(d *registry.Descriptor, found []any) []entity.AutocompleteOption {
	out := make([]entity.AutocompleteOption, 0, len(found))
	for _, e := range found {
		id, _ := d.Repository.Identify(e)
		out = append(out, entity.AutocompleteOption{ID: idString(id), Name: labelOf(e)})
	}
	return out
}

package registry

import (
	"fmt"
	"slices"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
)

// RegisterTypes registers a named enumeration served by the types
// operations. Values keep their declaration order.
func (r *Registry) RegisterTypes(name string, values []entity.TypeValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register types %q: %w", name, ErrSealed)
	}
	if _, dup := r.types[name]; dup {
		return fmt.Errorf("register types %q: %w", name, ErrDuplicateKey)
	}
	r.types[name] = slices.Clone(values)
	return nil
}

// Types returns the values of a named enumeration.
func (r *Registry) Types(name string) ([]entity.TypeValue, error) {
	r.mu.RLock()
	values, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("types %q: %w", name, domain.ErrUnknownKey)
	}
	return slices.Clone(values), nil
}

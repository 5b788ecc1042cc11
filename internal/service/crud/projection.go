package crud

import (
	"context"
)

// Projection invokes the named query method of key's repository. Unknown
// names fail with domain.ErrProjectionNotFound.
func (s *Service) Projection(ctx context.Context, key, name string, params []byte) (any, error) {
	d, err := s.reg.Resolve(key)
	if err != nil {
		return nil, err
	}
	return d.Repository.Projection(ctx, name, params)
}

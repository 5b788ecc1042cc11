package crud

import (
	"context"
	"log/slog"

	"github.com/crudzilla/crudzilla/internal/query"
	"github.com/crudzilla/crudzilla/internal/security"
)

type cacheKey struct {
	key  string
	hash uint64
}

type cacheEntry struct {
	filter any
	result query.Result[any]
}

// Search decodes params into the filter registered for key and runs the
// key's query builder. Decode failures wrap domain.ErrDecode.
func (s *Service) Search(ctx context.Context, key string, params map[string]string) (query.Result[any], error) {
	d, err := s.resolve(ctx, key, security.Search)
	if err != nil {
		return query.Result[any]{}, err
	}
	filter, err := d.NewFilter()
	if err != nil {
		return query.Result[any]{}, err
	}
	if err := query.Decode(params, filter); err != nil {
		return query.Result[any]{}, err
	}

	ck := cacheKey{key: key, hash: query.Hash(filter)}
	if s.cache != nil {
		if hit, ok := s.cache.Get(ck); ok && query.Equal(hit.filter, filter) {
			s.log.DebugContext(ctx, "search cache hit", slog.String("key", key))
			return hit.result, nil
		}
	}

	gen := s.gen.Load()
	res, err := d.QueryBuilder.Search(ctx, filter)
	if err != nil {
		return query.Result[any]{}, err
	}
	if s.cache != nil && s.gen.Load() == gen {
		s.cache.Add(ck, cacheEntry{filter: filter, result: res})
		// a mutation that raced the Add must not leave its result behind
		if s.gen.Load() != gen {
			s.cache.Remove(ck)
		}
	}
	return res, nil
}

// invalidate drops every cached search. Mutations can change the results
// of other keys through references, so the whole cache goes. The generation
// bump keeps searches already in flight from caching what they read.
func (s *Service) invalidate(ctx context.Context, key string) {
	s.gen.Add(1)
	if s.cache == nil || s.cache.Len() == 0 {
		return
	}
	s.cache.Purge()
	s.log.DebugContext(ctx, "search cache purged", slog.String("key", key))
}

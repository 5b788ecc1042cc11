// Package crud is the entity-management facade: it resolves an entity key,
// authorizes the caller and runs the save, lookup and search pipelines
// against the collaborators registered for that key.
package crud

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/crudzilla/crudzilla/internal/builder"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/registry"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/security"
)

type entityRegistry interface {
	Resolve(key string) (*registry.Descriptor, error)
	ByType(t reflect.Type) (*registry.Descriptor, bool)
	StoreFor(t reflect.Type) (repository.Store, error)
	Types(name string) ([]entity.TypeValue, error)
}

type gate interface {
	Require(ctx context.Context, key string, op security.Operation) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Option configures a Service.
type Option func(*Service)

// WithSearchCache caches search results for ttl, keeping at most size
// filters. A size of 0 disables the cache.
func WithSearchCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithBuilder replaces the default form binder used for keys registered
// without one.
func WithBuilder(b registry.EntityBuilder) Option {
	return func(s *Service) { s.builder = b }
}

// Service provides the generic entity operations.
type Service struct {
	reg     entityRegistry
	gate    gate
	tx      txManager
	builder registry.EntityBuilder
	log     *slog.Logger

	cacheSize int
	cacheTTL  time.Duration
	cache     *expirable.LRU[cacheKey, cacheEntry]
	gen       atomic.Uint64
}

// NewService creates a new CRUD service.
func NewService(
	log *slog.Logger,
	reg entityRegistry,
	gate gate,
	tx txManager,
	opts ...Option,
) *Service {
	s := &Service{
		reg:  reg,
		gate: gate,
		tx:   tx,
		log:  log.With("service", "crud"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.builder == nil {
		s.builder = builder.New(log, reg, s.SaveNested)
	}
	if s.cacheSize > 0 {
		s.cache = expirable.NewLRU[cacheKey, cacheEntry](s.cacheSize, nil, s.cacheTTL)
	}
	return s
}

func (s *Service) builderFor(d *registry.Descriptor) registry.EntityBuilder {
	if d.Builder != nil {
		return d.Builder
	}
	return s.builder
}

// resolve authorizes op on key and returns its descriptor.
func (s *Service) resolve(ctx context.Context, key string, op security.Operation) (*registry.Descriptor, error) {
	if err := s.gate.Require(ctx, key, op); err != nil {
		return nil, err
	}
	return s.reg.Resolve(key)
}

// convertID parses the textual identifier of key's entity.
func convertID(d *registry.Descriptor, raw string) (any, error) {
	id, err := d.Repository.ConvertID(raw)
	if err != nil {
		return nil, fmt.Errorf("%s id %q: %w", d.Key, raw, err)
	}
	return id, nil
}

func idString(id any) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id)
}

func labelOf(e any) string {
	if l, ok := e.(entity.Labeled); ok {
		return l.GetLabel()
	}
	return ""
}

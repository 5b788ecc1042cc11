// Package registry maps entity keys to the collaborators that serve them.
// It is populated once at startup, then sealed and only read.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/query"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
	"github.com/crudzilla/crudzilla/internal/security"
)

var (
	ErrDuplicateKey = errors.New("duplicate entity key")
	ErrSealed       = errors.New("registry is sealed")
)

// EntityBuilder binds a decoded form onto an entity instance.
type EntityBuilder interface {
	BuildNew(ctx context.Context, form, blank any) (any, error)
	BuildExisting(ctx context.Context, form, loaded any) (any, error)
}

// RepositoryFactory creates the default store of an entity type. loc
// resolves the stores of related entity types.
type RepositoryFactory func(loc repository.Locator, s *schema.Schema, table string) (repository.Store, error)

// QueryFactory creates the default searcher of an entity registered with a
// filter type but no query builder. loc resolves the entity's store, which
// may not be registered yet when the factory runs.
type QueryFactory func(loc repository.Locator, s *schema.Schema, table string, filterType reflect.Type) (query.Searcher, error)

// Registration declares one entity key.
//
// Entity, Form and Filter are prototypes (typically typed nil pointers such as
// (*Product)(nil)). Table defaults to the entity's TableName method, else the
// snake_case type name. A nil Repository uses the default repository
// factory, a nil Builder the service's default binder, and a nil
// QueryBuilder the default query factory when Filter is set.
type Registration struct {
	Key            string
	Entity         any
	Table          string
	Form           any
	Filter         any
	Repository     repository.Store
	Builder        EntityBuilder
	QueryBuilder   query.Searcher
	DisableListAll bool
	Rules          []security.Rule
}

// Descriptor is the resolved, immutable description of one key.
type Descriptor struct {
	Key            string
	EntityType     reflect.Type
	FormType       reflect.Type
	FilterType     reflect.Type
	Table          string
	Schema         *schema.Schema
	Repository     repository.Store
	Builder        EntityBuilder
	QueryBuilder   query.Searcher
	DisableListAll bool
	Policy         *security.Policy
}

// NewForm allocates a blank form, failing with domain.ErrFormTypeNotFound
// when the key has none.
func (d *Descriptor) NewForm() (any, error) {
	if d.FormType == nil {
		return nil, fmt.Errorf("%q: %w", d.Key, domain.ErrFormTypeNotFound)
	}
	return newOf(d.FormType), nil
}

// NewFilter allocates a blank filter, failing with
// domain.ErrFilterTypeNotFound when the key has none.
func (d *Descriptor) NewFilter() (query.Filterer, error) {
	if d.FilterType == nil || d.QueryBuilder == nil {
		return nil, fmt.Errorf("%q: %w", d.Key, domain.ErrFilterTypeNotFound)
	}
	f, ok := newOf(d.FilterType).(query.Filterer)
	if !ok {
		return nil, fmt.Errorf("%q: %s is not a filter: %w", d.Key, d.FilterType, domain.ErrFilterTypeNotFound)
	}
	return f, nil
}

// Option configures a Registry.
type Option func(*Registry)

func WithDefaultRepository(f RepositoryFactory) Option {
	return func(r *Registry) { r.defaultRepo = f }
}

func WithDefaultQueryBuilder(f QueryFactory) Option {
	return func(r *Registry) { r.defaultQuery = f }
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithCollaborators supplies the collaborators of a key registered through
// Discover. Only Table, Form, Filter, Repository, Builder and QueryBuilder
// are taken from c.
func WithCollaborators(key string, c Registration) Option {
	return func(r *Registry) { r.collaborators[key] = c }
}

// Registry maps entity keys to descriptors.
type Registry struct {
	mu            sync.RWMutex
	sealed        bool
	byKey         map[string]*Descriptor
	byType        map[reflect.Type]*Descriptor
	types         map[string][]entity.TypeValue
	collaborators map[string]Registration

	defaultRepo  RepositoryFactory
	defaultQuery QueryFactory
	log          *slog.Logger
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byKey:         make(map[string]*Descriptor),
		byType:        make(map[reflect.Type]*Descriptor),
		types:         make(map[string][]entity.TypeValue),
		collaborators: make(map[string]Registration),
		log:           slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With("component", "registry")
	return r
}

// Register adds a key. Duplicate keys fail with ErrDuplicateKey.
func (r *Registry) Register(reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", reg.Key, ErrSealed)
	}
	key := strings.TrimSpace(reg.Key)
	if key == "" {
		return fmt.Errorf("register: %w", domain.NewValidationError("key", "required"))
	}
	if _, dup := r.byKey[key]; dup {
		return fmt.Errorf("register %q: %w", key, ErrDuplicateKey)
	}

	d, err := r.describe(key, reg)
	if err != nil {
		return fmt.Errorf("register %q: %w", key, err)
	}

	r.byKey[key] = d
	if _, ok := r.byType[d.EntityType]; !ok {
		r.byType[d.EntityType] = d
	}
	r.log.Debug("entity registered",
		slog.String("key", key),
		slog.String("entity", d.EntityType.String()),
		slog.String("table", d.Table),
		slog.Bool("searchable", d.QueryBuilder != nil),
	)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

// Discover registers every prototype implementing entity.Configured under
// its declared key. Other values are skipped.
func (r *Registry) Discover(protos ...any) error {
	for _, p := range protos {
		c, ok := p.(entity.Configured)
		if !ok {
			r.log.Debug("discover: skipping unconfigured type", slog.String("type", fmt.Sprintf("%T", p)))
			continue
		}
		cfg := c.CRUDConfig()

		rules := make([]security.Rule, 0, len(cfg.Security))
		for _, sr := range cfg.Security {
			op, err := security.ParseOperation(sr.Operation)
			if err != nil {
				return fmt.Errorf("discover %q: %w", cfg.Key, err)
			}
			rules = append(rules, security.ParseRule(op, sr.Rule))
		}

		r.mu.RLock()
		reg := r.collaborators[cfg.Key]
		r.mu.RUnlock()

		reg.Key = cfg.Key
		reg.Entity = p
		reg.DisableListAll = cfg.DisableListAll
		reg.Rules = rules
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	keys, types := len(r.byKey), len(r.types)
	r.mu.Unlock()
	r.log.Info("registry sealed", slog.Int("keys", keys), slog.Int("types", types))
}

// Resolve returns the descriptor of key, or domain.ErrUnknownKey.
func (r *Registry) Resolve(key string) (*Descriptor, error) {
	r.mu.RLock()
	d, ok := r.byKey[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, domain.ErrUnknownKey)
	}
	return d, nil
}

// ByType returns the first descriptor registered for the entity type.
// t may be the struct type or a pointer to it.
func (r *Registry) ByType(t reflect.Type) (*Descriptor, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	r.mu.RLock()
	d, ok := r.byType[t]
	r.mu.RUnlock()
	return d, ok
}

// StoreFor returns the store serving the entity type.
func (r *Registry) StoreFor(t reflect.Type) (repository.Store, error) {
	d, ok := r.ByType(t)
	if !ok {
		return nil, fmt.Errorf("no repository for %s: %w", t, domain.ErrUnknownKey)
	}
	return d.Repository, nil
}

// PolicyFor returns the security policy of key.
func (r *Registry) PolicyFor(key string) (*security.Policy, error) {
	d, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	return d.Policy, nil
}

// Keys returns every registered key, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

func (r *Registry) describe(key string, reg Registration) (*Descriptor, error) {
	et := reflect.TypeOf(reg.Entity)
	if et == nil {
		return nil, domain.NewValidationError("entity", "prototype required")
	}
	if et.Kind() != reflect.Pointer {
		et = reflect.PointerTo(et)
	}
	if !et.Implements(reflect.TypeOf((*entity.Labeled)(nil)).Elem()) {
		return nil, fmt.Errorf("%s does not implement entity.Entity", et)
	}
	s, err := schema.Of(et)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Key:            key,
		EntityType:     et,
		Table:          tableName(et, reg.Table),
		Schema:         s,
		Builder:        reg.Builder,
		DisableListAll: reg.DisableListAll,
		Policy:         security.NewPolicy(reg.Rules...),
	}

	if reg.Form != nil {
		ft := pointerType(reg.Form)
		if m, ok := ft.MethodByName("GetID"); !ok || m.Type.NumOut() != 1 {
			return nil, fmt.Errorf("form %s has no GetID method", ft)
		}
		d.FormType = ft
	}

	d.Repository = reg.Repository
	if d.Repository == nil {
		if r.defaultRepo == nil {
			return nil, fmt.Errorf("no repository and no default factory: %w", domain.ErrNotImplemented)
		}
		if d.Repository, err = r.defaultRepo(r, s, d.Table); err != nil {
			return nil, fmt.Errorf("default repository: %w", err)
		}
	}
	if d.Repository.EntityType() != et {
		return nil, fmt.Errorf("repository serves %s, want %s", d.Repository.EntityType(), et)
	}

	if reg.Filter != nil {
		d.FilterType = pointerType(reg.Filter)
		if !d.FilterType.Implements(reflect.TypeOf((*query.Filterer)(nil)).Elem()) {
			return nil, fmt.Errorf("filter %s does not embed query.Filter", d.FilterType)
		}
	}
	switch {
	case reg.QueryBuilder != nil:
		if d.FilterType != nil && d.FilterType != reg.QueryBuilder.FilterType() {
			return nil, fmt.Errorf("query builder expects %s, filter is %s", reg.QueryBuilder.FilterType(), d.FilterType)
		}
		d.QueryBuilder = reg.QueryBuilder
		d.FilterType = reg.QueryBuilder.FilterType()
	case d.FilterType != nil && r.defaultQuery != nil:
		if d.QueryBuilder, err = r.defaultQuery(r, s, d.Table, d.FilterType); err != nil {
			return nil, fmt.Errorf("default query builder: %w", err)
		}
	}

	return d, nil
}

type tableNamer interface {
	TableName() string
}

func tableName(et reflect.Type, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if tn, ok := reflect.New(et.Elem()).Interface().(tableNamer); ok {
		return tn.TableName()
	}
	return schema.SnakeCase(et.Elem().Name())
}

func pointerType(proto any) reflect.Type {
	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	return t
}

func newOf(t reflect.Type) any {
	return reflect.New(t.Elem()).Interface()
}

// Package entitystore persists schema-described entities in PostgreSQL.
//
// Every stored field maps to a column of the entity's table. A to-one
// reference is stored as the referenced identifier, an owned collection in
// the child table (through the child's back reference column) and a linked
// collection in a link table. References come back from Get as identifier
// stubs; GetEagerLoaded replaces them with full rows and loads collections.
package entitystore

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"github.com/crudzilla/crudzilla/internal/adapter/postgres"
	"github.com/crudzilla/crudzilla/internal/eager"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Mapper creates the stores of one database and indexes them by entity
// type, so that cascades and eager loading reach the store of a related type.
type Mapper struct {
	log    *slog.Logger
	db     postgres.Querier
	tx     txRunner
	walker *eager.Walker

	mu     sync.RWMutex
	stores map[reflect.Type]*Store
}

// NewMapper creates a Mapper. tx may be nil, in which case writes only join a
// transaction already carried by the context.
func NewMapper(log *slog.Logger, db postgres.Querier, tx txRunner, walker *eager.Walker) *Mapper {
	if walker == nil {
		walker = eager.New()
	}
	return &Mapper{
		log:    log.With("component", "entitystore"),
		db:     db,
		tx:     tx,
		walker: walker,
		stores: make(map[reflect.Type]*Store),
	}
}

// Factory is the registry's default repository factory.
func (m *Mapper) Factory(_ repository.Locator, s *schema.Schema, table string) (repository.Store, error) {
	return m.newStore(s, table)
}

func (m *Mapper) newStore(s *schema.Schema, table string) (*Store, error) {
	et := reflect.PointerTo(s.Type)

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.stores[et]; ok {
		if st.table != table {
			return nil, fmt.Errorf("%s is already stored in %q", s.Type.Name(), st.table)
		}
		return st, nil
	}

	st := &Store{
		m:       m,
		s:       s,
		table:   table,
		et:      et,
		kt:      deref(s.ID.Type),
		stored:  s.Stored(),
		refKeys: make(map[string]reflect.Type),
	}
	for _, f := range s.Relations(schema.ToOne) {
		ts, err := schema.Of(f.Target)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Type.Name(), f.Name, err)
		}
		st.refKeys[f.Name] = deref(ts.ID.Type)
	}
	m.stores[et] = st
	return st, nil
}

func (m *Mapper) storeFor(t reflect.Type) (*Store, error) {
	if t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	m.mu.RLock()
	st, ok := m.stores[t]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("entitystore: no table mapped for %s", t)
	}
	return st, nil
}

func (m *Mapper) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.tx == nil {
		return fn(ctx)
	}
	return m.tx.RunInTx(ctx, fn)
}

func deref(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

func identify(e any) (any, bool) {
	id, err := entity.FormID(e)
	if err != nil || id == nil {
		return nil, false
	}
	return id, true
}

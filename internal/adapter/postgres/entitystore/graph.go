package entitystore

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/schema"
)

const (
	maxBatch  = 100
	batchWait = 2 * time.Millisecond
)

type rowKey struct {
	t  reflect.Type
	id any
}

// graph materializes one entity graph. Every full row it reads is interned
// by (type, id): a reference to an entity already in the graph is pointed at
// that row, so cyclic references end in the walker's visited set instead of
// another query. References are fetched in batches per target store.
type graph struct {
	m    *Mapper
	rows map[rowKey]reflect.Value

	// batches share the connection carried by the context
	mu sync.Mutex
}

func newGraph(m *Mapper) *graph {
	return &graph{m: m, rows: make(map[rowKey]reflect.Value)}
}

// intern returns the graph's row for ptr's (type, id), registering ptr when
// it is the first one seen.
func (g *graph) intern(ptr reflect.Value) reflect.Value {
	st, err := g.m.storeFor(ptr.Type())
	if err != nil {
		return ptr
	}
	id, ok := st.Identify(ptr.Interface())
	if !ok {
		return ptr
	}
	key := rowKey{st.et, id}
	if row, ok := g.rows[key]; ok {
		return row
	}
	g.rows[key] = ptr
	return ptr
}

// visit is the walker callback: it resolves ptr's references and loads its
// unloaded collections.
func (g *graph) visit(ctx context.Context, ptr reflect.Value) error {
	st, err := g.m.storeFor(ptr.Type())
	if err != nil {
		return nil
	}
	id, ok := st.Identify(ptr.Interface())
	if !ok {
		return nil
	}
	if err := g.resolveRefs(ctx, []reflect.Value{ptr}); err != nil {
		return err
	}

	ev := ptr.Elem()
	for _, f := range st.s.Fields {
		if f.Relation != schema.Owned && f.Relation != schema.Linked {
			continue
		}
		fv := ev.FieldByIndex(f.Index)
		if !fv.IsNil() {
			continue
		}

		switch f.Relation {
		case schema.Owned:
			cs, err := g.m.storeFor(f.Target)
			if err != nil {
				return err
			}
			back, ok := cs.backRef(f)
			if !ok || !ptr.Type().AssignableTo(back.Type) {
				g.m.log.DebugContext(ctx, "owned collection without back reference column",
					slog.String("entity", st.name()), slog.String("field", f.Name))
				continue
			}
			found, err := cs.SelectWhere(ctx, sq.Eq{back.Column: id})
			if err != nil {
				return fmt.Errorf("%s.%s: %w", st.name(), f.Name, err)
			}
			children := g.collect(fv, found)
			for _, c := range children {
				c.Elem().FieldByIndex(back.Index).Set(ptr)
			}
			if err := g.resolveRefs(ctx, children); err != nil {
				return err
			}

		case schema.Linked:
			ts, err := g.m.storeFor(f.Target)
			if err != nil {
				return err
			}
			found, err := ts.SelectWhere(ctx, sq.Expr(
				ts.s.ID.Column+" IN (SELECT "+f.TargetColumn+" FROM "+f.LinkTable+" WHERE "+f.OwnerColumn+" = ?)", id))
			if err != nil {
				return fmt.Errorf("%s.%s: %w", st.name(), f.Name, err)
			}
			g.collect(fv, found)
		}
	}
	return nil
}

// collect interns rows and stores them in the slice field fv.
func (g *graph) collect(fv reflect.Value, rows []any) []reflect.Value {
	out := reflect.MakeSlice(fv.Type(), 0, len(rows))
	interned := make([]reflect.Value, 0, len(rows))
	for _, r := range rows {
		rv := g.intern(reflect.ValueOf(r))
		interned = append(interned, rv)
		out = reflect.Append(out, rv)
	}
	fv.Set(out)
	return interned
}

type pendingRef struct {
	field reflect.Value
	key   rowKey
	path  string
}

// resolveRefs points every to-one reference of owners at its full row. Rows
// already in the graph are reused; the rest are loaded with one batch per
// target store.
func (g *graph) resolveRefs(ctx context.Context, owners []reflect.Value) error {
	var (
		pending []pendingRef
		stores  []*Store
		wanted  = make(map[*Store][]any)
		queued  = make(map[rowKey]bool)
	)
	for _, owner := range owners {
		ost, err := g.m.storeFor(owner.Type())
		if err != nil {
			continue
		}
		for _, f := range ost.s.Relations(schema.ToOne) {
			fv := owner.Elem().FieldByIndex(f.Index)
			if fv.IsNil() {
				continue
			}
			ts, err := g.m.storeFor(f.Target)
			if err != nil {
				return err
			}
			refID, ok := ts.Identify(fv.Interface())
			if !ok {
				continue
			}
			key := rowKey{ts.et, refID}
			if row, ok := g.rows[key]; ok {
				fv.Set(row)
				continue
			}
			if !queued[key] {
				queued[key] = true
				if _, seen := wanted[ts]; !seen {
					stores = append(stores, ts)
				}
				wanted[ts] = append(wanted[ts], refID)
			}
			pending = append(pending, pendingRef{field: fv, key: key, path: ost.name() + "." + f.Name})
		}
	}

	for _, ts := range stores {
		if err := g.load(ctx, ts, wanted[ts]); err != nil {
			return err
		}
	}
	for _, p := range pending {
		row, ok := g.rows[p.key]
		if !ok {
			return fmt.Errorf("%s: %v: %w", p.path, p.key.id, domain.ErrNotFound)
		}
		p.field.Set(row)
	}
	return nil
}

// load fetches the rows of ids from ts and interns them.
func (g *graph) load(ctx context.Context, ts *Store, ids []any) error {
	loader := dataloader.NewBatchedLoader(g.batchFn(ts),
		dataloader.WithWait[any, any](batchWait),
		dataloader.WithBatchCapacity[any, any](min(len(ids), maxBatch)),
	)
	rows, errs := loader.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for _, r := range rows {
		if r != nil {
			g.intern(reflect.ValueOf(r))
		}
	}
	return nil
}

func (g *graph) batchFn(ts *Store) dataloader.BatchFunc[any, any] {
	return func(ctx context.Context, keys []any) []*dataloader.Result[any] {
		g.mu.Lock()
		found, err := ts.SelectWhere(ctx, sq.Eq{ts.s.ID.Column: keys})
		g.mu.Unlock()

		results := make([]*dataloader.Result[any], len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[any]{Error: err}
			}
			return results
		}
		byID := make(map[any]any, len(found))
		for _, r := range found {
			id, _ := ts.Identify(r)
			byID[id] = r
		}
		for i, k := range keys {
			if r, ok := byID[k]; ok {
				results[i] = &dataloader.Result[any]{Data: r}
			} else {
				results[i] = &dataloader.Result[any]{Error: fmt.Errorf("%s %v: %w", ts.name(), k, domain.ErrNotFound)}
			}
		}
		return results
	}
}

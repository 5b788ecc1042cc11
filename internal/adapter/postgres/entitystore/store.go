package entitystore

import (
	"context"
	"fmt"
	"reflect"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/crudzilla/crudzilla/internal/adapter/postgres"
	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

// Store is the repository.Store of one entity table. GetByTerm,
// GetByTermActive and GetByIDs are not implemented; override them with a
// Repo.
type Store struct {
	m       *Mapper
	s       *schema.Schema
	table   string
	et, kt  reflect.Type
	stored  []*schema.Field
	refKeys map[string]reflect.Type // to-one field name -> referenced key type
}

var _ repository.Store = (*Store)(nil)

func (st *Store) EntityType() reflect.Type { return st.et }
func (st *Store) KeyType() reflect.Type    { return st.kt }
func (st *Store) Table() string            { return st.table }

func (st *Store) New() any { return reflect.New(st.s.Type).Interface() }

func (st *Store) Identify(e any) (any, bool) { return identify(e) }

func (st *Store) ConvertID(raw string) (any, error) {
	return repository.ParseIDOf(st.kt, raw)
}

// Conn returns the transaction carried by ctx, or the pool.
func (st *Store) Conn(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, st.m.db)
}

func (st *Store) name() string { return st.s.Type.Name() }

// Columns returns the identifier column followed by the stored columns, in
// scan order.
func (st *Store) Columns() []string {
	cols := make([]string, 0, len(st.stored)+1)
	cols = append(cols, st.s.ID.Column)
	for _, f := range st.stored {
		cols = append(cols, f.Column)
	}
	return cols
}

// SelectBuilder returns the base SELECT of the table's columns.
func (st *Store) SelectBuilder() sq.SelectBuilder {
	return psql.Select(st.Columns()...).From(st.table)
}

func (st *Store) Get(ctx context.Context, id any) (any, error) {
	k, err := repository.CoerceIDOf(st.kt, id)
	if err != nil {
		return nil, err
	}
	found, err := st.SelectWhere(ctx, sq.Eq{st.s.ID.Column: k})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%s %v: %w", st.name(), k, domain.ErrNotFound)
	}
	return found[0], nil
}

func (st *Store) GetEagerLoaded(ctx context.Context, id any) (any, error) {
	e, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	g := newGraph(st.m)
	root := g.intern(reflect.ValueOf(e))
	err = st.m.walker.Walk(ctx, root.Interface(), g.visit)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (st *Store) GetAll(ctx context.Context) ([]any, error) {
	return st.SelectWhere(ctx, nil)
}

// Remove deletes one row. Owned children and link rows go with it through
// ON DELETE CASCADE foreign keys.
func (st *Store) Remove(ctx context.Context, id any) error {
	k, err := repository.CoerceIDOf(st.kt, id)
	if err != nil {
		return err
	}
	n, err := st.deleteWhere(ctx, sq.Eq{st.s.ID.Column: k})
	if err != nil {
		return postgres.MapError(err, st.name(), k)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", st.name(), k, domain.ErrNotFound)
	}
	return nil
}

func (st *Store) RemoveByIDs(ctx context.Context, ids []any) error {
	if len(ids) == 0 {
		return nil
	}
	keys, err := st.coerce(ids)
	if err != nil {
		return err
	}
	if _, err := st.deleteWhere(ctx, sq.Eq{st.s.ID.Column: keys}); err != nil {
		return postgres.MapError(err, st.name(), keys)
	}
	return nil
}

// Put validates e, then inserts it (nil identifier, the generated key is set
// on e) or updates it. Loaded owned and linked collections are rewritten in
// the same transaction.
func (st *Store) Put(ctx context.Context, e any) (any, error) {
	v := reflect.ValueOf(e)
	if v.Type() != st.et || v.IsNil() {
		return nil, fmt.Errorf("put: %T is not %s", e, st.et)
	}
	if err := repository.Validate(e); err != nil {
		return nil, err
	}
	if err := st.m.runInTx(ctx, func(ctx context.Context) error { return st.put(ctx, v) }); err != nil {
		return nil, err
	}
	return e, nil
}

func (st *Store) GetByTerm(context.Context, string) ([]any, error) {
	return nil, fmt.Errorf("%s get by term: %w", st.name(), domain.ErrNotImplemented)
}

func (st *Store) GetByTermActive(context.Context, string) ([]any, error) {
	return nil, fmt.Errorf("%s get by term (active): %w", st.name(), domain.ErrNotImplemented)
}

func (st *Store) GetByIDs(context.Context, []any) ([]any, error) {
	return nil, fmt.Errorf("%s get by ids: %w", st.name(), domain.ErrNotImplemented)
}

func (st *Store) Projection(_ context.Context, name string, _ []byte) (any, error) {
	return nil, fmt.Errorf("projection %q: %w", name, domain.ErrProjectionNotFound)
}

// SelectWhere returns the rows matching pred (every row when nil), ordered by
// orderBy or else by identifier.
func (st *Store) SelectWhere(ctx context.Context, pred sq.Sqlizer, orderBy ...string) ([]any, error) {
	q := st.SelectBuilder()
	if pred != nil {
		q = q.Where(pred)
	}
	if len(orderBy) == 0 {
		orderBy = []string{st.s.ID.Column}
	}
	return st.Select(ctx, q.OrderBy(orderBy...))
}

// Select runs q, which must select Columns in order, and scans entities.
func (st *Store) Select(ctx context.Context, q sq.SelectBuilder) ([]any, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s select: %w", st.name(), err)
	}
	rows, err := st.Conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, postgres.MapError(err, st.name(), nil)
	}
	found, err := st.scan(rows)
	if err != nil {
		return nil, postgres.MapError(err, st.name(), nil)
	}
	return found, nil
}

// CountWhere counts the rows matching pred (every row when nil).
func (st *Store) CountWhere(ctx context.Context, pred sq.Sqlizer) (int64, error) {
	q := psql.Select("COUNT(*)").From(st.table)
	if pred != nil {
		q = q.Where(pred)
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", st.name(), err)
	}
	var n int64
	if err := st.Conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, st.name(), nil)
	}
	return n, nil
}

// FindByIDs returns the rows with the given identifiers ordered by id,
// which is the table's natural order. Absent identifiers are skipped.
func (st *Store) FindByIDs(ctx context.Context, ids []any) ([]any, error) {
	if len(ids) == 0 {
		return []any{}, nil
	}
	keys, err := st.coerce(ids)
	if err != nil {
		return nil, err
	}
	return st.SelectWhere(ctx, sq.Eq{st.s.ID.Column: keys})
}

func (st *Store) coerce(ids []any) ([]any, error) {
	keys := make([]any, 0, len(ids))
	for _, id := range ids {
		k, err := repository.CoerceIDOf(st.kt, id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (st *Store) scan(rows pgx.Rows) ([]any, error) {
	defer rows.Close()

	out := []any{}
	for rows.Next() {
		ptr := reflect.New(st.s.Type)
		ev := ptr.Elem()
		id := reflect.New(st.kt)
		dest := []any{id.Interface()}
		var refs []func()

		for _, f := range st.stored {
			fv := ev.FieldByIndex(f.Index)
			if f.Relation != schema.ToOne {
				dest = append(dest, fv.Addr().Interface())
				continue
			}
			ref := reflect.New(reflect.PointerTo(st.refKeys[f.Name]))
			dest = append(dest, ref.Interface())
			refs = append(refs, func() {
				if ref.Elem().IsNil() {
					return
				}
				stub := reflect.New(f.Target.Elem())
				setID(stub, ref.Elem().Elem())
				fv.Set(stub)
			})
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", st.name(), err)
		}
		setID(ptr, id.Elem())
		for _, r := range refs {
			r()
		}
		out = append(out, ptr.Interface())
	}
	return out, rows.Err()
}

func (st *Store) put(ctx context.Context, v reflect.Value) error {
	cols, vals, err := st.values(v)
	if err != nil {
		return err
	}

	id, persisted := st.Identify(v.Interface())
	if persisted {
		if err := st.update(ctx, id, cols, vals); err != nil {
			return err
		}
	} else {
		if id, err = st.insert(ctx, v, cols, vals); err != nil {
			return err
		}
	}

	if err := st.putOwned(ctx, v, id); err != nil {
		return err
	}
	return st.putLinked(ctx, v, id)
}

func (st *Store) values(v reflect.Value) ([]string, []any, error) {
	cols := make([]string, 0, len(st.stored))
	vals := make([]any, 0, len(st.stored))
	for _, f := range st.stored {
		fv := v.Elem().FieldByIndex(f.Index)
		cols = append(cols, f.Column)

		switch f.Relation {
		case schema.ToOne:
			if fv.IsNil() {
				vals = append(vals, nil)
				continue
			}
			refID, ok := identify(fv.Interface())
			if !ok {
				return nil, nil, domain.NewValidationError(f.Name, "referenced entity is not persisted")
			}
			vals = append(vals, refID)
		case schema.Values:
			if fv.IsNil() {
				fv = reflect.MakeSlice(fv.Type(), 0, 0)
			}
			vals = append(vals, fv.Interface())
		default:
			vals = append(vals, fv.Interface())
		}
	}
	return cols, vals, nil
}

func (st *Store) insert(ctx context.Context, v reflect.Value, cols []string, vals []any) (any, error) {
	var (
		sqlStr string
		args   []any
		err    error
	)
	if len(cols) == 0 {
		sqlStr = "INSERT INTO " + st.table + " DEFAULT VALUES RETURNING " + st.s.ID.Column
	} else {
		sqlStr, args, err = psql.Insert(st.table).
			Columns(cols...).
			Values(vals...).
			Suffix("RETURNING " + st.s.ID.Column).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build %s insert: %w", st.name(), err)
		}
	}

	id := reflect.New(st.kt)
	if err := st.Conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(id.Interface()); err != nil {
		return nil, postgres.MapError(err, st.name(), "new")
	}
	setID(v, id.Elem())
	return id.Elem().Interface(), nil
}

func (st *Store) update(ctx context.Context, id any, cols []string, vals []any) error {
	if len(cols) == 0 {
		n, err := st.CountWhere(ctx, sq.Eq{st.s.ID.Column: id})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s %v: %w", st.name(), id, domain.ErrNotFound)
		}
		return nil
	}

	q := psql.Update(st.table)
	for i, c := range cols {
		q = q.Set(c, vals[i])
	}
	sqlStr, args, err := q.Where(sq.Eq{st.s.ID.Column: id}).ToSql()
	if err != nil {
		return fmt.Errorf("build %s update: %w", st.name(), err)
	}
	tag, err := st.Conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return postgres.MapError(err, st.name(), id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %v: %w", st.name(), id, domain.ErrNotFound)
	}
	return nil
}

// putOwned stores every child of each loaded owned collection and deletes
// the children no longer in it.
func (st *Store) putOwned(ctx context.Context, v reflect.Value, id any) error {
	for _, f := range st.s.Relations(schema.Owned) {
		children := v.Elem().FieldByIndex(f.Index)
		if children.IsNil() {
			continue
		}
		cs, err := st.m.storeFor(f.Target)
		if err != nil {
			return err
		}
		back, ok := cs.backRef(f)
		if !ok || !v.Type().AssignableTo(back.Type) {
			return fmt.Errorf("%s.%s: owned collection needs a back reference to %s stored in %s", st.name(), f.Name, st.name(), cs.table)
		}

		kept := make([]any, 0, children.Len())
		for i := 0; i < children.Len(); i++ {
			child := children.Index(i)
			if child.IsNil() {
				continue
			}
			child.Elem().FieldByIndex(back.Index).Set(v)
			if err := repository.Validate(child.Interface()); err != nil {
				return fmt.Errorf("%s.%s[%d]: %w", st.name(), f.Name, i, err)
			}
			if err := cs.put(ctx, child); err != nil {
				return fmt.Errorf("%s.%s[%d]: %w", st.name(), f.Name, i, err)
			}
			childID, _ := cs.Identify(child.Interface())
			kept = append(kept, childID)
		}

		orphans := sq.And{sq.Eq{back.Column: id}}
		if len(kept) > 0 {
			orphans = append(orphans, sq.NotEq{cs.s.ID.Column: kept})
		}
		if _, err := cs.deleteWhere(ctx, orphans); err != nil {
			return postgres.MapError(err, cs.name(), id)
		}
	}
	return nil
}

// putLinked rewrites the link rows of each loaded linked collection,
// preserving its order.
func (st *Store) putLinked(ctx context.Context, v reflect.Value, id any) error {
	for _, f := range st.s.Relations(schema.Linked) {
		linked := v.Elem().FieldByIndex(f.Index)
		if linked.IsNil() {
			continue
		}

		sqlStr, args, err := psql.Delete(f.LinkTable).Where(sq.Eq{f.OwnerColumn: id}).ToSql()
		if err != nil {
			return fmt.Errorf("build %s unlink: %w", f.LinkTable, err)
		}
		if _, err := st.Conn(ctx).Exec(ctx, sqlStr, args...); err != nil {
			return postgres.MapError(err, st.name(), id)
		}
		if linked.Len() == 0 {
			continue
		}

		ins := psql.Insert(f.LinkTable).Columns(f.OwnerColumn, f.TargetColumn)
		for i := 0; i < linked.Len(); i++ {
			targetID, ok := identify(linked.Index(i).Interface())
			if !ok {
				return domain.NewValidationError(f.Name, fmt.Sprintf("entry %d is not persisted", i))
			}
			ins = ins.Values(id, targetID)
		}
		if sqlStr, args, err = ins.ToSql(); err != nil {
			return fmt.Errorf("build %s link: %w", f.LinkTable, err)
		}
		if _, err := st.Conn(ctx).Exec(ctx, sqlStr, args...); err != nil {
			return postgres.MapError(err, st.name(), id)
		}
	}
	return nil
}

func (st *Store) deleteWhere(ctx context.Context, pred sq.Sqlizer) (int64, error) {
	sqlStr, args, err := psql.Delete(st.table).Where(pred).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s delete: %w", st.name(), err)
	}
	tag, err := st.Conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// backRef returns the stored reference of this (child) store that points
// back to the owner of f.
func (st *Store) backRef(f *schema.Field) (*schema.Field, bool) {
	if f.BackRef == "" {
		return nil, false
	}
	back, ok := st.s.Lookup(f.BackRef)
	if !ok || back.Relation != schema.ToOne {
		return nil, false
	}
	return back, true
}

func setID(ptr, id reflect.Value) {
	ptr.MethodByName("SetID").Call([]reflect.Value{id})
}

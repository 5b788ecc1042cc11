package memory

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/query"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

// Searcher filters the rows of a Store by equality on every set filter field
// that names an entity field, then orders and pages them. The store is
// resolved on each search because searchers are created while the registry
// is still being populated.
type Searcher struct {
	loc repository.Locator
	s   *schema.Schema
	ft  reflect.Type
}

// QueryFactory is the registry's default query factory for the memory
// driver.
func QueryFactory(loc repository.Locator, s *schema.Schema, _ string, ft reflect.Type) (query.Searcher, error) {
	return &Searcher{loc: loc, s: s, ft: ft}, nil
}

func (q *Searcher) FilterType() reflect.Type { return q.ft }

func (q *Searcher) Search(ctx context.Context, filter any) (query.Result[any], error) {
	f, ok := filter.(query.Filterer)
	if !ok || reflect.TypeOf(filter) != q.ft {
		return query.Result[any]{}, fmt.Errorf("%w: %T, want %s", domain.ErrFilterTypeNotFound, filter, q.ft)
	}
	base := f.Base()
	base.Normalize()

	store, err := q.loc.StoreFor(reflect.PointerTo(q.s.Type))
	if err != nil {
		return query.Result[any]{}, err
	}
	all, err := store.GetAll(ctx)
	if err != nil {
		return query.Result[any]{}, err
	}

	criteria := query.Criteria(filter, q.s)
	rows := slices.DeleteFunc(all, func(e any) bool {
		v := reflect.ValueOf(e).Elem()
		for _, c := range criteria {
			if !matches(fieldValue(v, c.Field), c.Values) {
				return true
			}
		}
		return false
	})

	sortBy := query.SortField(q.s, base.SortColumn)
	slices.SortStableFunc(rows, func(a, b any) int {
		c := compare(fieldValue(reflect.ValueOf(a).Elem(), sortBy), fieldValue(reflect.ValueOf(b).Elem(), sortBy))
		if base.SortDirection == query.DESC {
			return -c
		}
		return c
	})

	total := int64(len(rows))
	if base.Paged() {
		start := min(base.Offset, len(rows))
		end := min(start+base.PageSize, len(rows))
		rows = rows[start:end]
	}
	return query.NewResult(rows, total), nil
}

// fieldValue returns the comparable value of f: the dereferenced scalar, or
// the identifier of a referenced entity. Absent values are invalid.
func fieldValue(v reflect.Value, f *schema.Field) reflect.Value {
	fv := v.FieldByIndex(f.Index)
	if f.Relation == schema.ToOne {
		if fv.IsNil() {
			return reflect.Value{}
		}
		id, err := entity.FormID(fv.Interface())
		if err != nil || id == nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(id)
	}
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return reflect.Value{}
		}
		fv = fv.Elem()
	}
	return fv
}

func matches(v reflect.Value, want []any) bool {
	if !v.IsValid() {
		return false
	}
	for _, w := range want {
		wv := reflect.ValueOf(w)
		if wv.Type() != v.Type() {
			if !wv.Type().ConvertibleTo(v.Type()) || isString(wv) != isString(v) {
				continue
			}
			wv = wv.Convert(v.Type())
		}
		if wv.Equal(v) {
			return true
		}
	}
	return false
}

// compare orders absent values first.
func compare(a, b reflect.Value) int {
	switch {
	case !a.IsValid() && !b.IsValid():
		return 0
	case !a.IsValid():
		return -1
	case !b.IsValid():
		return 1
	}
	if ta, ok := a.Interface().(time.Time); ok {
		return ta.Compare(b.Interface().(time.Time))
	}
	switch {
	case a.CanInt():
		return cmp.Compare(a.Int(), b.Int())
	case a.CanUint():
		return cmp.Compare(a.Uint(), b.Uint())
	case a.CanFloat():
		return cmp.Compare(a.Float(), b.Float())
	case a.Kind() == reflect.String:
		return cmp.Compare(a.String(), b.String())
	case a.Kind() == reflect.Bool:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

func isString(v reflect.Value) bool { return v.Kind() == reflect.String }

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

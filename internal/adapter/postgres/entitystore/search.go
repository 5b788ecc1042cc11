package entitystore

import (
	"context"
	"fmt"
	"reflect"

	sq "github.com/Masterminds/squirrel"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/query"
	"github.com/crudzilla/crudzilla/internal/repository"
	"github.com/crudzilla/crudzilla/internal/schema"
)

// Searcher is the default query builder: rows are the entities themselves,
// filtered by equality on every set filter field naming a stored field.
type Searcher struct {
	m  *Mapper
	s  *schema.Schema
	ft reflect.Type
}

// QueryFactory is the registry's default query factory.
func (m *Mapper) QueryFactory(_ repository.Locator, s *schema.Schema, _ string, ft reflect.Type) (query.Searcher, error) {
	return &Searcher{m: m, s: s, ft: ft}, nil
}

func (q *Searcher) FilterType() reflect.Type { return q.ft }

// Search counts over the same predicate it pages, so the count never depends
// on offset or page size.
func (q *Searcher) Search(ctx context.Context, filter any) (query.Result[any], error) {
	f, ok := filter.(query.Filterer)
	if !ok || reflect.TypeOf(filter) != q.ft {
		return query.Result[any]{}, fmt.Errorf("%w: %T, want %s", domain.ErrFilterTypeNotFound, filter, q.ft)
	}
	base := f.Base()
	base.Normalize()

	st, err := q.m.storeFor(q.s.Type)
	if err != nil {
		return query.Result[any]{}, err
	}

	var pred sq.Sqlizer
	if criteria := query.Criteria(filter, q.s); len(criteria) > 0 {
		and := make(sq.And, 0, len(criteria))
		for _, c := range criteria {
			if len(c.Values) == 1 {
				and = append(and, sq.Eq{c.Field.Column: c.Values[0]})
			} else {
				and = append(and, sq.Eq{c.Field.Column: c.Values})
			}
		}
		pred = and
	}

	total, err := st.CountWhere(ctx, pred)
	if err != nil {
		return query.Result[any]{}, err
	}

	page := st.SelectBuilder()
	if pred != nil {
		page = page.Where(pred)
	}
	page = page.OrderBy(query.SortField(q.s, base.SortColumn).Column + " " + string(base.SortDirection))
	if base.Paged() {
		page = page.Limit(uint64(base.PageSize)).Offset(uint64(base.Offset))
	}

	rows, err := st.Select(ctx, page)
	if err != nil {
		return query.Result[any]{}, err
	}
	return query.NewResult(rows, total), nil
}

package query

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/crudzilla/crudzilla/internal/domain"
)

// Querier is the subset of pgx used to run search queries. Both pgxpool.Pool
// and pgx.Tx satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnFunc resolves the Querier for the current call, typically the
// transaction carried by ctx or the pool.
type ConnFunc func(ctx context.Context) Querier

// Builder supplies the entity-specific parts of a search.
type Builder[F Filterer, T any] interface {
	// CreateQuery returns the base SELECT with every predicate applied and
	// no ordering or paging.
	CreateQuery(f F) sq.SelectBuilder
	// OrderByExpression maps a client sort column to a SQL expression. It must
	// return a default expression for unknown or empty columns.
	OrderByExpression(column string) string
}

// PostProcessor is optionally implemented by a Builder to adjust a fetched page.
type PostProcessor[T any] interface {
	PostProcess(ctx context.Context, rows []T) ([]T, error)
}

// Searcher is the type-erased search entry point used by the registry.
type Searcher interface {
	FilterType() reflect.Type
	Search(ctx context.Context, filter any) (Result[any], error)
}

// Engine runs the fixed search pipeline for one builder.
type Engine[F Filterer, T any] struct {
	conn    ConnFunc
	builder Builder[F, T]
	log     *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine[F Filterer, T any](log *slog.Logger, conn ConnFunc, b Builder[F, T]) *Engine[F, T] {
	return &Engine[F, T]{
		conn:    conn,
		builder: b,
		log:     log.With("component", "query"),
	}
}

// Build runs: base query, count over the base, order, page, fetch, post-process.
func (e *Engine[F, T]) Build(ctx context.Context, f F) (Result[T], error) {
	base := f.Base()
	base.Normalize()

	q := e.builder.CreateQuery(f)

	total, err := e.count(ctx, q)
	if err != nil {
		return Result[T]{}, err
	}

	dir := base.SortDirection
	if dir == "" {
		dir = ASC
	}
	page := q.PlaceholderFormat(sq.Dollar).
		OrderBy(e.builder.OrderByExpression(base.SortColumn) + " " + string(dir))
	if base.Paged() {
		page = page.Limit(uint64(base.PageSize)).Offset(uint64(base.Offset))
	}

	sqlStr, args, err := page.ToSql()
	if err != nil {
		return Result[T]{}, fmt.Errorf("build search query: %w", err)
	}

	var rows []T
	if err := pgxscan.Select(ctx, e.conn(ctx), &rows, sqlStr, args...); err != nil {
		return Result[T]{}, fmt.Errorf("search: %w", err)
	}

	if pp, ok := e.builder.(PostProcessor[T]); ok {
		if rows, err = pp.PostProcess(ctx, rows); err != nil {
			return Result[T]{}, fmt.Errorf("post-process: %w", err)
		}
	}

	e.log.DebugContext(ctx, "search executed",
		slog.String("filter", fmt.Sprintf("%T", f)),
		slog.Int64("count", total),
		slog.Int("rows", len(rows)),
	)

	return NewResult(rows, total), nil
}

func (e *Engine[F, T]) count(ctx context.Context, q sq.SelectBuilder) (int64, error) {
	// The subquery is rendered with '?' so the outer builder numbers every
	// argument exactly once.
	countSQL, args, err := sq.Select("COUNT(*)").
		FromSelect(q.PlaceholderFormat(sq.Question), "count_from_alias").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := e.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}

// FilterType returns the filter type the engine accepts.
func (e *Engine[F, T]) FilterType() reflect.Type {
	return reflect.TypeOf((*F)(nil)).Elem()
}

// Search implements Searcher.
func (e *Engine[F, T]) Search(ctx context.Context, filter any) (Result[any], error) {
	f, ok := filter.(F)
	if !ok {
		return Result[any]{}, fmt.Errorf("%w: %T, want %s", domain.ErrFilterTypeNotFound, filter, e.FilterType())
	}
	res, err := e.Build(ctx, f)
	if err != nil {
		return Result[any]{}, err
	}
	return res.Any(), nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/adapter/postgres"
	"github.com/crudzilla/crudzilla/internal/adapter/postgres/entitystore"
	"github.com/crudzilla/crudzilla/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func contains(term string) string { return "%" + term + "%" }

// CategoryRepo adds the autocomplete lookups to the default category store.
type CategoryRepo struct {
	*entitystore.Repo[*Category, int64]
}

func NewCategoryRepo(m *entitystore.Mapper) (*CategoryRepo, error) {
	r, err := entitystore.NewRepo[*Category, int64](m, "categories")
	if err != nil {
		return nil, err
	}
	return &CategoryRepo{Repo: r}, nil
}

func (r *CategoryRepo) GetByTerm(ctx context.Context, term string) ([]*Category, error) {
	return r.SelectWhere(ctx, sq.ILike{"name": contains(term)}, "name")
}

func (r *CategoryRepo) GetByTermActive(ctx context.Context, term string) ([]*Category, error) {
	return r.SelectWhere(ctx, sq.And{sq.ILike{"name": contains(term)}, sq.Eq{"active": true}}, "name")
}

func (r *CategoryRepo) GetByIDs(ctx context.Context, ids []int64) ([]*Category, error) {
	return r.FindByIDs(ctx, ids)
}

// TagRepo resolves tags by label and by id; products link tags by id.
type TagRepo struct {
	*entitystore.Repo[*Tag, int64]
}

func NewTagRepo(m *entitystore.Mapper) (*TagRepo, error) {
	r, err := entitystore.NewRepo[*Tag, int64](m, "tags")
	if err != nil {
		return nil, err
	}
	return &TagRepo{Repo: r}, nil
}

func (r *TagRepo) GetByTerm(ctx context.Context, term string) ([]*Tag, error) {
	return r.SelectWhere(ctx, sq.ILike{"label": contains(term)}, "label")
}

func (r *TagRepo) GetByIDs(ctx context.Context, ids []int64) ([]*Tag, error) {
	return r.FindByIDs(ctx, ids)
}

// ProductRepo adds lookups and the catalog projections to the default
// product store.
type ProductRepo struct {
	*entitystore.Repo[*Product, uuid.UUID]
}

func NewProductRepo(m *entitystore.Mapper) (*ProductRepo, error) {
	r, err := entitystore.NewRepo[*Product, uuid.UUID](m, "products")
	if err != nil {
		return nil, err
	}
	return &ProductRepo{Repo: r}, nil
}

// GetByTerm matches the name or an exact keyword.
func (r *ProductRepo) GetByTerm(ctx context.Context, term string) ([]*Product, error) {
	return r.SelectWhere(ctx, termPredicate(term), "name")
}

func (r *ProductRepo) GetByTermActive(ctx context.Context, term string) ([]*Product, error) {
	return r.SelectWhere(ctx, sq.And{termPredicate(term), sq.Eq{"active": true}}, "name")
}

func (r *ProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error) {
	return r.FindByIDs(ctx, ids)
}

func termPredicate(term string) sq.Sqlizer {
	return sq.Or{sq.ILike{"name": contains(term)}, sq.Expr("? = ANY(keywords)", term)}
}

// CategoryCount is one row of the CountByCategory projection.
type CategoryCount struct {
	CategoryID   *int64  `db:"category_id" json:"categoryId"`
	CategoryName *string `db:"category_name" json:"categoryName"`
	Products     int64   `db:"products" json:"products"`
}

// CountByCategory counts products per category. Uncategorized products are
// reported under a nil category.
func (r *ProductRepo) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	sqlStr, args, err := psql.
		Select("p.category_id", "c.name AS category_name", "COUNT(*) AS products").
		From("products p").
		LeftJoin("categories c ON c.id = p.category_id").
		GroupBy("p.category_id", "c.name").
		OrderBy("c.name NULLS LAST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by category: %w", err)
	}

	out := []CategoryCount{}
	if err := pgxscan.Select(ctx, r.Conn(ctx), &out, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, "Product", nil)
	}
	return out, nil
}

// LowStockRow is one row of the LowStock projection.
type LowStockRow struct {
	ProductID   uuid.UUID `db:"product_id" json:"productId"`
	ProductName string    `db:"product_name" json:"productName"`
	SKU         string    `db:"sku" json:"sku"`
	Stock       int       `db:"stock" json:"stock"`
}

type lowStockParams struct {
	Threshold *int `json:"threshold"`
}

const defaultLowStockThreshold = 5

// LowStock lists the variants whose stock is at or below the threshold
// parameter (default 5), lowest first.
func (r *ProductRepo) LowStock(ctx context.Context, params []byte) ([]LowStockRow, error) {
	threshold, err := decodeThreshold(params)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := psql.
		Select("p.id AS product_id", "p.name AS product_name", "v.sku", "v.stock").
		From("variants v").
		Join("products p ON p.id = v.product_id").
		Where(sq.LtOrEq{"v.stock": threshold}).
		OrderBy("v.stock", "v.sku").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build low stock: %w", err)
	}

	out := []LowStockRow{}
	if err := pgxscan.Select(ctx, r.Conn(ctx), &out, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, "Variant", nil)
	}
	return out, nil
}

// PriceStats summarizes active product prices.
type PriceStats struct {
	Products int64    `db:"products" json:"products"`
	Min      *float64 `db:"min_price" json:"min"`
	Max      *float64 `db:"max_price" json:"max"`
	Avg      *float64 `db:"avg_price" json:"avg"`
}

func (r *ProductRepo) PriceStats(ctx context.Context) (PriceStats, error) {
	sqlStr, args, err := psql.
		Select("COUNT(*) AS products", "MIN(price) AS min_price", "MAX(price) AS max_price", "AVG(price) AS avg_price").
		From("products").
		Where(sq.Eq{"active": true}).
		ToSql()
	if err != nil {
		return PriceStats{}, fmt.Errorf("build price stats: %w", err)
	}

	var out PriceStats
	if err := pgxscan.Get(ctx, r.Conn(ctx), &out, sqlStr, args...); err != nil {
		return PriceStats{}, postgres.MapError(err, "Product", nil)
	}
	return out, nil
}

func decodeThreshold(params []byte) (int, error) {
	if len(params) == 0 {
		return defaultLowStockThreshold, nil
	}
	var p lowStockParams
	if err := json.Unmarshal(params, &p); err != nil {
		return 0, fmt.Errorf("%w: low stock params: %v", domain.ErrDecode, err)
	}
	if p.Threshold == nil {
		return defaultLowStockThreshold, nil
	}
	if *p.Threshold < 0 {
		return 0, domain.NewValidationError("threshold", "must not be negative")
	}
	return *p.Threshold, nil
}

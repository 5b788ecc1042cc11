package catalog

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/query"
)

// ProductRow is one product search result. The optional columns are NULL
// unless selected through ProductFilter.Columns.
type ProductRow struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Price        float64   `db:"price" json:"price"`
	Active       bool      `db:"active" json:"active"`
	CategoryName *string   `db:"category_name" json:"categoryName,omitempty"`
	VariantCount *int64    `db:"variant_count" json:"variantCount,omitempty"`
	Stock        *int64    `db:"stock" json:"stock,omitempty"`
}

// ProductQuery is the postgres search builder of the product key.
type ProductQuery struct{}

var _ query.Builder[*ProductFilter, ProductRow] = ProductQuery{}

func (ProductQuery) CreateQuery(f *ProductFilter) sq.SelectBuilder {
	q := sq.Select(
		"p.id", "p.name", "p.price", "p.active",
		query.SelectIfChosen("category", f.Columns, "category_name", "c.name", query.NullText),
		query.SelectIfChosen("variants", f.Columns, "variant_count", "COUNT(v.id)", query.NullNumeric),
		query.SelectIfChosen("stock", f.Columns, "stock", "COALESCE(SUM(v.stock), 0)", query.NullNumeric),
	).From("products p")

	q = query.WhereIfNotBlank(q, f.Name, func(v string) sq.Sqlizer {
		return sq.ILike{"p.name": "%" + v + "%"}
	})
	q = query.WhereIfPresent(q, f.Category, func() sq.Sqlizer { return sq.Eq{"p.category_id": *f.Category} })
	q = query.WhereIfPresent(q, f.Active, func() sq.Sqlizer { return sq.Eq{"p.active": *f.Active} })
	q = query.WhereIfPresent(q, f.MinPrice, func() sq.Sqlizer { return sq.GtOrEq{"p.price": *f.MinPrice} })
	q = query.WhereIfPresent(q, f.MaxPrice, func() sq.Sqlizer { return sq.LtOrEq{"p.price": *f.MaxPrice} })
	if len(f.Tags) > 0 {
		q = q.Where(sq.Expr("p.id IN (SELECT pt.product_id FROM product_tags pt WHERE pt.tag_id = ANY(?))", f.Tags))
	}

	q = query.LeftJoinIfReferenced(q, "c", "categories c ON c.id = p.category_id")
	q = query.LeftJoinIfReferenced(q, "v", "variants v ON v.product_id = p.id")

	if query.ColumnSelected("variants", f.Columns) || query.ColumnSelected("stock", f.Columns) {
		q = q.GroupBy("p.id")
		q = query.GroupIfChosen(q, "category", f.Columns, "c.name")
	}
	return q
}

func (ProductQuery) OrderByExpression(column string) string {
	switch column {
	case "price":
		return "p.price"
	case "active":
		return "p.active"
	case "category":
		return "p.category_id"
	default:
		return "p.name"
	}
}

package catalog

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/adapter/postgres/entitystore"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/query"
	"github.com/crudzilla/crudzilla/internal/registry"
	"github.com/crudzilla/crudzilla/internal/repository"
)

const (
	AuthorityAdmin  = "ADMIN"
	AuthorityEditor = "EDITOR"

	// RuleEditors admits admins and editors.
	RuleEditors = `@len([for a in authorities if a == "ADMIN" || a == "EDITOR" {a}]) > 0`
)

// Enumerations served by the types endpoints.
const (
	TypesStockStatus = "stockStatus"
	TypesSortColumns = "productSort"
)

// Prototypes lists the catalog entity types, in registration order.
func Prototypes() []any {
	return []any{(*Category)(nil), (*Tag)(nil), (*Variant)(nil), (*Product)(nil)}
}

// Options returns the registry options that attach forms, filters and, for
// postgres, the repository overrides and the product search to the catalog
// keys. m is nil for the memory driver, which serves every key with its
// defaults.
func Options(log *slog.Logger, m *entitystore.Mapper, conn query.ConnFunc) ([]registry.Option, error) {
	category := registry.Registration{Form: (*CategoryForm)(nil), Filter: (*CategoryFilter)(nil)}
	tag := registry.Registration{Form: (*TagForm)(nil), Filter: (*TagFilter)(nil)}
	variant := registry.Registration{Form: (*VariantForm)(nil)}
	product := registry.Registration{Form: (*ProductForm)(nil), Filter: (*ProductFilter)(nil)}

	if m != nil {
		categories, err := NewCategoryRepo(m)
		if err != nil {
			return nil, err
		}
		tags, err := NewTagRepo(m)
		if err != nil {
			return nil, err
		}
		products, err := NewProductRepo(m)
		if err != nil {
			return nil, err
		}
		category.Repository = repository.Erase[*Category, int64](categories)
		tag.Repository = repository.Erase[*Tag, int64](tags)
		product.Repository = repository.Erase[*Product, uuid.UUID](products)
		product.QueryBuilder = query.NewEngine[*ProductFilter, ProductRow](log, conn, ProductQuery{})
	}

	return []registry.Option{
		registry.WithCollaborators("category", category),
		registry.WithCollaborators("tag", tag),
		registry.WithCollaborators("variant", variant),
		registry.WithCollaborators("product", product),
	}, nil
}

// Register discovers the catalog keys and adds the catalog enumerations.
// The registry must have been created with Options.
func Register(reg *registry.Registry) error {
	if err := reg.Discover(Prototypes()...); err != nil {
		return err
	}
	if err := reg.RegisterTypes(TypesStockStatus, []entity.TypeValue{
		{ID: "IN_STOCK", Description: "In stock"},
		{ID: "LOW_STOCK", Description: "Low stock"},
		{ID: "OUT_OF_STOCK", Description: "Out of stock"},
	}); err != nil {
		return err
	}
	return reg.RegisterTypes(TypesSortColumns, []entity.TypeValue{
		{ID: "name", Description: "Name"},
		{ID: "price", Description: "Price"},
		{ID: "category", Description: "Category"},
		{ID: "active", Description: "Active"},
	})
}

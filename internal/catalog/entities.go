// Package catalog is a small product catalog served entirely by the generic
// CRUD engine. It exercises every relationship shape: a product references
// its category, owns its variants, links tags through product_tags and keeps
// its keywords as a value collection.
package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
)

// Category groups products.
type Category struct {
	ID     *int64 `crud:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

func (c *Category) GetID() *int64     { return c.ID }
func (c *Category) SetID(id int64)    { c.ID = &id }
func (c *Category) GetLabel() string  { return c.Name }
func (c *Category) IsActive() bool    { return c.Active }
func (c *Category) SetActive(on bool) { c.Active = on }
func (c *Category) TableName() string { return "categories" }

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.NewValidationError("name", "required")
	}
	return nil
}

func (c *Category) CRUDConfig() entity.Config {
	return entity.Config{
		Key: "category",
		Security: []entity.SecurityRule{
			{Operation: "DELETE", Rule: AuthorityAdmin},
		},
	}
}

// Tag is a free label linked to products.
type Tag struct {
	ID    *int64 `crud:"id" json:"id"`
	Label string `db:"label" json:"label"`
}

func (t *Tag) GetID() *int64     { return t.ID }
func (t *Tag) SetID(id int64)    { t.ID = &id }
func (t *Tag) GetLabel() string  { return t.Label }
func (t *Tag) TableName() string { return "tags" }

func (t *Tag) Validate() error {
	if strings.TrimSpace(t.Label) == "" {
		return domain.NewValidationError("label", "required")
	}
	return nil
}

func (t *Tag) CRUDConfig() entity.Config {
	return entity.Config{Key: "tag"}
}

// Product is the aggregate root of the catalog.
type Product struct {
	ID          *uuid.UUID `crud:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Price       float64    `db:"price" json:"price"`
	Active      bool       `db:"active" json:"active"`
	Category    *Category  `crud:"ref" json:"category,omitempty"`
	Keywords    []string   `crud:"values" json:"keywords"`
	Variants    []*Variant `crud:"owned,backref=Product" json:"variants,omitempty"`
	Tags        []*Tag     `crud:"linked,table=product_tags,owner=product_id,target=tag_id" json:"tags,omitempty"`
}

func (p *Product) GetID() *uuid.UUID  { return p.ID }
func (p *Product) SetID(id uuid.UUID) { p.ID = &id }
func (p *Product) GetLabel() string   { return p.Name }
func (p *Product) IsActive() bool     { return p.Active }
func (p *Product) SetActive(on bool)  { p.Active = on }
func (p *Product) TableName() string  { return "products" }

// Validate reports every violation at once.
func (p *Product) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if p.Price < 0 {
		errs = append(errs, domain.FieldError{Field: "price", Message: "must not be negative"})
	}
	seen := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		if v == nil {
			continue
		}
		if seen[v.SKU] {
			errs = append(errs, domain.FieldError{Field: "variants", Message: "duplicate sku " + v.SKU})
		}
		seen[v.SKU] = true
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func (p *Product) CRUDConfig() entity.Config {
	return entity.Config{
		Key: "product",
		Security: []entity.SecurityRule{
			{Operation: "SAVE", Rule: RuleEditors},
			{Operation: "DELETE", Rule: AuthorityAdmin},
		},
	}
}

// Variant is a stock-keeping unit owned by a product.
type Variant struct {
	ID      *int64   `crud:"id" json:"id"`
	SKU     string   `db:"sku" json:"sku"`
	Stock   int      `db:"stock" json:"stock"`
	Product *Product `crud:"ref" json:"-"`
}

func (v *Variant) GetID() *int64     { return v.ID }
func (v *Variant) SetID(id int64)    { v.ID = &id }
func (v *Variant) GetLabel() string  { return v.SKU }
func (v *Variant) TableName() string { return "variants" }

func (v *Variant) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(v.SKU) == "" {
		errs = append(errs, domain.FieldError{Field: "sku", Message: "required"})
	}
	if v.Stock < 0 {
		errs = append(errs, domain.FieldError{Field: "stock", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Variants are only written through their product.
func (v *Variant) CRUDConfig() entity.Config {
	return entity.Config{
		Key:            "variant",
		DisableListAll: true,
		Security: []entity.SecurityRule{
			{Operation: "SAVE", Rule: "deny"},
			{Operation: "DELETE", Rule: "deny"},
		},
	}
}

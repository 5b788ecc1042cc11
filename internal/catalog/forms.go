package catalog

import "github.com/google/uuid"

type CategoryForm struct {
	ID     *int64 `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (f *CategoryForm) GetID() *int64 { return f.ID }

type TagForm struct {
	ID    *int64 `json:"id"`
	Label string `json:"label"`
}

func (f *TagForm) GetID() *int64 { return f.ID }

// ProductForm carries the category by id, the variants as sub-forms and the
// tags as an id list.
type ProductForm struct {
	ID            *uuid.UUID    `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Price         float64       `json:"price"`
	Active        bool          `json:"active"`
	Category      *int64        `json:"category"`
	Keywords      []string      `json:"keywords"`
	VariantsForms []VariantForm `json:"variants"`
	IdsTags       []int64       `json:"tagIds"`
}

func (f *ProductForm) GetID() *uuid.UUID { return f.ID }

type VariantForm struct {
	ID    *int64 `json:"id"`
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

func (f *VariantForm) GetID() *int64 { return f.ID }

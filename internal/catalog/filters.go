package catalog

import "github.com/crudzilla/crudzilla/internal/query"

type CategoryFilter struct {
	query.Filter
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

type TagFilter struct {
	query.Filter
	Label *string `json:"label"`
}

// ProductFilter drives the product search. Columns selects the optional
// aggregate columns: "category", "variants" and "stock".
type ProductFilter struct {
	query.Filter
	Name     *string  `json:"name"`
	Category *int64   `json:"category"`
	Active   *bool    `json:"active"`
	MinPrice *float64 `json:"minPrice"`
	MaxPrice *float64 `json:"maxPrice"`
	Tags     []int64  `json:"tags"`
	Columns  []string `json:"columns"`
}

// Package query turns declarative filters into paginated, ordered and counted
// result sets. Entity-specific builders supply the base SELECT and the sort
// expression; the Engine derives the count query from the same base so the
// count always matches the predicate of the page.
package query

import "strings"

// Direction is a sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// Filter carries the paging and ordering parameters every entity filter
// embeds. A negative PageSize disables paging.
type Filter struct {
	SortColumn    string    `json:"sortColumn,omitempty"`
	SortDirection Direction `json:"sortDirection,omitempty"`
	PageSize      int       `json:"pageSize"`
	Offset        int       `json:"offset"`
}

// Filterer is implemented by every type embedding Filter.
type Filterer interface {
	Base() *Filter
}

// NewFilter returns a Filter with default values.
func NewFilter() Filter {
	return Filter{SortDirection: ASC, PageSize: DefaultPageSize}
}

// Base gives access to the embedded paging parameters.
func (f *Filter) Base() *Filter { return f }

// SetPageSize sets the page size, clamped to MaxPageSize.
func (f *Filter) SetPageSize(n int) {
	if n > MaxPageSize {
		n = MaxPageSize
	}
	f.PageSize = n
}

// Normalize applies defaults and clamps values.
func (f *Filter) Normalize() {
	switch Direction(strings.ToUpper(string(f.SortDirection))) {
	case DESC:
		f.SortDirection = DESC
	default:
		f.SortDirection = ASC
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.SetPageSize(f.PageSize)
}

// Paged reports whether LIMIT/OFFSET should be applied.
func (f *Filter) Paged() bool { return f.PageSize >= 0 }

package query

import (
	"reflect"
	"testing"

	"github.com/crudzilla/crudzilla/internal/schema"
)

type owner struct {
	ID *int64 `crud:"id"`
}

type widget struct {
	ID     *int64   `crud:"id"`
	Name   string   `db:"name"`
	Active bool     `db:"active"`
	Owner  *owner   `crud:"ref"`
	Labels []string `crud:"values"`
}

type widgetFilter struct {
	Filter
	Name   *string  `json:"name"`
	Active *bool    `json:"active"`
	Owner  *int64   `json:"owner"`
	ID     []int64  `json:"id"`
	Labels []string `json:"labels"`
	Color  *string  `json:"color"`
}

func TestCriteria(t *testing.T) {
	t.Parallel()
	s := schema.MustOf(reflect.TypeOf(widget{}))

	name, active, ownerID, color := "bolt", false, int64(7), "red"
	f := &widgetFilter{Name: &name, Active: &active, Owner: &ownerID, ID: []int64{1, 2}, Labels: []string{"x"}, Color: &color}
	f.PageSize = 5

	got := Criteria(f, s)
	if len(got) != 4 {
		t.Fatalf("expected 4 criteria, got %+v", got)
	}
	want := map[string][]any{
		"Name":   {"bolt"},
		"Active": {false},
		"Owner":  {int64(7)},
		"ID":     {int64(1), int64(2)},
	}
	for _, c := range got {
		if !reflect.DeepEqual(want[c.Field.Name], c.Values) {
			t.Errorf("%s = %v, want %v", c.Field.Name, c.Values, want[c.Field.Name])
		}
	}

	if len(Criteria(&widgetFilter{}, s)) != 0 {
		t.Fatal("blank filter must yield no criteria")
	}
	if Criteria((*widgetFilter)(nil), s) != nil {
		t.Fatal("nil filter must yield no criteria")
	}
}

func TestSortField(t *testing.T) {
	t.Parallel()
	s := schema.MustOf(reflect.TypeOf(widget{}))

	tests := []struct {
		column string
		want   string
	}{
		{"", "ID"},
		{"name", "Name"},
		{"owner_id", "Owner"},
		{"Owner", "Owner"},
		{"missing", "ID"},
	}
	for _, tt := range tests {
		if got := SortField(s, tt.column); got.Name != tt.want {
			t.Errorf("SortField(%q) = %s, want %s", tt.column, got.Name, tt.want)
		}
	}
}

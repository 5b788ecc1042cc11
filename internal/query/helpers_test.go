package query

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
)

func TestSelectIfChosen(t *testing.T) {
	t.Parallel()

	selected := []string{"name", "price"}
	tests := []struct {
		name   string
		column string
		null   NullKind
		want   string
	}{
		{"selected", "name", NullText, "p.name AS col"},
		{"text null", "missing", NullText, "CAST(NULL AS VARCHAR(1)) AS col"},
		{"numeric null", "missing", NullNumeric, "CAST(NULL AS BIGINT) AS col"},
		{"bool null", "missing", NullBool, "CAST(NULL AS BOOLEAN) AS col"},
		{"date null", "missing", NullDate, "CAST(NULL AS DATE) AS col"},
		{"timestamp null", "missing", NullTimestamp, "CAST(NULL AS TIMESTAMP) AS col"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SelectIfChosen(tt.column, selected, "col", "p.name", tt.null); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := SelectIfAnyChosen([]string{"x", "price"}, selected, "total", "SUM(p.price)", NullNumeric); got != "SUM(p.price) AS total" {
		t.Errorf("SelectIfAnyChosen = %q", got)
	}
	if got := SelectIfAnyChosen([]string{"x"}, nil, "total", "SUM(p.price)", NullNumeric); got != "CAST(NULL AS BIGINT) AS total" {
		t.Errorf("SelectIfAnyChosen (none) = %q", got)
	}
}

func sqlOf(t *testing.T, q sq.SelectBuilder) (string, []any) {
	t.Helper()
	s, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	return s, args
}

func TestGrouping(t *testing.T) {
	t.Parallel()

	base := sq.Select("p.name").From("products p")

	got, _ := sqlOf(t, GroupIfChosen(base, "name", []string{"name"}, "p.name"))
	if got != "SELECT p.name FROM products p GROUP BY p.name" {
		t.Errorf("GroupIfChosen = %q", got)
	}
	got, _ = sqlOf(t, GroupIfChosen(base, "name", nil, "p.name"))
	if got != "SELECT p.name FROM products p" {
		t.Errorf("GroupIfChosen (unselected) = %q", got)
	}
	got, _ = sqlOf(t, GroupIfAllChosen(base, []string{"a", "b"}, []string{"a"}, "p.a", "p.b"))
	if got != "SELECT p.name FROM products p" {
		t.Errorf("GroupIfAllChosen (partial) = %q", got)
	}
	got, _ = sqlOf(t, GroupIfAllChosen(base, []string{"a", "b"}, []string{"b", "a"}, "p.a", "p.b"))
	if got != "SELECT p.name FROM products p GROUP BY p.a, p.b" {
		t.Errorf("GroupIfAllChosen = %q", got)
	}
}

func TestConditionalPredicates(t *testing.T) {
	t.Parallel()

	base := sq.Select("p.id").From("products p")
	blank, name := "  ", "lamp"
	var nilPtr *int
	minPrice := 10

	got, _ := sqlOf(t, WhereIfNotBlank(base, &blank, func(v string) sq.Sqlizer { return sq.Eq{"p.name": v} }))
	if got != "SELECT p.id FROM products p" {
		t.Errorf("blank string should not filter: %q", got)
	}
	got, args := sqlOf(t, WhereIfNotBlank(base, &name, func(v string) sq.Sqlizer { return sq.Eq{"p.name": v} }))
	if got != "SELECT p.id FROM products p WHERE p.name = ?" || args[0] != "lamp" {
		t.Errorf("WhereIfNotBlank = %q %v", got, args)
	}

	got, _ = sqlOf(t, WhereIfPresent(base, nilPtr, func() sq.Sqlizer { return sq.Expr("1=0") }))
	if got != "SELECT p.id FROM products p" {
		t.Errorf("nil pointer should not filter: %q", got)
	}
	got, _ = sqlOf(t, WhereIfPresent(base, &minPrice, func() sq.Sqlizer { return sq.GtOrEq{"p.price": minPrice} }))
	if got != "SELECT p.id FROM products p WHERE p.price >= ?" {
		t.Errorf("WhereIfPresent = %q", got)
	}

	got, _ = sqlOf(t, WhereIfNotEmpty[int64](base, "p.id", nil))
	if got != "SELECT p.id FROM products p" {
		t.Errorf("empty slice should not filter: %q", got)
	}
	got, args = sqlOf(t, WhereIfNotEmpty(base, "p.id", []int64{1, 2}))
	if got != "SELECT p.id FROM products p WHERE p.id IN (?,?)" || len(args) != 2 {
		t.Errorf("WhereIfNotEmpty = %q %v", got, args)
	}

	grouped := base.GroupBy("p.id")
	got, _ = sqlOf(t, HavingIfPresent(grouped, &minPrice, func() sq.Sqlizer { return sq.Expr("COUNT(*) > ?", minPrice) }))
	if got != "SELECT p.id FROM products p GROUP BY p.id HAVING COUNT(*) > ?" {
		t.Errorf("HavingIfPresent = %q", got)
	}
}

func TestJoinIfReferenced(t *testing.T) {
	t.Parallel()

	q := sq.Select("p.id", "c.name").From("products p")
	got, _ := sqlOf(t, JoinIfReferenced(q, "c", "categories c ON c.id = p.category_id"))
	if got != "SELECT p.id, c.name FROM products p JOIN categories c ON c.id = p.category_id" {
		t.Errorf("JoinIfReferenced = %q", got)
	}

	plain := sq.Select("p.id").From("products p")
	got, _ = sqlOf(t, LeftJoinIfReferenced(plain, "c", "categories c ON c.id = p.category_id"))
	if got != "SELECT p.id FROM products p" {
		t.Errorf("unreferenced join should be skipped: %q", got)
	}
}

package query

import (
	"reflect"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// NullKind selects the typed NULL used in place of an unselected column, so
// the projection keeps a stable shape whatever the client asked for.
type NullKind int

const (
	NullText NullKind = iota
	NullNumeric
	NullBool
	NullDate
	NullTimestamp
)

func (k NullKind) expr() string {
	switch k {
	case NullNumeric:
		return "CAST(NULL AS BIGINT)"
	case NullBool:
		return "CAST(NULL AS BOOLEAN)"
	case NullDate:
		return "CAST(NULL AS DATE)"
	case NullTimestamp:
		return "CAST(NULL AS TIMESTAMP)"
	default:
		return "CAST(NULL AS VARCHAR(1))"
	}
}

// ColumnSelected reports whether name is among the client-selected columns.
func ColumnSelected(name string, selected []string) bool {
	return slices.Contains(selected, name)
}

// SelectIfChosen returns "expr AS alias" when name is selected, otherwise a
// NULL of the given kind under the same alias.
func SelectIfChosen(name string, selected []string, alias, expr string, null NullKind) string {
	if ColumnSelected(name, selected) {
		return expr + " AS " + alias
	}
	return null.expr() + " AS " + alias
}

// SelectIfAnyChosen is SelectIfChosen for a column derived from several
// client columns.
func SelectIfAnyChosen(names, selected []string, alias, expr string, null NullKind) string {
	for _, n := range names {
		if ColumnSelected(n, selected) {
			return expr + " AS " + alias
		}
	}
	return null.expr() + " AS " + alias
}

// GroupIfChosen adds GROUP BY exprs when name is selected.
func GroupIfChosen(q sq.SelectBuilder, name string, selected []string, exprs ...string) sq.SelectBuilder {
	if ColumnSelected(name, selected) {
		return q.GroupBy(exprs...)
	}
	return q
}

// GroupIfAllChosen adds GROUP BY exprs only when every name is selected.
func GroupIfAllChosen(q sq.SelectBuilder, names, selected []string, exprs ...string) sq.SelectBuilder {
	for _, n := range names {
		if !ColumnSelected(n, selected) {
			return q
		}
	}
	return q.GroupBy(exprs...)
}

// WhereIfPresent applies pred when value is non-nil (a nil pointer counts as absent).
func WhereIfPresent(q sq.SelectBuilder, value any, pred func() sq.Sqlizer) sq.SelectBuilder {
	if isNil(value) {
		return q
	}
	return q.Where(pred())
}

// WhereIfNotBlank applies pred when value is a non-blank string.
func WhereIfNotBlank(q sq.SelectBuilder, value *string, pred func(v string) sq.Sqlizer) sq.SelectBuilder {
	if value == nil || strings.TrimSpace(*value) == "" {
		return q
	}
	return q.Where(pred(strings.TrimSpace(*value)))
}

// WhereIfNotEmpty applies "column IN (values)" when values is not empty.
func WhereIfNotEmpty[V any](q sq.SelectBuilder, column string, values []V) sq.SelectBuilder {
	if len(values) == 0 {
		return q
	}
	return q.Where(sq.Eq{column: values})
}

// HavingIfPresent applies pred as a HAVING clause when value is non-nil.
func HavingIfPresent(q sq.SelectBuilder, value any, pred func() sq.Sqlizer) sq.SelectBuilder {
	if isNil(value) {
		return q
	}
	return q.Having(pred())
}

// JoinIfReferenced adds "JOIN clause" only when the query already references
// alias (as "alias.").
func JoinIfReferenced(q sq.SelectBuilder, alias, clause string, args ...any) sq.SelectBuilder {
	if references(q, alias) {
		return q.Join(clause, args...)
	}
	return q
}

// LeftJoinIfReferenced is JoinIfReferenced with a LEFT JOIN.
func LeftJoinIfReferenced(q sq.SelectBuilder, alias, clause string, args ...any) sq.SelectBuilder {
	if references(q, alias) {
		return q.LeftJoin(clause, args...)
	}
	return q
}

func references(q sq.SelectBuilder, alias string) bool {
	sqlStr, _, err := q.ToSql()
	if err != nil {
		return false
	}
	return strings.Contains(sqlStr, alias+".")
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

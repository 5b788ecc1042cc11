// Package eager walks an entity graph so that every reachable lazy
// relationship can be materialized before the graph leaves the repository.
//
// The walk is iterative with a visited set keyed by pointer identity, so
// cyclic graphs (a child pointing back to its owner) terminate. Only struct
// types declared inside the configured domain packages are descended into;
// everything else is a leaf.
package eager

import (
	"context"
	"reflect"
	"strings"
)

// VisitFunc is called once per reachable domain entity pointer, before its
// fields are traversed. It may populate lazy fields in place.
type VisitFunc func(ctx context.Context, ptr reflect.Value) error

// Walker traverses entity graphs bounded by package prefixes.
type Walker struct {
	prefixes []string
}

// New creates a Walker. With no prefixes every non-standard-library struct
// type is considered part of the domain.
func New(prefixes ...string) *Walker {
	var clean []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &Walker{prefixes: clean}
}

// InScope reports whether values of t are descended into.
func (w *Walker) InScope(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	pkg := t.PkgPath()
	if pkg == "" {
		return false
	}
	if len(w.prefixes) == 0 {
		first, _, _ := strings.Cut(pkg, "/")
		return strings.Contains(first, ".")
	}
	for _, p := range w.prefixes {
		p = strings.TrimSuffix(p, "/")
		if pkg == p || strings.HasPrefix(pkg, p+"/") {
			return true
		}
	}
	return false
}

// Walk visits root and every domain entity reachable from it.
func (w *Walker) Walk(ctx context.Context, root any, visit VisitFunc) error {
	rv := reflect.ValueOf(root)
	if !rv.IsValid() {
		return nil
	}

	visited := make(map[any]struct{})
	stack := []reflect.Value{rv}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v.Kind() {
		case reflect.Interface:
			if !v.IsNil() {
				stack = append(stack, v.Elem())
			}

		case reflect.Pointer:
			if v.IsNil() || !w.InScope(v.Type()) || v.Elem().Kind() != reflect.Struct {
				continue
			}
			key := v.Interface()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}

			if visit != nil {
				if err := visit(ctx, v); err != nil {
					return err
				}
			}
			stack = w.pushFields(stack, v.Elem())

		case reflect.Struct:
			if w.InScope(v.Type()) {
				stack = w.pushFields(stack, v)
			}

		case reflect.Slice, reflect.Array:
			if !w.InScope(v.Type().Elem()) {
				continue
			}
			for i := v.Len() - 1; i >= 0; i-- {
				stack = append(stack, v.Index(i))
			}
		}
	}
	return nil
}

func (w *Walker) pushFields(stack []reflect.Value, sv reflect.Value) []reflect.Value {
	t := sv.Type()
	for i := t.NumField() - 1; i >= 0; i-- {
		if !t.Field(i).IsExported() {
			continue
		}
		stack = append(stack, sv.Field(i))
	}
	return stack
}

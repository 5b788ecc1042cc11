package eager

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type node struct {
	Name     string
	Parent   *node
	Children []*node
	Meta     meta
	Created  time.Time
	private  *node
}

type meta struct {
	Peer *node
}

func collect(t *testing.T, w *Walker, root any) []string {
	t.Helper()
	var names []string
	err := w.Walk(context.Background(), root, func(_ context.Context, ptr reflect.Value) error {
		if n, ok := ptr.Interface().(*node); ok {
			names = append(names, n.Name)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return names
}

func TestWalk_CycleSafe(t *testing.T) {
	t.Parallel()

	root := &node{Name: "root"}
	a := &node{Name: "a", Parent: root}
	b := &node{Name: "b", Parent: root}
	root.Children = []*node{a, b}
	a.Meta.Peer = b
	b.Meta.Peer = a

	w := New("github.com/crudzilla/crudzilla/internal/eager")
	got := collect(t, w, root)

	want := []string{"root", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
}

func TestWalk_SelfReference(t *testing.T) {
	t.Parallel()

	n := &node{Name: "self"}
	n.Parent = n

	got := collect(t, New(), n)
	if len(got) != 1 {
		t.Fatalf("expected a single visit, got %v", got)
	}
}

func TestWalk_SkipsUnexportedAndOutOfScope(t *testing.T) {
	t.Parallel()

	hidden := &node{Name: "hidden"}
	root := &node{Name: "root", private: hidden}

	got := collect(t, New("example.com/other"), root)
	if len(got) != 0 {
		t.Fatalf("out-of-scope root should not be visited, got %v", got)
	}

	got = collect(t, New("github.com/crudzilla/crudzilla/"), root)
	if !reflect.DeepEqual(got, []string{"root"}) {
		t.Fatalf("unexported field should not be traversed, got %v", got)
	}
}

func TestWalk_VisitMaterializes(t *testing.T) {
	t.Parallel()

	root := &node{Name: "root"}
	loaded := false

	err := New().Walk(context.Background(), root, func(_ context.Context, ptr reflect.Value) error {
		n := ptr.Interface().(*node)
		if n.Name == "root" && n.Children == nil {
			n.Children = []*node{{Name: "lazy"}}
		}
		if n.Name == "lazy" {
			loaded = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !loaded {
		t.Fatal("children populated during visit should be traversed")
	}
}

func TestWalk_PropagatesVisitError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := New().Walk(context.Background(), &node{Name: "x"}, func(context.Context, reflect.Value) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestWalk_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Walk(ctx, &node{Name: "x"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInScope(t *testing.T) {
	t.Parallel()

	w := New("github.com/crudzilla/crudzilla")
	tests := []struct {
		typ  reflect.Type
		want bool
	}{
		{reflect.TypeOf(node{}), true},
		{reflect.TypeOf(&node{}), true},
		{reflect.TypeOf(time.Time{}), false},
		{reflect.TypeOf(42), false},
		{reflect.TypeOf(struct{ X int }{}), false},
	}
	for _, tt := range tests {
		if got := w.InScope(tt.typ); got != tt.want {
			t.Errorf("InScope(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}

	if New().InScope(reflect.TypeOf(time.Time{})) {
		t.Error("standard library types are never in scope")
	}
}

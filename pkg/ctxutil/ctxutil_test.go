package ctxutil

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"
)

func TestUserIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	cases := []struct {
		name   string
		ctx    context.Context
		want   uuid.UUID
		wantOK bool
	}{
		{"set", WithUserID(context.Background(), id), id, true},
		{"absent", context.Background(), uuid.Nil, false},
		{"nil uuid", WithUserID(context.Background(), uuid.Nil), uuid.Nil, false},
		{"foreign type", context.WithValue(context.Background(), userIDKey, id.String()), uuid.Nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := UserIDFromCtx(tc.ctx)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("UserIDFromCtx = (%s, %v), want (%s, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestRequestIDFromCtx(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"set", WithRequestID(context.Background(), "req-123"), "req-123"},
		{"absent", context.Background(), ""},
		{"foreign type", context.WithValue(context.Background(), requestIDKey, 42), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := RequestIDFromCtx(tc.ctx); got != tc.want {
				t.Errorf("RequestIDFromCtx = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAuthoritiesFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithAuthorities(context.Background(), []string{"CATALOG_EDITOR", "ADMIN"})
	if got := AuthoritiesFromCtx(ctx); !slices.Equal(got, []string{"CATALOG_EDITOR", "ADMIN"}) {
		t.Errorf("authorities = %v", got)
	}
	if got := AuthoritiesFromCtx(context.Background()); got != nil {
		t.Errorf("absent authorities = %v, want nil", got)
	}
	// A later layer replaces the set rather than merging into it.
	ctx = WithAuthorities(ctx, nil)
	if got := AuthoritiesFromCtx(ctx); got != nil {
		t.Errorf("replaced authorities = %v, want nil", got)
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/crudzilla/crudzilla/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "product", int64(1)); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := MapError(pgx.ErrNoRows, "product", int64(123))
	if !errors.Is(got, domain.ErrNotFound) {
		t.Fatalf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := "product 123: not found"; got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}

	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	if got := MapError(wrapped, "product", "abc"); !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_PgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"unique_violation", "23505", domain.ErrAlreadyExists},
		{"foreign_key_violation", "23503", domain.ErrConflict},
		{"check_violation", "23514", domain.ErrValidation},
		{"not_null_violation", "23502", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pgErr := &pgconn.PgError{Code: tt.code, ColumnName: "name", Message: "violation"}
			got := MapError(fmt.Errorf("insert row: %w", pgErr), "product", int64(1))
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("MapError(code %s) does not wrap %v: %v", tt.code, tt.wantErr, got)
			}
		})
	}
}

func TestMapError_ValidationCarriesColumn(t *testing.T) {
	t.Parallel()

	got := MapError(&pgconn.PgError{Code: "23502", ColumnName: "name", Message: "null value"}, "product", nil)

	var ve *domain.ValidationError
	if !errors.As(got, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %v", got)
	}
	if len(ve.Errors) != 1 || ve.Errors[0].Field != "name" {
		t.Errorf("unexpected field errors: %+v", ve.Errors)
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	for _, ctxErr := range []error{context.DeadlineExceeded, context.Canceled} {
		got := MapError(ctxErr, "product", int64(1))
		if !errors.Is(got, ctxErr) {
			t.Errorf("MapError(%v) does not wrap it: %v", ctxErr, got)
		}
		if errors.Is(got, domain.ErrNotFound) {
			t.Errorf("MapError(%v) should not wrap domain.ErrNotFound", ctxErr)
		}
	}
}

func TestMapError_Unknown(t *testing.T) {
	t.Parallel()

	original := errors.New("something unexpected")
	got := MapError(original, "product", int64(9))
	if !errors.Is(got, original) {
		t.Errorf("MapError(unknown) does not wrap original error: %v", got)
	}
	if want := "product 9: something unexpected"; got.Error() != want {
		t.Errorf("MapError(unknown).Error() = %q, want %q", got.Error(), want)
	}

	pgErr := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	got = MapError(pgErr, "product", int64(9))
	var unwrapped *pgconn.PgError
	if !errors.As(got, &unwrapped) {
		t.Errorf("MapError(unknown PgError) does not wrap *pgconn.PgError: %v", got)
	}
	if errors.Is(got, domain.ErrNotFound) || errors.Is(got, domain.ErrAlreadyExists) || errors.Is(got, domain.ErrValidation) {
		t.Error("MapError(unknown PgError) should not map to a domain error")
	}
}

package rest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crudzilla/crudzilla/internal/domain"
)

func TestHandleError_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError("name", "required"), http.StatusBadRequest},
		{"bare validation", domain.ErrValidation, http.StatusBadRequest},
		{"decode", fmt.Errorf("filter: %w", domain.ErrDecode), http.StatusBadRequest},
		{"not found", fmt.Errorf("sample 123: %w", domain.ErrNotFound), http.StatusNotFound},
		{"unknown key", domain.ErrUnknownKey, http.StatusNotFound},
		{"projection", domain.ErrProjectionNotFound, http.StatusNotFound},
		{"filter type", domain.ErrFilterTypeNotFound, http.StatusNotFound},
		{"form type", domain.ErrFormTypeNotFound, http.StatusNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("SAVE sample: %w", domain.ErrForbidden), http.StatusForbidden},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"not implemented", domain.ErrNotImplemented, http.StatusNotImplemented},
		{"invalid operation", domain.ErrInvalidOperation, http.StatusInternalServerError},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handleError(discardLogger, rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
		})
	}
}

func TestHandleError_InternalDetailsHidden(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	handleError(discardLogger, rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("password=hunter2"))

	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Errorf("internal error leaked: %s", rec.Body)
	}
}

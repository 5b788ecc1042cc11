package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/crudzilla/crudzilla/internal/auth"
	"github.com/crudzilla/crudzilla/pkg/ctxutil"
)

type tokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// Auth resolves the bearer token into the caller's user ID and granted
// authorities. Requests without a valid bearer token get 401.
func Auth(verifier tokenVerifier, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			p, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := ctxutil.WithUserID(r.Context(), p.UserID)
			ctx = ctxutil.WithAuthorities(ctx, p.Authorities)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

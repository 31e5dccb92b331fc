package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/avelarde/shopfront-backend/api/responses"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

// AdminAuth guards the admin surface with a static bearer token. An empty
// configured token closes the surface entirely.
func AdminAuth(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin access is not configured"))
				return
			}

			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

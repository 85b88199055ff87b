package role

import (
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/services/auth"
)

// MiddlewareRequireRole ставится после MiddlewareAuth.
func MiddlewareRequireRole(required models.Role, log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := models.IdentityFromContext(r.Context())
			if !ok {
				httputils.WriteError(w, log, models.ErrInvalidToken)
				return
			}

			if err := auth.Authorize(identity, required); err != nil {
				log.Warn().
					Str("user_id", identity.UserID).
					Str("role", string(identity.Role)).
					Str("path", r.URL.Path).
					Msg("access denied")
				httputils.WriteError(w, log, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

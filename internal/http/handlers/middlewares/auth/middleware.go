package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/httputils"
)

const bearerPrefix = "bearer "

type Authentication interface {
	Authenticate(ctx context.Context, tokenString string) (models.Identity, error)
}

// MiddlewareAuth пропускает запрос дальше только с валидным Bearer-токеном.
// Личность пользователя кладется в контекст.
func MiddlewareAuth(auth Authentication, log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, ok := bearerToken(r)
			if !ok {
				httputils.WriteError(w, log, models.ErrInvalidToken)
				return
			}

			identity, err := auth.Authenticate(ctx, tokenString)
			if err != nil {
				httputils.WriteError(w, log, fmt.Errorf("authenticate: %w", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(models.WithIdentity(ctx, identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(httputils.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

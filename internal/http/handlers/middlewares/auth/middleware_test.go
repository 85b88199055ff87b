package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/httputils"
)

type stubAuth struct {
	identity models.Identity
	err      error
	got      string
}

func (s *stubAuth) Authenticate(_ context.Context, tokenString string) (models.Identity, error) {
	s.got = tokenString
	return s.identity, s.err
}

func TestMiddlewareAuth(t *testing.T) {
	log := zerolog.Nop()
	alice := models.Identity{UserID: "u-1", Role: models.RoleMain, Email: "alice@example.com"}

	tests := []struct {
		name       string
		header     string
		auth       *stubAuth
		wantStatus int
		wantToken  string
		wantCode   string
	}{
		{
			name:       "валидный токен",
			header:     "Bearer abc.def.ghi",
			auth:       &stubAuth{identity: alice},
			wantStatus: http.StatusOK,
			wantToken:  "abc.def.ghi",
		},
		{
			name:       "префикс в нижнем регистре",
			header:     "bearer abc",
			auth:       &stubAuth{identity: alice},
			wantStatus: http.StatusOK,
			wantToken:  "abc",
		},
		{
			name:       "нет заголовка",
			auth:       &stubAuth{identity: alice},
			wantStatus: http.StatusUnauthorized,
			wantCode:   httputils.CodeInvalidToken,
		},
		{
			name:       "другая схема",
			header:     "Basic dXNlcjpwYXNz",
			auth:       &stubAuth{identity: alice},
			wantStatus: http.StatusUnauthorized,
			wantCode:   httputils.CodeInvalidToken,
		},
		{
			name:       "пустой токен",
			header:     "Bearer    ",
			auth:       &stubAuth{identity: alice},
			wantStatus: http.StatusUnauthorized,
			wantCode:   httputils.CodeInvalidToken,
		},
		{
			name:       "токен отклонен",
			header:     "Bearer expired",
			auth:       &stubAuth{err: models.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
			wantToken:  "expired",
			wantCode:   httputils.CodeInvalidToken,
		},
		{
			name:       "ошибка хранилища",
			header:     "Bearer abc",
			auth:       &stubAuth{err: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantToken:  "abc",
			wantCode:   httputils.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen models.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := models.IdentityFromContext(r.Context())
				require.True(t, ok)
				seen = id
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(httputils.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			MiddlewareAuth(tt.auth, &log)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantToken, tt.auth.got)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, alice, seen)
				return
			}

			var resp httputils.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

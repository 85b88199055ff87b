package login

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/services/auth"
)

type ServiceAuth interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
}

// HandlerLogin принимает OAuth2-форму (username, password) или JSON {email, password}.
func HandlerLogin(svc ServiceAuth, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := decodeLogin(r)
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		res, err := svc.Login(ctx, req.Email, req.Password)
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LoginResponseFromDomain(res))
	}
}

func decodeLogin(r *http.Request) (dto.LoginRequest, error) {
	var req dto.LoginRequest

	if strings.HasPrefix(r.Header.Get(httputils.HeaderContentType), httputils.MIMEFormURLEncoded) {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("%w: malformed form: %v", models.ErrInvalidData, err)
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := httputils.DecodeJSON(r, &req); err != nil {
		return req, err
	}

	if req.Email == "" || req.Password == "" {
		return req, fmt.Errorf("%w: username and password are required", models.ErrInvalidData)
	}
	return req, nil
}

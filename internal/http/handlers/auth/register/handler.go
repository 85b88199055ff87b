package register

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/services/auth"
)

type ServiceAuth interface {
	Register(ctx context.Context, input auth.RegisterInput, role models.Role) (models.User, error)
}

// HandlerRegister общий для register-main и create-subuser, отличаются только ролью.
func HandlerRegister(svc ServiceAuth, role models.Role, message string, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req dto.RegisterRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		if _, err := svc.Register(ctx, req.ToDomain(), role); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusCreated, dto.MessageResponse{Message: message})
	}
}

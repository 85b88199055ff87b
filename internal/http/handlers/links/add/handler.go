package add

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
)

type ServiceLinks interface {
	Add(ctx context.Context, owner models.Identity, rawURL string) (models.Link, error)
}

func HandlerAdd(svc ServiceLinks, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, ok := models.IdentityFromContext(ctx)
		if !ok {
			httputils.WriteError(w, log, models.ErrInvalidToken)
			return
		}

		var req dto.LinkRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		link, err := svc.Add(ctx, owner, req.Link)
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusCreated, dto.LinkAddResponse{
			Message:     "Link Added Successfully",
			GeneratedID: link.Code,
		})
	}
}

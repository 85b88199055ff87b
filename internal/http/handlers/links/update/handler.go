package update

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
)

type ServiceLinks interface {
	Update(ctx context.Context, code, rawURL string) (string, error)
}

func HandlerUpdate(svc ServiceLinks, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := mux.Vars(r)["id"]

		var req dto.LinkRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		url, err := svc.Update(ctx, code, req.Link)
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LinkUpdateResponse{
			Message: "Link Updated Successfully",
			LinkID:  code,
			NewLink: url,
		})
	}
}

package delete_link

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
)

type ServiceLinks interface {
	Delete(ctx context.Context, code string) error
}

func HandlerDelete(svc ServiceLinks, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["id"]

		if err := svc.Delete(r.Context(), code); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LinkDeleteResponse{
			Message: "Link Deleted Successfully",
			LinkID:  code,
		})
	}
}

package home

import (
	"net/http"

	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
)

func HandlerHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Message: "Link registry backend running"})
	}
}

package by_ids_bulk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/services/links"
)

type ServiceLinks interface {
	ResolveCodes(ctx context.Context, codes []string) ([]links.CodeResult, error)
}

func HandlerByIDsBulk(svc ServiceLinks, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req dto.IDsBulkRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		codes := req.PRBIDs.IDs()
		if !req.PRBIDs.Present() || len(codes) == 0 {
			httputils.WriteError(w, log, fmt.Errorf("%w: prb_ids must be a non-empty list", models.ErrInvalidData))
			return
		}

		results, err := svc.ResolveCodes(ctx, codes)
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.IDsBulkResponseFromDomain(results))
	}
}

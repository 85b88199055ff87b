package by_links_bulk

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
	ResolveBatch(ctx context.Context, owner models.Identity, rawURLs []string) ([]links.BatchResult, error)
}

// HandlerByLinksBulk возвращает канонический код для каждой ссылки, создавая недостающие.
// Ошибка одной ссылки попадает в ее элемент ответа, статус ответа остается 200.
func HandlerByLinksBulk(svc ServiceLinks, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, ok := models.IdentityFromContext(ctx)
		if !ok {
			httputils.WriteError(w, log, models.ErrInvalidToken)
			return
		}

		var req dto.LinksBulkRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		rawURLs := req.Links.Links()
		if !req.Links.Present() || len(rawURLs) == 0 {
			httputils.WriteError(w, log, fmt.Errorf("%w: links must be a non-empty list or string", models.ErrInvalidData))
			return
		}

		results, err := svc.ResolveBatch(ctx, owner, rawURLs)
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LinksBulkResponseFromDomain(results))
	}
}

package fetch_by_contacts

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
)

type ServiceRecords interface {
	FetchByContacts(ctx context.Context, contacts []string) ([]models.Record, error)
}

func HandlerFetchByContacts(svc ServiceRecords, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req dto.FetchByContactsRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		if !req.ContactNumbers.Present() {
			httputils.WriteError(w, log, fmt.Errorf("%w: contact_numbers is required", models.ErrInvalidData))
			return
		}

		found, err := svc.FetchByContacts(ctx, req.ContactNumbers.Lines())
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.RecordFetchResponseFromDomain(found))
	}
}

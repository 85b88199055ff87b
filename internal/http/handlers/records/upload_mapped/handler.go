package upload_mapped

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/services/records"
)

// MaxBodyBytes - миллион записей с запасом на длинные source_name.
const MaxBodyBytes = 256 << 20

type ServiceRecords interface {
	BulkImport(ctx context.Context, owner models.Identity, input []records.RecordInput) (records.ImportResult, error)
}

func HandlerUploadMapped(svc ServiceRecords, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, ok := models.IdentityFromContext(ctx)
		if !ok {
			httputils.WriteError(w, log, models.ErrInvalidToken)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

		var req dto.UploadRecordsRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		if req.Records == nil {
			httputils.WriteError(w, log, fmt.Errorf("%w: records must be a list", models.ErrInvalidData))
			return
		}

		res, err := svc.BulkImport(ctx, owner, req.ToDomain())
		if err != nil {
			httputils.WriteError(w, log, err)
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.UploadRecordsResponse{
			Message:  fmt.Sprintf("Uploaded %d records", res.Inserted),
			Inserted: res.Inserted,
			Skipped:  res.Skipped,
			ImportID: res.ImportID,
		})
	}
}

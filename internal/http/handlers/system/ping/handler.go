package ping

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"linkregistry/internal/http/dto"
	"linkregistry/internal/http/httputils"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

func HandlerPing(storage Pinger, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := storage.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("storage ping failed")
			httputils.WriteJSONError(w, http.StatusServiceUnavailable, httputils.CodeInternal, "storage unavailable")
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Message: "pong"})
	}
}

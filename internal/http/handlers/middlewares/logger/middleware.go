package logger

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"linkregistry/internal/http/httputils"
)

const slowRequest = 500 * time.Millisecond

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.size += size
	return size, err
}

// MiddlewareLogging пишет по строке на запрос и перехватывает паники.
// Request id берется из X-Request-ID или генерируется, и кладется
// в контекст как zerolog-логгер.
func MiddlewareLogging(log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &responseRecorder{ResponseWriter: w}

			requestID := r.Header.Get(httputils.HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(httputils.HeaderRequestID, requestID)

			reqLog := log.With().Str("request_id", requestID).Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))

			reqLog.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("ip", r.RemoteAddr).
				Msg("request started")

			defer func() {
				if rec := recover(); rec != nil {
					reqLog.Error().
						Str("panic", fmt.Sprintf("%v", rec)).
						Str("stack", string(debug.Stack())).
						Msg("request panic")
					if recorder.statusCode == 0 {
						httputils.WriteJSONError(recorder, http.StatusInternalServerError, httputils.CodeInternal, "internal server error")
					}
				}

				if recorder.statusCode == 0 {
					recorder.statusCode = http.StatusOK
				}
				duration := time.Since(start)

				var event *zerolog.Event
				var msg string
				switch {
				case recorder.statusCode >= 500:
					event, msg = reqLog.Error(), "server error"
				case recorder.statusCode >= 400:
					event, msg = reqLog.Warn(), "client error"
				default:
					event, msg = reqLog.Info(), "request completed"
				}

				event = event.
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", recorder.statusCode).
					Dur("duration", duration).
					Int("bytes", recorder.size).
					Str("ip", r.RemoteAddr)

				if duration > slowRequest {
					event = event.Bool("slow", true)
				}

				event.Msg(msg)
			}()

			next.ServeHTTP(recorder, r)
		})
	}
}

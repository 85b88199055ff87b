package bodylimit

import "net/http"

// DefaultMaxBytes - лимит для обычных JSON-запросов (пакет из 1000 ссылок помещается с запасом).
const DefaultMaxBytes = 1 << 20

// MiddlewareBodyLimit ограничивает размер тела запроса. Чтение сверх лимита
// возвращает *http.MaxBytesError, httputils.WriteError отвечает на нее 413.
func MiddlewareBodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

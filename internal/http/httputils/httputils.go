package httputils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
)

// MIME: https://developer.mozilla.org/en-US/docs/Web/HTTP/Guides/MIME_types/Common_types

const (
	HeaderContentType     = "Content-Type"
	HeaderContentEncoding = "Content-Encoding"
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderAuthorization   = "Authorization"
	HeaderRequestID       = "X-Request-ID"
	HeaderVary            = "Vary"

	MIMEApplicationJSON = "application/json"
	MIMEFormURLEncoded  = "application/x-www-form-urlencoded"
	MIMETextHTML        = "text/html"
	MIMETextPlain       = "text/plain"

	EncodingGzip = "gzip"
)

// Стабильные коды ошибок в теле ответа.
const (
	CodeInvalidToken       = "invalid_token"
	CodeForbidden          = "forbidden"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountLocked      = "account_locked"
	CodeDuplicate          = "duplicate_resource"
	CodeNotFound           = "not_found"
	CodeInvalidInput       = "invalid_input"
	CodeConflict           = "conflict"
	CodeRateLimited        = "rate_limited"
	CodeTooLarge           = "payload_too_large"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeInternal           = "internal"
)

type ErrorResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
	HoursRemaining    *int   `json:"hours_remaining,omitempty"`
}

func WriteJSONError(w http.ResponseWriter, status int, code, message string) {
	WriteJSONResponse(w, status, ErrorResponse{Error: message, Code: code})
}

func WriteJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set(HeaderContentType, MIMEApplicationJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError переводит доменную ошибку в ответ. Текст ошибок хранилища
// наружу не попадает, он только пишется в лог.
func WriteError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	status, resp := ErrorToResponse(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error().Err(err).Msg("request failed")
	}
	WriteJSONResponse(w, status, resp)
}

func ErrorToResponse(err error) (int, ErrorResponse) {
	var (
		credErr  *models.CredentialsError
		lockErr  *models.LockedError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.Is(err, models.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorResponse{Error: "could not validate credentials", Code: CodeInvalidToken}
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "access denied", Code: CodeForbidden}
	case errors.As(err, &lockErr):
		hours := lockErr.HoursRemaining()
		return http.StatusForbidden, ErrorResponse{Error: "account locked", Code: CodeAccountLocked, HoursRemaining: &hours}
	case errors.Is(err, models.ErrAccountLocked):
		return http.StatusForbidden, ErrorResponse{Error: "account locked", Code: CodeAccountLocked}
	case errors.As(err, &credErr):
		left := credErr.AttemptsRemaining
		return http.StatusBadRequest, ErrorResponse{Error: "invalid credentials", Code: CodeInvalidCredentials, AttemptsRemaining: &left}
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid credentials", Code: CodeInvalidCredentials}
	case errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict, ErrorResponse{Error: "duplicate", Code: CodeDuplicate}
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "concurrent update, retry", Code: CodeConflict}
	case errors.Is(err, models.ErrUnfound):
		return http.StatusNotFound, ErrorResponse{Error: "not found", Code: CodeNotFound}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large", Code: CodeTooLarge}
	case errors.Is(err, models.ErrInvalidData):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidInput}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal}
	}
}

// DecodeJSON читает тело запроса в dst. Превышение лимита тела
// возвращается как *http.MaxBytesError.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return models.ErrInvalidData
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: malformed json: %v", models.ErrInvalidData, err)
	}
	return nil
}

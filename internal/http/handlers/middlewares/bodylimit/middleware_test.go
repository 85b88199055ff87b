package bodylimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"linkregistry/internal/http/httputils"
)

func TestMiddlewareBodyLimit(t *testing.T) {
	handler := MiddlewareBodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dst map[string]string
		if err := httputils.DecodeJSON(r, &dst); err != nil {
			httputils.WriteError(w, nil, err)
			return
		}
		httputils.WriteJSONResponse(w, http.StatusOK, dst)
	}))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "в пределах лимита", body: `{"a":"b"}`, wantStatus: http.StatusOK},
		{name: "больше лимита", body: `{"link":"https://example.com/very/long"}`, wantStatus: http.StatusRequestEntityTooLarge, wantCode: httputils.CodeTooLarge},
		{name: "битый json", body: `{"a":`, wantStatus: http.StatusBadRequest, wantCode: httputils.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Contains(t, rec.Body.String(), `"code":"`+tt.wantCode+`"`)
			}
		})
	}
}

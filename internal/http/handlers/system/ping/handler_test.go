package ping

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkregistry/internal/http/server/mocks"
)

func TestHandlerPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStorage := mocks.NewMockPinger(ctrl)
	log := zerolog.Nop()

	t.Run("хранилище доступно", func(t *testing.T) {
		mockStorage.EXPECT().Ping(gomock.Any()).Return(nil)

		rec := httptest.NewRecorder()
		HandlerPing(mockStorage, &log).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
	})

	t.Run("хранилище недоступно", func(t *testing.T) {
		mockStorage.EXPECT().Ping(gomock.Any()).Return(errors.New("dial tcp: refused"))

		rec := httptest.NewRecorder()
		HandlerPing(mockStorage, &log).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "refused")
	})
}

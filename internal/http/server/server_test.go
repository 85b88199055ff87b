package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"linkregistry/internal/config"
	"linkregistry/internal/deps"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/http/server"
	"linkregistry/internal/http/server/mocks"
	"linkregistry/internal/repository/inmemory"
)

const spaOrigin = "http://localhost:5173"

func testConfig() config.Config {
	return config.Config{
		ServerAddress:   "localhost:0",
		Storage:         config.StorageMemory,
		JWTSecretKey:    "0123456789abcdef0123456789abcdef",
		JWTAccessExpire: time.Hour,
		BcryptCost:      bcrypt.MinCost,
		CORSOrigins:     []string{spaOrigin},
		LoginRateRPS:    5,
		LoginRateBurst:  10,
	}
}

type testClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestClient(t *testing.T, cfg config.Config) *testClient {
	t.Helper()
	log := zerolog.Nop()

	svc, err := deps.NewServices(inmemory.NewStorage(), cfg, &log)
	require.NoError(t, err)

	srv, err := server.NewServer(&log, cfg, svc)
	require.NoError(t, err)

	return &testClient{t: t, handler: srv.Handler()}
}

func (c *testClient) do(method, path, token, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(httputils.HeaderContentType, httputils.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(httputils.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *testClient) loginForm(email, password string) *httptest.ResponseRecorder {
	c.t.Helper()
	form := url.Values{"username": {email}, "password": {password}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form))
	req.Header.Set(httputils.HeaderContentType, httputils.MIMEFormURLEncoded)
	req.RemoteAddr = "192.0.2.1:5000"
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *testClient) token(email, password string) string {
	c.t.Helper()
	rec := c.loginForm(email, password)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	require.NoError(c.t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(c.t, resp.AccessToken)
	return resp.AccessToken
}

func TestServer_Flow(t *testing.T) {
	c := newTestClient(t, testConfig())

	rec := c.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/auth/register-main", "", `{"name":"Main","email":"Main@Example.com","password":"main-pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Main user registered successfully"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/auth/register-main", "", `{"name":"Main","email":"main@example.com","password":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "email сравнивается без учета регистра")

	mainToken := c.token("main@example.com", "main-pw")

	rec = c.do(http.MethodPost, "/auth/create-subuser", "", `{"name":"Sub","email":"sub@example.com","password":"sub-pw"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/auth/create-subuser", mainToken, `{"name":"Sub","email":"sub@example.com","password":"sub-pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Sub user created successfully"}`, rec.Body.String())

	subToken := c.token("sub@example.com", "sub-pw")

	t.Run("sub не может создавать пользователей и ссылки", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/auth/create-subuser", subToken, `{"name":"X","email":"x@example.com","password":"x"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = c.do(http.MethodPost, "/links/add", subToken, `{"link":"a.com"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"access denied","code":"forbidden"}`, rec.Body.String())

		rec = c.do(http.MethodPost, "/records/upload-mapped", subToken, `{"records":[]}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("без токена и с чужим токеном", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/fetch/by-links-bulk", "", `{"links":["a.com"]}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = c.do(http.MethodPost, "/fetch/by-links-bulk", mainToken+"x", `{"links":["a.com"]}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"could not validate credentials","code":"invalid_token"}`, rec.Body.String())
	})

	t.Run("ссылки", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/links/add", mainToken, `{"link":"a.com"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"message":"Link Added Successfully","generatedId":"PRB1011"}`, rec.Body.String())

		rec = c.do(http.MethodPost, "/links/add", mainToken, `{"link":"https://a.com"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = c.do(http.MethodPost, "/fetch/by-links-bulk", subToken, `{"links":"{a.com, http://b.com}"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"count":2,"results":[
			{"link":"https://a.com","generatedId":"PRB1011","status":"existing"},
			{"link":"http://b.com","generatedId":"PRB1012","status":"created"}]}`, rec.Body.String())

		rec = c.do(http.MethodPost, "/fetch/by-ids-bulk", subToken, `{"prb_ids":["PRB1012","PRB1"]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"count":2,"results":[
			{"generatedId":"PRB1012","link":"http://b.com"},
			{"generatedId":"PRB1","link":null,"error":"Not found"}]}`, rec.Body.String())

		rec = c.do(http.MethodPut, "/links/update/PRB1012", mainToken, `{"link":"https://c.com"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"message":"Link Updated Successfully","link_id":"PRB1012","new_link":"https://c.com"}`, rec.Body.String())

		rec = c.do(http.MethodDelete, "/links/delete/PRB1011", mainToken, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = c.do(http.MethodDelete, "/links/delete/PRB1011", mainToken, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = c.do(http.MethodGet, "/links/add", mainToken, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.JSONEq(t, `{"error":"method not allowed","code":"method_not_allowed"}`, rec.Body.String())
	})

	t.Run("записи", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/records/upload-mapped", mainToken, `{"records":[
			{"contact_number":"+100","source_name":"crm"},
			{"contact_number":"  ","source_name":"crm"},
			{"contact_number":"+200","source_name":"sheet"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var upload struct {
			Inserted int    `json:"inserted"`
			Skipped  int    `json:"skipped"`
			ImportID string `json:"import_id"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&upload))
		assert.Equal(t, 2, upload.Inserted)
		assert.Equal(t, 1, upload.Skipped)
		assert.NotEmpty(t, upload.ImportID)

		rec = c.do(http.MethodPost, "/records/fetch-by-contacts", mainToken, `{"contact_numbers":"+200\n+300"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var fetched struct {
			Count   int `json:"count"`
			Results []struct {
				RecordID      int64  `json:"record_id"`
				ContactNumber string `json:"contact_number"`
			} `json:"results"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&fetched))
		require.Equal(t, 1, fetched.Count)
		assert.Equal(t, "+200", fetched.Results[0].ContactNumber)
		assert.Equal(t, int64(2), fetched.Results[0].RecordID)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		rec := c.loginForm("sub@example.com", "wrong")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"invalid credentials","code":"invalid_credentials","attempts_remaining":4}`, rec.Body.String())
	})
}

func TestServer_Routing(t *testing.T) {
	c := newTestClient(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "неизвестный путь", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound, wantCode: httputils.CodeNotFound},
		{name: "не тот метод без токена", method: http.MethodGet, path: "/fetch/by-ids-bulk", wantStatus: http.StatusMethodNotAllowed, wantCode: httputils.CodeMethodNotAllowed},
		{name: "не тот метод с параметром", method: http.MethodPost, path: "/links/delete/PRB1011", wantStatus: http.StatusMethodNotAllowed, wantCode: httputils.CodeMethodNotAllowed},
		{
			name:       "слишком большое тело",
			method:     http.MethodPost,
			path:       "/auth/register-main",
			body:       `{"name":"` + strings.Repeat("a", 2<<20) + `","email":"big@b.c","password":"pw"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   httputils.CodeTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp httputils.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestServer_CORS(t *testing.T) {
	c := newTestClient(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/links/add", nil)
	req.Header.Set("Origin", spaOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	assert.Equal(t, spaOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_LoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateRPS = 0.001
	cfg.LoginRateBurst = 2
	c := newTestClient(t, cfg)

	assert.Equal(t, http.StatusBadRequest, c.loginForm("nobody@example.com", "pw").Code)
	assert.Equal(t, http.StatusBadRequest, c.loginForm("nobody@example.com", "pw").Code)

	rec := c.loginForm("nobody@example.com", "pw")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests","code":"rate_limited"}`, rec.Body.String())
}

func TestNewServer_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := zerolog.Nop()
	svc := server.Services{
		Auth:    mocks.NewMockAuthService(ctrl),
		Links:   mocks.NewMockLinkService(ctrl),
		Records: mocks.NewMockRecordService(ctrl),
		Storage: mocks.NewMockPinger(ctrl),
	}

	_, err := server.NewServer(&log, testConfig(), svc)
	assert.NoError(t, err)

	_, err = server.NewServer(nil, testConfig(), svc)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.ServerAddress = ""
	_, err = server.NewServer(&log, cfg, svc)
	assert.Error(t, err)

	noLinks := svc
	noLinks.Links = nil
	_, err = server.NewServer(&log, testConfig(), noLinks)
	assert.Error(t, err)
}

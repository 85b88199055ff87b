package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"linkregistry/internal/config"
	"linkregistry/internal/domain/models"
	"linkregistry/internal/http/handlers/auth/login"
	"linkregistry/internal/http/handlers/auth/register"
	"linkregistry/internal/http/handlers/fetch/by_ids_bulk"
	"linkregistry/internal/http/handlers/fetch/by_links_bulk"
	"linkregistry/internal/http/handlers/links/add"
	"linkregistry/internal/http/handlers/links/delete_link"
	"linkregistry/internal/http/handlers/links/update"
	mwauth "linkregistry/internal/http/handlers/middlewares/auth"
	"linkregistry/internal/http/handlers/middlewares/bodylimit"
	"linkregistry/internal/http/handlers/middlewares/compress"
	mwlogger "linkregistry/internal/http/handlers/middlewares/logger"
	"linkregistry/internal/http/handlers/middlewares/ratelimit"
	"linkregistry/internal/http/handlers/middlewares/role"
	"linkregistry/internal/http/handlers/records/fetch_by_contacts"
	"linkregistry/internal/http/handlers/records/upload_mapped"
	"linkregistry/internal/http/handlers/system/home"
	"linkregistry/internal/http/handlers/system/ping"
	"linkregistry/internal/http/httputils"
	"linkregistry/internal/services/auth"
	"linkregistry/internal/services/links"
	"linkregistry/internal/services/records"
)

//go:generate mockgen -source=server.go -destination=mocks/mock_services.go -package=mocks
type AuthService interface {
	Register(ctx context.Context, input auth.RegisterInput, role models.Role) (models.User, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Authenticate(ctx context.Context, tokenString string) (models.Identity, error)
}

type LinkService interface {
	Add(ctx context.Context, owner models.Identity, rawURL string) (models.Link, error)
	Update(ctx context.Context, code, rawURL string) (string, error)
	Delete(ctx context.Context, code string) error
	ResolveBatch(ctx context.Context, owner models.Identity, rawURLs []string) ([]links.BatchResult, error)
	ResolveCodes(ctx context.Context, codes []string) ([]links.CodeResult, error)
}

type RecordService interface {
	BulkImport(ctx context.Context, owner models.Identity, input []records.RecordInput) (records.ImportResult, error)
	FetchByContacts(ctx context.Context, contacts []string) ([]models.Record, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Auth    AuthService
	Links   LinkService
	Records RecordService
	Storage Pinger
}

const limiterCleanupInterval = 10 * time.Minute

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	log        *zerolog.Logger
	svc        Services
	cfg        config.Config
	limiter    *ratelimit.Limiter
}

func NewServer(log *zerolog.Logger, cfg config.Config, svc Services) (*Server, error) {
	if cfg.ServerAddress == "" {
		return nil, errors.New("server address cannot be empty")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if svc.Auth == nil || svc.Links == nil || svc.Records == nil || svc.Storage == nil {
		return nil, errors.New("services cannot be nil")
	}

	s := &Server{
		router:  mux.NewRouter(),
		cfg:     cfg,
		log:     log,
		svc:     svc,
		limiter: ratelimit.NewLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst),
	}

	s.setupRoutes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.httpServer = &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           corsHandler.Handler(s.router),
		ReadTimeout:       60 * time.Second, // загрузка записей бывает большой
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(mwlogger.MiddlewareLogging(s.log))
	s.router.Use(compress.MiddlewareCompressing())

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteJSONError(w, http.StatusNotFound, httputils.CodeNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteJSONError(w, http.StatusMethodNotAllowed, httputils.CodeMethodNotAllowed, "method not allowed")
	})

	limitBody := bodylimit.MiddlewareBodyLimit(bodylimit.DefaultMaxBytes)
	authenticate := mwauth.MiddlewareAuth(s.svc.Auth, s.log)
	requireMain := role.MiddlewareRequireRole(models.RoleMain, s.log)

	public := func(h http.HandlerFunc) http.Handler {
		return limitBody(h)
	}
	authenticated := func(h http.HandlerFunc) http.Handler {
		return authenticate(limitBody(h))
	}
	privileged := func(h http.HandlerFunc) http.Handler {
		return authenticate(requireMain(limitBody(h)))
	}

	// Маршруты регистрируются на корневом роутере: на подроутерах mux
	// отвечает 404 вместо 405 при несовпадении метода.

	/*
		Public routes (without auth)
	*/
	s.router.Handle("/", home.HandlerHome()).Methods(http.MethodGet)
	s.router.Handle("/ping", ping.HandlerPing(s.svc.Storage, s.log)).Methods(http.MethodGet)

	s.router.Handle("/auth/register-main",
		public(register.HandlerRegister(s.svc.Auth, models.RoleMain, "Main user registered successfully", s.log))).
		Methods(http.MethodPost)
	s.router.Handle("/auth/login",
		ratelimit.MiddlewareRateLimit(s.limiter)(public(login.HandlerLogin(s.svc.Auth, s.log)))).
		Methods(http.MethodPost)
	s.router.Handle("/auth/create-subuser",
		privileged(register.HandlerRegister(s.svc.Auth, models.RoleSub, "Sub user created successfully", s.log))).
		Methods(http.MethodPost)

	/*
		Any authenticated user
	*/
	s.router.Handle("/fetch/by-links-bulk", authenticated(by_links_bulk.HandlerByLinksBulk(s.svc.Links, s.log))).Methods(http.MethodPost)
	s.router.Handle("/fetch/by-ids-bulk", authenticated(by_ids_bulk.HandlerByIDsBulk(s.svc.Links, s.log))).Methods(http.MethodPost)

	/*
		Main users only
	*/
	s.router.Handle("/links/add", privileged(add.HandlerAdd(s.svc.Links, s.log))).Methods(http.MethodPost)
	s.router.Handle("/links/update/{id}", privileged(update.HandlerUpdate(s.svc.Links, s.log))).Methods(http.MethodPut)
	s.router.Handle("/links/delete/{id}", privileged(delete_link.HandlerDelete(s.svc.Links, s.log))).Methods(http.MethodDelete)

	s.router.Handle("/records/fetch-by-contacts", privileged(fetch_by_contacts.HandlerFetchByContacts(s.svc.Records, s.log))).Methods(http.MethodPost)
	// upload_mapped ограничивает тело сам, лимит больше общего
	s.router.Handle("/records/upload-mapped",
		authenticate(requireMain(upload_mapped.HandlerUploadMapped(s.svc.Records, s.log)))).
		Methods(http.MethodPost)
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start блокируется до остановки сервера.
func (s *Server) Start(ctx context.Context) error {
	go s.limiter.RunCleanup(ctx, limiterCleanupInterval)

	s.log.Info().Str("address", s.cfg.ServerAddress).Msg("Starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/susu3304/partybot/internal/config"
	"github.com/susu3304/partybot/internal/ledger"
)

const discordAPIBase = "https://discord.com/api"

type API struct {
	router      *mux.Router
	store       *ledger.Store
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	logger      *zap.Logger

	discordAPI string
	now        func() time.Time
}

func New(cfg *config.Config, store *ledger.Store, logger *zap.Logger) *API {
	api := &API{
		router:    mux.NewRouter(),
		store:     store,
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger.With(zap.String("component", "api")),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
		discordAPI: discordAPIBase,
		now:        time.Now,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")

	// Public endpoints
	public := a.router.PathPrefix("/api/public/sessions/{session_id}").Subrouter()
	public.HandleFunc("/parties", a.handleListParties).Methods("GET")
	public.HandleFunc("/parties/{name}/summary", a.handlePartySummary).Methods("GET")
	public.HandleFunc("/parties/{name}/export", a.handlePartyExport).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/user/parties", a.handleUserParties).Methods("GET")
	protected.HandleFunc("/sessions/{session_id}/parties/{name}", a.handleDeleteParty).Methods("DELETE")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// When AllowedOrigins is "*", AllowCredentials must stay false
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (a *API) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("API server listening", zap.String("addr", "http://"+a.config.WebBind))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

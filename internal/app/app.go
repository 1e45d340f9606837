package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"gapirelay-go/internal/auth"
	"gapirelay-go/internal/config"
	"gapirelay-go/internal/google"
	"gapirelay-go/internal/picker"
)

// Application holds all the major components of the relay.
type Application struct {
	Config        *config.Config
	Logger        zerolog.Logger
	Auth          *auth.OAuthManager
	Google        *google.Service
	Picker        *picker.Poller
	HTTPServer    *http.Server
	MetricsServer *http.Server
}

// New creates and initializes a new Application instance.
func New(cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	// Setup: Auth coordinator and its stores
	sessions := auth.NewSessionStore(cfg.Auth.SessionTTL.Duration)
	tokens := auth.NewTokenStore()

	oauthManager, err := auth.NewOAuthManager(&oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  cfg.Auth.RedirectURI,
		Scopes:       cfg.Auth.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Provider.AuthURL,
			TokenURL: cfg.Provider.TokenURL,
		},
	}, sessions, tokens, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth manager: %w", err)
	}

	// Setup: provider API client
	googleService := google.NewService(nil, google.Endpoints{
		PeopleBaseURL:   cfg.Provider.PeopleBaseURL,
		DriveBaseURL:    cfg.Provider.DriveBaseURL,
		CalendarBaseURL: cfg.Provider.CalendarBaseURL,
		PhotosBaseURL:   cfg.Provider.PhotosBaseURL,
		PickerBaseURL:   cfg.Provider.PickerBaseURL,
	}, logger)

	// Setup: selection poller
	selectionPoller := picker.NewPoller(googleService,
		cfg.Picker.HardTimeout.Duration,
		cfg.Picker.BaseRetryDelay.Duration,
		cfg.Picker.MaxAttempts,
		logger)

	// Setup: HTTP server for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		Auth:          oauthManager,
		Google:        googleService,
		Picker:        selectionPoller,
		MetricsServer: metricsServer,
	}

	app.HTTPServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: app.Routes(),
	}

	return app, nil
}

// Routes builds the relay's HTTP handler.
func (a *Application) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /oauth/url", a.handleOAuthURL)
	mux.HandleFunc("POST /oauth/token", a.handleOAuthToken)

	// Everything past the exchange requires a resolvable bearer credential.
	mux.Handle("POST /oauth/refresh", a.requireAuth(http.HandlerFunc(a.handleOAuthRefresh)))
	mux.Handle("POST /logout", a.requireAuth(http.HandlerFunc(a.handleLogout)))
	mux.Handle("GET /user/profile", a.requireAuth(http.HandlerFunc(a.handleProfile)))
	mux.Handle("GET /files", a.requireAuth(http.HandlerFunc(a.handleFiles)))
	mux.Handle("GET /calendar/events", a.requireAuth(http.HandlerFunc(a.handleCalendarEvents)))
	mux.Handle("GET /photos", a.requireAuth(http.HandlerFunc(a.handlePhotos)))
	mux.Handle("POST /picker/session", a.requireAuth(http.HandlerFunc(a.handlePickerSession)))
	mux.Handle("GET /picker/media", a.requireAuth(http.HandlerFunc(a.handlePickerMedia)))

	return a.cors(mux)
}

// Start begins the application's services.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Info().Msg("starting application services")

	go func() {
		a.Logger.Info().Str("addr", a.MetricsServer.Addr).Msg("starting metrics server")
		if err := a.MetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("metrics server ListenAndServe")
		}
	}()

	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting HTTP server")
		if err := a.HTTPServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	return nil
}

// Stop gracefully shuts down the application's services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.Info().Msg("stopping application services")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown")
	}
	if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("metrics server shutdown")
	}

	a.Logger.Info().Msg("application stopped")
	return nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/cities"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/controller"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/metrics"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/weather"
)

// tokenVerifier is a function that validates an OIDC ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server handles the HTTP API. Each advise request runs one advisory pass
// against the weather provider and logs the outcome to storage.
type Server struct {
	controller *controller.Controller
	weather    weather.Provider
	storage    storage.Database
	cities     *cities.Directory

	listenAddr string
	httpServer *http.Server

	oidcVerifier tokenVerifier
	serverName   string
	now          func() time.Time
	newID        func() string
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(w weather.Provider, s storage.Database, c *cities.Directory) *Server {
	srv := &Server{
		weather:    w,
		storage:    s,
		cities:     c,
		controller: controller.NewController(),
		serverName: "energy-optimiser",
		now:        time.Now,
		newID:      uuid.NewString,
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudience := lflag.String("oidc-audience", "", "Google OIDC client ID required on history and schedule routes. Empty disables auth.")
	todaySunHours := controller.DefaultTodaySunHours
	lflag.JSON(&todaySunHours, "today-sun-hours", controller.DefaultTodaySunHours, "Sun hours assumed for today's generation")
	anomalyThreshold := controller.DefaultAnomalyThresholdPct
	lflag.JSON(&anomalyThreshold, "anomaly-threshold", controller.DefaultAnomalyThresholdPct, "Cloud cover change in percentage points flagged as an anomaly")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if todaySunHours < 0 || todaySunHours > 24 {
			log.Ctx(context.Background()).Error("today-sun-hours must be between 0 and 24", slog.Float64("value", todaySunHours))
			os.Exit(1)
		}
		srv.controller = controller.NewController(
			controller.WithTodaySunHours(todaySunHours),
			controller.WithAnomalyThreshold(anomalyThreshold),
		)
		if *oidcAudience != "" {
			provider, err := oidc.NewProvider(context.Background(), "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifier = provider.Verifier(&oidc.Config{ClientID: *oidcAudience}).Verify
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/advise", s.handleAdvise)
	apiMux.HandleFunc("GET /api/appliances", s.handleAppliances)
	apiMux.HandleFunc("GET /api/cities", s.handleCities)
	apiMux.Handle("GET /api/history/telemetry", s.authMiddleware(http.HandlerFunc(s.handleHistoryTelemetry)))
	apiMux.Handle("GET /api/history/decisions", s.authMiddleware(http.HandlerFunc(s.handleHistoryDecisions)))
	apiMux.Handle("POST /api/schedule", s.authMiddleware(http.HandlerFunc(s.handleCreateSchedule)))
	apiMux.Handle("GET /api/schedule", s.authMiddleware(http.HandlerFunc(s.handleGetSchedule)))

	mux := http.NewServeMux()
	mux.Handle("/api/", s.requestMiddleware(apiMux))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// requestMiddleware attaches a request-scoped logger to the context.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithAttrs(
			r.Context(),
			slog.String("reqPath", r.URL.Path),
			slog.String("reqID", s.newID()),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

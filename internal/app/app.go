package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/gcalbridge/internal/config"
	"github.com/klokku/gcalbridge/internal/utils"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication loads configuration and constructs the full HTTP application, ready to Run().
func NewApplication(configPath string, envFile string) (*Application, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}
	return New(cfg, &utils.SystemClock{})
}

// New builds the application from an already loaded configuration. apiOptions
// are passed to every Calendar client, e.g. to point it at another endpoint.
func New(cfg config.Application, clock utils.Clock, apiOptions ...option.ClientOption) (*Application, error) {
	deps, err := BuildDependencies(cfg, clock, apiOptions...)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Middleware chain
	SetupMiddleware(r, deps, cfg)

	// Routes
	RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Handler: r,
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		// upstream calls may take up to google.timeout
		WriteTimeout: cfg.Google.Timeout + 15*time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, router: r, srv: srv}, nil
}

func (a *Application) Handler() http.Handler {
	return a.router
}

// Run starts the HTTP server and blocks until ctx is done or the server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.deps.Health.SetReady(true)
	log.Infof("Open %s to choose an authentication flow", a.cfg.Host)

	select {
	case err := <-errCh:
		a.deps.Health.SetReady(false)
		if err != nil {
			log.Errorf("server failed: %v", err)
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	a.deps.Health.SetShuttingDown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

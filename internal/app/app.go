package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/crudzilla/crudzilla/internal/auth"
	"github.com/crudzilla/crudzilla/internal/config"
	"github.com/crudzilla/crudzilla/internal/security"
	"github.com/crudzilla/crudzilla/internal/service/crud"
	"github.com/crudzilla/crudzilla/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, opens the
// configured store, registers the catalog and serves the REST API until ctx
// is cancelled or the process receives SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("store_driver", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer b.close()

	handler, err := newHandler(cfg, logger, b)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newHandler assembles the registry, the CRUD service and the HTTP router.
func newHandler(cfg *config.Config, logger *slog.Logger, b *backend) (http.Handler, error) {
	reg, err := newRegistry(logger, b)
	if err != nil {
		return nil, err
	}
	logger.Info("registry sealed", slog.Any("keys", reg.Keys()))

	gate := security.NewGate(logger, reg, security.NewCUEEvaluator())
	svc := crud.NewService(logger, reg, gate, b.tx,
		crud.WithSearchCache(cfg.Search.CacheSize, cfg.Search.CacheTTL),
	)

	return rest.NewRouter(rest.RouterDeps{
		CRUD:     rest.NewCRUDHandler(svc, logger),
		Health:   rest.NewHealthHandler(b.db, reg, BuildVersion()),
		Verifier: auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
		CORS:     cfg.CORS,
		Log:      logger,
	}), nil
}

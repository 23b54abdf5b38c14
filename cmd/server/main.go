package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Luca-B431/bill-app/internal/api"
	"github.com/Luca-B431/bill-app/internal/auth"
	"github.com/Luca-B431/bill-app/internal/config"
	"github.com/Luca-B431/bill-app/internal/metrics"
	"github.com/Luca-B431/bill-app/internal/storage"
	"github.com/Luca-B431/bill-app/internal/storage/sqlite"
	"github.com/Luca-B431/bill-app/internal/web"
	"github.com/Luca-B431/bill-app/pkg/logging"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "billed:", err)
		os.Exit(2)
	}
	logging.Setup(cfg.Log.Level)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	m := metrics.New()

	provider, purge, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer provider.Close()

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Metrics:    m,
	})
	if err != nil {
		return err
	}
	slog.Info("Backend configured", "base_url", client.BaseURL(), "timeout", cfg.API.Timeout)

	srv, err := web.NewServer(web.Config{
		Storage:        provider,
		Client:         client,
		Sessions:       auth.NewSessionManager(cfg.Server.CookieSecret, cfg.Server.SessionLifetime),
		SecureCookie:   cfg.Server.SecureCookie,
		IdleTimeout:    cfg.Server.IdleTimeout,
		ExcludedEmails: cfg.Dashboard.ExcludedEmails,
		Metrics:        m,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	// h2c serves HTTP/2 without TLS behind a terminating proxy.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweep(ctx, srv, purge, cfg.Server.SessionLifetime)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Billed client starting", "address", httpServer.Addr, "url", fmt.Sprintf("http://localhost%s", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// purgeFunc deletes session data last written before cutoff.
type purgeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

func openStorage(cfg *config.Config) (storage.Provider, purgeFunc, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		slog.Info("Storage initialized", "driver", config.StorageMemory)
		return storage.NewMemory(), nil, nil
	}

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Storage initialized", "driver", config.StorageSQLite, "database", cfg.Storage.Path)
	return store, store.PurgeBefore, nil
}

// sweep periodically drops idle sessions from memory and expired sessions
// from storage.
func sweep(ctx context.Context, srv *web.Server, purge purgeFunc, lifetime time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			srv.Sweep(now)
			if purge == nil {
				continue
			}
			n, err := purge(ctx, now.Add(-lifetime))
			if err != nil {
				slog.Warn("Session purge failed", "error", err)
			} else if n > 0 {
				slog.Debug("Expired sessions purged", "rows", n)
			}
		}
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/console"
	"github.com/foxzi/backoffice/internal/debounce"
	"github.com/foxzi/backoffice/internal/metrics"
	"github.com/foxzi/backoffice/internal/session"
	"github.com/foxzi/backoffice/internal/web/handlers"
	"github.com/foxzi/backoffice/internal/web/server"
	"github.com/foxzi/backoffice/internal/web/views"
)

const sessionSweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web console",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp("", os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		a.logger.Info("shutting down...")
		cancel()
	}()

	var users console.WaitlistLister
	if a.cfg.Waitlist.MongoURI != "" {
		svc, err := a.waitlistService(ctx)
		if err != nil {
			return err
		}
		users = svc
	} else {
		a.logger.Warn("waitlist.mongo_uri is not set; the waitlist page will show a load error")
		users = unconfiguredWaitlist{}
	}

	registry := console.NewRegistry(console.Services{
		Feedback:    a.feedback,
		Waitlist:    users,
		Templates:   a.templates,
		Email:       a.email,
		SearchDelay: debounce.DefaultDelay,
	})

	if a.cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		go metrics.RunSystemGauges(ctx, m, 15*time.Second)

		ms := metrics.NewServer(m, a.cfg.Metrics.ListenAddr, a.cfg.Metrics.Path, a.cfg.Metrics.AllowedIPs, a.cfg.Metrics.TrustedProxies, a.logger)
		go func() {
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ms.Shutdown(shutdownCtx)
		}()
	}

	go sweepSessions(ctx, a.sessions, registry, a.cfg.Sessions.TTL, a.logger)

	engine, err := views.New()
	if err != nil {
		return err
	}

	h := handlers.New(engine, a.sessions, a.auth, registry, handlers.Options{
		SessionTTL:    a.cfg.Sessions.TTL,
		SecureCookies: a.cfg.Server.TLS.Enabled,
	}, a.logger)

	srv := server.New(&a.cfg.Server, h, a.sessions, a.auth, a.logger)
	return srv.Run(ctx)
}

// sweepSessions drops expired sessions and idle page state, and keeps the
// active session gauge current
func sweepSessions(ctx context.Context, store session.Store, registry *console.Registry, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Cleanup(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", "error", err)
			} else if removed > 0 {
				logger.Info("expired sessions removed", "count", removed)
			}
			if n := registry.Sweep(ttl); n > 0 {
				logger.Debug("idle page state dropped", "count", n)
			}
			if n, err := store.Count(ctx); err == nil {
				metrics.SetActiveSessions(n)
			}
		}
	}
}

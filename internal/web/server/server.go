package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/backoffice/internal/config"
	"github.com/foxzi/backoffice/internal/ipfilter"
	"github.com/foxzi/backoffice/internal/metrics"
	"github.com/foxzi/backoffice/internal/session"
	"github.com/foxzi/backoffice/internal/web/handlers"
	"github.com/foxzi/backoffice/internal/web/middleware"
	"github.com/foxzi/backoffice/internal/web/static"
)

type Server struct {
	cfg       *config.ServerConfig
	logger    *slog.Logger
	handlers  *handlers.Handlers
	sessions  session.Store
	refresher middleware.Refresher
	filter    *ipfilter.Filter
	http      *http.Server
}

func New(cfg *config.ServerConfig, h *handlers.Handlers, sessions session.Store, refresher middleware.Refresher, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger.With("component", "server"),
		handlers:  h,
		sessions:  sessions,
		refresher: refresher,
		filter:    ipfilter.New(cfg.AllowedIPs, logger).TrustProxies(cfg.TrustedProxies),
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	h := s.handlers
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if s.filter.TrustsProxies() {
		r.Use(s.filter.RealIP)
	}
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(metrics.HTTPMiddleware)
	r.Use(s.filter.Middleware)

	// Health check
	r.Get("/health", h.Health)

	// Static files (embedded)
	r.Handle("/static/*", http.StripPrefix("/static/", static.Handler()))

	// Auth routes (public)
	r.Get("/auth/login", h.LoginPage)
	r.Post("/auth/login", h.Login)
	r.Get("/auth/logout", h.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(s.sessions, s.refresher, s.logger))

		r.Get("/", h.Home)

		r.Get("/feedbacks", h.FeedbackList)
		r.Get("/feedbacks/search", h.FeedbackSearch)
		r.Get("/feedbacks/{id}", h.FeedbackView)

		r.Route("/waitlist", func(r chi.Router) {
			r.Get("/", h.WaitlistList)
			r.Get("/search", h.WaitlistSearch)
			r.Post("/select-all", h.WaitlistToggleAll)
			r.Post("/select/{id}", h.WaitlistToggle)

			r.Get("/compose", h.ComposePage)
			r.Post("/compose/template", h.ComposeTemplate)
			r.Post("/compose/mode", h.ComposeMode)
			r.Get("/compose/preview", h.ComposePreview)
			r.Post("/compose/send", h.ComposeSend)
			r.Post("/compose/close", h.ComposeClose)
		})

		r.Get("/admins/new", h.AdminNew)
		r.Post("/admins", h.AdminCreate)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting web server", "addr", s.cfg.ListenAddr, "tls", s.cfg.TLS.Enabled)
		var err error
		if s.cfg.TLS.Enabled {
			err = s.http.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.http.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down web server")
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
		return nil
	}
}

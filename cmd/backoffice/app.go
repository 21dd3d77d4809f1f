package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/auth"
	"github.com/foxzi/backoffice/internal/config"
	"github.com/foxzi/backoffice/internal/email"
	"github.com/foxzi/backoffice/internal/feedback"
	"github.com/foxzi/backoffice/internal/session"
	"github.com/foxzi/backoffice/internal/waitlist"
)

// cliSessionID is the session the CLI keeps its tokens under
const cliSessionID = "cli"

// app bundles the services shared by the web server and the CLI commands
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions session.Store
	client   *apiclient.Client

	auth      *auth.Service
	feedback  *feedback.Service
	email     *email.Service
	templates *email.TemplateService

	mongo *waitlist.MongoStore
}

// newApp loads the configuration, opens the session store and builds the
// API services. fallbackID scopes tokens when the context names no session.
func newApp(fallbackID string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging, logOut)
	slog.SetDefault(logger)

	sessions, err := openSessionStore(cfg.Sessions)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(cfg.API.BaseURL, session.NewContextTokens(sessions, fallbackID, cfg.Sessions.TTL), cfg.API.Timeout)

	return &app{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		client:    client,
		auth:      auth.NewService(client, logger),
		feedback:  feedback.NewService(client),
		email:     email.NewService(client, logger),
		templates: email.NewTemplateService(client),
	}, nil
}

// waitlistService connects to the document store on first use
func (a *app) waitlistService(ctx context.Context) (*waitlist.Service, error) {
	wc := a.cfg.Waitlist
	if a.mongo == nil {
		if wc.MongoURI == "" {
			return nil, fmt.Errorf("waitlist.mongo_uri is not configured")
		}
		store, err := waitlist.ConnectMongo(ctx, wc.MongoURI, wc.Database, wc.Collection, wc.Timeout)
		if err != nil {
			return nil, err
		}
		a.mongo = store
		a.logger.Info("connected to waitlist store", "database", wc.Database, "collection", wc.Collection)
	}

	return waitlist.NewService(a.mongo, a.client, waitlist.Options{
		DefaultLimit: wc.DefaultLimit,
		SearchCap:    wc.SearchCap,
		ServerSearch: wc.ServerSearch,
	}, a.logger), nil
}

func (a *app) Close() {
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Waitlist.Timeout)
		defer cancel()
		if err := a.mongo.Close(ctx); err != nil {
			a.logger.Warn("failed to close waitlist store", "error", err)
		}
	}
	if err := a.sessions.Close(); err != nil {
		a.logger.Warn("failed to close session store", "error", err)
	}
}

func openSessionStore(cfg config.SessionsConfig) (session.Store, error) {
	switch cfg.Backend {
	case "redis":
		return session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, cfg.Secret)
	default:
		return session.NewBoltStore(cfg.Path, cfg.Secret)
	}
}

func newLogger(cfg config.LoggingConfig, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// cliApp builds the app for one-shot commands. Logs go to stderr so
// command output stays parseable.
func cliApp() (*app, error) {
	return newApp(cliSessionID, os.Stderr)
}

package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
	"github.com/nguyenvanduocit/indictrans/pkg/backend/anthropic"
	"github.com/nguyenvanduocit/indictrans/pkg/backend/remote"
	"github.com/nguyenvanduocit/indictrans/pkg/config"
	"github.com/nguyenvanduocit/indictrans/pkg/model"
	"github.com/nguyenvanduocit/indictrans/pkg/store"
	"github.com/nguyenvanduocit/indictrans/pkg/translation"
)

// App is a fully wired handler together with the parts that need closing.
type App struct {
	Handler *Handler
	Session *model.Session
	Service *translation.Service
	History *store.Store
}

func (a *App) Close() error {
	var errs []error
	if err := a.Session.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func NewBackend(cfg *config.Config) backend.Backend {
	var b backend.Backend
	switch cfg.Model.Backend {
	case config.BackendAnthropic:
		b = anthropic.New(anthropic.Config{
			APIKey:            cfg.Anthropic.APIKey,
			Model:             cfg.Anthropic.Model,
			Temperature:       cfg.Anthropic.Temperature,
			RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
		})
	default:
		b = remote.New(remote.Config{
			BaseURL: cfg.Remote.BaseURL,
			Timeout: cfg.Remote.Timeout,
		})
	}

	if cfg.Cache.Enabled {
		b = backend.NewCached(b, backend.CacheConfig{
			TTL:         cfg.Cache.TTL,
			MaxCost:     cfg.Cache.MaxCost,
			NumCounters: cfg.Cache.NumCounters,
		})
	}
	return b
}

// Build wires a backend into a session, service and handler. b may be nil,
// in which case the configured backend is used.
func Build(ctx context.Context, cfg *config.Config, b backend.Backend, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if b == nil {
		b = NewBackend(cfg)
	}

	caps := model.ResolveCapabilities(ctx, b)
	if !caps.BackendAvailable {
		logger.Warn("Translation backend not available", "backend", b.Name(), "reason", caps.Reason)
	}

	// the anthropic backend has no local weights
	probe := cfg.Model.ProbeArtifacts && cfg.Model.Backend != config.BackendAnthropic

	session := model.NewSession(b, model.Config{
		Dir:            cfg.Model.Dir,
		Device:         cfg.Model.Device,
		ProbeArtifacts: probe,
	}, caps, logger)

	app := &App{Session: session}

	deps := translation.Deps{Model: session, Logger: logger}
	if cfg.History.Path != "" {
		history, err := store.New(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.History = history
		deps.Recorder = history
	}

	app.Service = translation.New(deps, translation.Options{
		MaxWords:       cfg.Translation.MaxWords,
		MaxLength:      cfg.Translation.MaxLength,
		NumBeams:       cfg.Translation.NumBeams,
		MaxInputTokens: cfg.Translation.MaxInputTokens,
	})
	app.Handler = NewHandler(session, app.Service, logger)

	if cfg.Model.Preload {
		// a failed preload leaves the session to retry on the first request
		_ = session.Load(ctx)
	}

	return app, nil
}

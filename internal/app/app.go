package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/buildgrid/internal/ctxlog"
	"github.com/specialistvlad/buildgrid/internal/declsource"
	"github.com/specialistvlad/buildgrid/internal/localsession"
	"github.com/specialistvlad/buildgrid/internal/planner"
	"github.com/specialistvlad/buildgrid/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *planner.Registry
	source   *declsource.FileSource
	session  session.Session
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger, registry and session. When
// no modules are given the core modules are used.
func NewApp(outW io.Writer, cfg *Config, modules ...planner.Module) (*App, error) {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := planner.New()
	if len(modules) == 0 {
		modules = coreModules(cfg)
	}
	reg.Use(modules...)
	logger.Debug("All planner modules registered.", "count", len(modules), "goals", reg.Goals())

	source, err := declsource.NewFileSource(cfg.Root, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open declaration root: %w", err)
	}
	logger.Debug("Declaration source ready.", "root", source.Root(), "cache_size", cfg.CacheSize)

	sess, err := (&localsession.SessionFactory{}).NewSession(ctx, source, reg, session.Options{
		Workers:  cfg.Workers,
		FailFast: cfg.FailFast,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		source:   source,
		session:  sess,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *planner.Registry {
	return a.registry
}

// Session returns the application's build session.
func (a *App) Session() session.Session {
	return a.session
}

// Close releases the session.
func (a *App) Close() error {
	return a.session.Close(ctxlog.WithLogger(context.Background(), a.logger))
}

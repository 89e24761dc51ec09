package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/fetchgo/internal/ctxlog"
	"github.com/vk/fetchgo/internal/profile"
	"github.com/vk/fetchgo/internal/registry"
)

// App encapsulates the launcher's dependencies and lifecycle: a logger, the
// immutable backend registry, and the loaded profile set.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	profiles *profile.Set
}

// NewApp is the constructor for the launcher. It configures logging first,
// then loads profiles, then builds the registry - in that order, exactly
// once. Fatal startup problems (an unreadable profiles path, a duplicate
// backend name) panic; the boundary in cmd/cli recovers them into a clean
// nonzero exit, so a partially built App is never returned.
//
// The variadic backends parameter is a test seam: production callers leave
// it empty and get the compiled-in coreBackends table.
func NewApp(outW, logW io.Writer, cfg *Config, backends ...registry.Module) *App {
	logger := newLogger(cfg.Debug, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "debug", cfg.Debug, "format", cfg.LogFormat)

	profiles := profile.Empty()
	if cfg.ProfilesPath != "" {
		loaded, err := profile.Load(ctx, cfg.ProfilesPath)
		if err != nil {
			// A failure to load profiles is a fatal startup error.
			panic(fmt.Errorf("failed to load backend profiles: %w", err))
		}
		profiles = loaded
		logger.Debug("Backend profiles loaded.", "path", cfg.ProfilesPath)
	}

	reg := registry.New()
	if len(backends) == 0 {
		backends = coreBackends
	}
	for _, b := range backends {
		b.Register(reg)
	}
	logger.Debug("All backends registered.", "count", reg.Len(), "names", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		profiles: profiles,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

package app

import (
	"context"

	"github.com/vk/fetchgo/internal/ctxlog"
	"github.com/vk/fetchgo/internal/registry"
)

// UnknownBackendError reports a backend name absent from the registry. No
// backend object is constructed when it occurs.
type UnknownBackendError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownBackendError) Error() string {
	return "Unknown backend " + e.Name
}

// Run resolves the configured backend and executes it synchronously. The
// forwarded arguments reach the backend's constructor byte-for-byte; any
// error the backend returns, from construction or execution, propagates
// unchanged with no retries.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "backend", cfg.BackendName)

	desc, ok := a.registry.Lookup(cfg.BackendName)
	if !ok {
		return &UnknownBackendError{Name: cfg.BackendName}
	}
	a.logger.Debug("Backend resolved.", "backend", desc.Name)

	params := registry.Params{
		Args: cfg.BackendArgs,
		Out:  a.outW,
	}
	if body, found := a.profiles.Lookup(desc.Name); found {
		params.Settings = body
		params.EvalCtx = a.profiles.EvalContext()
	}

	runner, err := desc.New(params)
	if err != nil {
		return err
	}

	a.logger.Info("Dispatching backend.", "backend", desc.Name)
	if err := runner.Run(ctx); err != nil {
		return err
	}
	a.logger.Info("Backend finished.", "backend", desc.Name)

	return nil
}

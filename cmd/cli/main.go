package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/fetchgo/internal/app"
	"github.com/vk/fetchgo/internal/cli"
)

// main is the error and signal boundary: every failure and interruption
// outcome is translated into a process exit code here and nowhere else.
func main() {
	// Use a minimal logger until the full profile is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])

	code, msg := exitStatus(ctx.Err(), err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus translates a finished run into the process exit code and the
// message for standard error. An interrupt always wins: graceful
// termination, exit 0 with a distinct message, regardless of whatever state
// the backend was in when the signal arrived.
func exitStatus(signalErr, runErr error) (int, string) {
	if signalErr != nil {
		return 0, "\nReceived interrupt signal, exiting."
	}
	if runErr == nil {
		return 0, ""
	}
	if exitErr, ok := runErr.(*cli.ExitError); ok {
		return exitErr.Code, exitErr.Message
	}
	return 1, runErr.Error()
}

// run encapsulates the launcher logic for easier testing and error handling.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Pin the process-wide logging profile before the registry is built and
	// before any backend runs. Never reconfigured afterwards.
	app.ConfigureProcessLogging(appConfig, logW)

	fetchApp, err := newApp(outW, logW, appConfig)
	if err != nil {
		return err
	}

	return fetchApp.Run(ctx, appConfig)
}

// newApp recovers the fatal startup panics app.NewApp raises (duplicate
// backend names, unreadable profiles) into ordinary errors. The recover is
// scoped to construction only: a panic out of a running backend is a runtime
// failure and is not relabeled as startup.
func newApp(outW, logW io.Writer, cfg *app.Config) (a *app.App, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()
	return app.NewApp(outW, logW, cfg), nil
}

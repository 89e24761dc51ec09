package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/fetchgo/internal/app"
	"github.com/vk/fetchgo/internal/cli"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_VersionShortCircuits(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-v"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "fetchgo")
}

func TestRun_NoArgumentsIsUsageError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, nil)

	require.Error(t, err)
	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok)
	require.Equal(t, 1, exitErr.Code)
	require.Contains(t, out.String(), "Usage:", "usage text must precede the nonzero exit")
}

func TestRun_UnknownBackend(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"nosuchbackend"})

	require.Error(t, err)
	require.Equal(t, "Unknown backend nosuchbackend", err.Error())
	_, isExitErr := err.(*cli.ExitError)
	require.False(t, isExitErr, "unknown backends use the default nonzero exit path")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Providing an unknown flag will cause cli.Parse to return an error.
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestExitStatus(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("fetch failed halfway through")

	testCases := []struct {
		name         string
		signalErr    error
		runErr       error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "Clean run",
			expectedCode: 0,
			expectedMsg:  "",
		},
		{
			name:         "Interrupt with no error",
			signalErr:    context.Canceled,
			expectedCode: 0,
			expectedMsg:  "\nReceived interrupt signal, exiting.",
		},
		{
			name:         "Interrupt wins over a backend error",
			signalErr:    context.Canceled,
			runErr:       backendErr,
			expectedCode: 0,
			expectedMsg:  "\nReceived interrupt signal, exiting.",
		},
		{
			name:         "ExitError carries its own code",
			runErr:       &cli.ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"},
			expectedCode: 2,
			expectedMsg:  "invalid log-format: must be 'text' or 'json'",
		},
		{
			name:         "Plain errors exit 1",
			runErr:       backendErr,
			expectedCode: 1,
			expectedMsg:  "fetch failed halfway through",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, msg := exitStatus(tc.signalErr, tc.runErr)

			require.Equal(t, tc.expectedCode, code)
			require.Equal(t, tc.expectedMsg, msg)
		})
	}
}

func TestRun_StartupPanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A malformed profiles file is guaranteed to panic inside app.NewApp.
	tempDir := t.TempDir()
	profilePath := filepath.Join(tempDir, "profiles.hcl")
	require.NoError(t, os.WriteFile(profilePath, []byte(`backend "git" {`), 0600), "failed to set up test file")

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--profiles", profilePath, "git", "--uri", "x"})

	// --- Assert ---
	require.Error(t, err, "run() should have returned an error after recovering from a panic")
	require.Contains(t, err.Error(), "application startup panicked")
	require.Contains(t, err.Error(), "failed to parse")
}

func TestNewApp_RecoverIsScopedToConstruction(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	badProfiles := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(badProfiles, []byte(`backend "git" {`), 0600))
	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}

	// --- Act ---
	_, startupErr := newApp(out, logs, &app.Config{BackendName: "git", LogFormat: "text", ProfilesPath: badProfiles})
	healthy, healthyErr := newApp(out, logs, &app.Config{BackendName: "git", LogFormat: "text"})

	// --- Assert ---
	require.Error(t, startupErr)
	require.Contains(t, startupErr.Error(), "application startup panicked",
		"construction panics are labeled as startup failures")
	require.NoError(t, healthyErr)
	require.NotNil(t, healthy,
		"once construction succeeded there is no recover left to mislabel a backend's runtime panic")
}

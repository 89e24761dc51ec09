package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/stretchr/testify/require"

	"github.com/vk/fetchgo/internal/registry"
)

// stubBackend records what the launcher hands to its constructor and runner.
type stubBackend struct {
	name        string
	gotArgs     []string
	gotSettings string
	constructed bool
	ran         bool
	runErr      error
	newErr      error
}

func (s *stubBackend) Register(r *registry.Registry) {
	r.Register(&registry.Descriptor{
		Name:    s.name,
		Summary: "stub backend for tests",
		New: func(p registry.Params) (registry.Runner, error) {
			s.constructed = true
			s.gotArgs = p.Args
			if p.Settings != nil {
				var decoded struct {
					Marker string `hcl:"marker,optional"`
				}
				if diags := gohcl.DecodeBody(p.Settings, p.EvalCtx, &decoded); !diags.HasErrors() {
					s.gotSettings = decoded.Marker
				}
			}
			if s.newErr != nil {
				return nil, s.newErr
			}
			return s, nil
		},
	})
}

func (s *stubBackend) Run(ctx context.Context) error {
	s.ran = true
	return s.runErr
}

func TestRun_ForwardsArgsVerbatim(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	stub := &stubBackend{name: "stub"}
	tail := []string{"--uri", "repo", "extra", "--", "-g"}
	cfg := &Config{BackendName: "stub", BackendArgs: tail, LogFormat: "text"}
	testApp, _, _ := SetupAppTest(t, cfg, stub)

	// --- Act ---
	err := testApp.Run(context.Background(), cfg)

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, stub.constructed)
	require.True(t, stub.ran)
	require.Equal(t, tail, stub.gotArgs, "the forwarded tail must reach the constructor byte-for-byte and in order")
}

func TestRun_UnknownBackendConstructsNothing(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{name: "stub"}
	cfg := &Config{BackendName: "nosuchbackend", LogFormat: "text"}
	testApp, _, _ := SetupAppTest(t, cfg, stub)

	err := testApp.Run(context.Background(), cfg)

	require.Error(t, err)
	require.Equal(t, "Unknown backend nosuchbackend", err.Error())
	var unknownErr *UnknownBackendError
	require.True(t, errors.As(err, &unknownErr))
	require.False(t, stub.constructed, "no backend object may be constructed for an unknown name")
	require.False(t, stub.ran)
}

func TestRun_BackendErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("rate limited by upstream")
	stub := &stubBackend{name: "stub", runErr: backendErr}
	cfg := &Config{BackendName: "stub", LogFormat: "text"}
	testApp, _, _ := SetupAppTest(t, cfg, stub)

	err := testApp.Run(context.Background(), cfg)

	require.Same(t, backendErr, err, "execution failures must propagate with no wrapping and no retry")
	require.True(t, stub.ran)
}

func TestRun_ConstructorErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()

	newErr := errors.New("stub backend requires --uri")
	stub := &stubBackend{name: "stub", newErr: newErr}
	cfg := &Config{BackendName: "stub", BackendArgs: []string{"--bogus"}, LogFormat: "text"}
	testApp, _, _ := SetupAppTest(t, cfg, stub)

	err := testApp.Run(context.Background(), cfg)

	require.Same(t, newErr, err)
	require.False(t, stub.ran, "a failed constructor must never be run")
}

func TestRun_ProfileBodyReachesItsBackend(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	profilePath := filepath.Join(t.TempDir(), "profiles.hcl")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
backend "stub" {
  marker = "from-profile"
}

backend "other" {
  marker = "wrong-block"
}
`), 0600))

	stub := &stubBackend{name: "stub"}
	other := &stubBackend{name: "other"}
	cfg := &Config{BackendName: "stub", LogFormat: "text", ProfilesPath: profilePath}
	testApp, _, _ := SetupAppTest(t, cfg, stub, other)

	// --- Act ---
	err := testApp.Run(context.Background(), cfg)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "from-profile", stub.gotSettings)
	require.False(t, other.constructed, "only the requested backend is constructed")
}

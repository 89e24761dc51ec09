package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_SingleFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeProfile(t, t.TempDir(), "profiles.hcl", `
backend "git" {
  binary = "/usr/local/bin/git"
}

backend "github" {
  api_url = "https://ghe.example.com/api/v3"
}
`)

	// --- Act ---
	set, err := Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)

	body, ok := set.Lookup("git")
	require.True(t, ok)

	var decoded struct {
		Binary string `hcl:"binary,optional"`
	}
	diags := gohcl.DecodeBody(body, set.EvalContext(), &decoded)
	require.False(t, diags.HasErrors(), "the owning backend must be able to decode its raw body: %s", diags)
	require.Equal(t, "/usr/local/bin/git", decoded.Binary)

	_, ok = set.Lookup("socketio")
	require.False(t, ok, "backends without a block must miss")
}

func TestLoad_DirectoryIsScannedRecursively(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProfile(t, dir, "git.hcl", `backend "git" {}`)
	sub := filepath.Join(dir, "extra")
	require.NoError(t, os.Mkdir(sub, 0750))
	writeProfile(t, sub, "github.hcl", `backend "github" {}`)

	set, err := Load(context.Background(), dir)

	require.NoError(t, err)
	_, okGit := set.Lookup("git")
	_, okGithub := set.Lookup("github")
	require.True(t, okGit)
	require.True(t, okGithub)
}

func TestLoad_DuplicateBlockIsFatal(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, t.TempDir(), "profiles.hcl", `
backend "git" {}
backend "git" {}
`)

	_, err := Load(context.Background(), path)

	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate profile block for backend 'git'")
}

func TestLoad_UnreachablePathIsFatal(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))

	require.Error(t, err)
	require.Contains(t, err.Error(), "profiles path is unreachable")
}

func TestLoad_MalformedHCLIsFatal(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, t.TempDir(), "broken.hcl", `backend "git" {`)

	_, err := Load(context.Background(), path)

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_EnvIsVisibleToProfileExpressions(t *testing.T) {
	// t.Setenv forbids t.Parallel.
	t.Setenv("FETCHGO_TEST_TOKEN", "s3cr3t")

	path := writeProfile(t, t.TempDir(), "profiles.hcl", `
backend "github" {
  token = env.FETCHGO_TEST_TOKEN
}
`)

	set, err := Load(context.Background(), path)
	require.NoError(t, err)

	body, ok := set.Lookup("github")
	require.True(t, ok)

	var decoded struct {
		Token string `hcl:"token,optional"`
	}
	diags := gohcl.DecodeBody(body, set.EvalContext(), &decoded)
	require.False(t, diags.HasErrors(), "%s", diags)
	require.Equal(t, "s3cr3t", decoded.Token)
}

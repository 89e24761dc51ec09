// Package git implements the version-control backend. It retrieves commit
// history from a local or remote repository by driving the system git binary
// and emits one item per commit.
package git

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/fetchgo/internal/ctxlog"
	"github.com/vk/fetchgo/internal/item"
	"github.com/vk/fetchgo/internal/registry"
)

// Name is the backend's canonical identifier.
const Name = "git"

// Field and record separators for the pretty format, chosen so they can
// never appear in commit metadata.
const (
	fieldSep  = "\x1f"
	recordSep = '\x1e'
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the backend with the launcher's registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Descriptor{
		Name:    Name,
		Summary: "Fetch commit history from a git repository.",
		New:     New,
	})
}

// Settings is the schema of the optional `backend "git"` profile block.
type Settings struct {
	// Binary overrides the git executable to run. Defaults to "git" on PATH.
	Binary string `hcl:"binary,optional"`
}

// Backend fetches commits from one repository.
type Backend struct {
	uri    string
	branch string
	limit  int
	binary string
	out    io.Writer
}

// New constructs the backend from the forwarded arguments. The argument
// grammar here is the backend's own; the launcher never sees it.
func New(p registry.Params) (registry.Runner, error) {
	var settings Settings
	if p.Settings != nil {
		if diags := gohcl.DecodeBody(p.Settings, p.EvalCtx, &settings); diags.HasErrors() {
			return nil, fmt.Errorf("invalid git profile: %w", diags)
		}
	}

	flagSet := flag.NewFlagSet(Name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	uri := flagSet.String("uri", "", "Repository URI: a local path or a clone URL.")
	branch := flagSet.String("branch", "", "Branch to walk. Defaults to the repository HEAD.")
	limit := flagSet.Int("limit", 0, "Maximum number of commits to fetch. 0 means all.")
	if err := flagSet.Parse(p.Args); err != nil {
		return nil, fmt.Errorf("git backend: %w", err)
	}

	if *uri == "" {
		return nil, fmt.Errorf("git backend requires --uri")
	}

	binary := settings.Binary
	if binary == "" {
		binary = "git"
	}

	return &Backend{
		uri:    *uri,
		branch: *branch,
		limit:  *limit,
		binary: binary,
		out:    p.Out,
	}, nil
}

// Run walks the repository history and emits one item per commit.
func (b *Backend) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("backend", Name, "uri", b.uri)

	repoDir, cleanup, err := b.resolveRepo(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{"-C", repoDir, "log", "--pretty=format:%H" + fieldSep + "%an" + fieldSep + "%ae" + fieldSep + "%aI" + fieldSep + "%s" + string(recordSep)}
	if b.limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", b.limit))
	}
	if b.branch != "" {
		args = append(args, b.branch)
	}

	cmd := exec.CommandContext(ctx, b.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open git log pipe: %w", err)
	}

	logger.Info("Walking repository history.", "branch", b.branch, "limit", b.limit)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", b.binary, err)
	}

	emitter := item.NewEmitter(b.out)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	scanner.Split(splitRecords)
	for scanner.Scan() {
		commit, ok := parseCommit(scanner.Text())
		if !ok {
			continue
		}
		it := &item.Item{
			ID:          item.NewID(Name, "commit", b.uri, commit["commit"].(string)),
			Backend:     Name,
			Category:    "commit",
			Origin:      b.uri,
			RetrievedAt: time.Now().UTC(),
			Data:        commit,
		}
		if err := emitter.Emit(it); err != nil {
			return fmt.Errorf("failed to emit commit: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed reading git log output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("git log failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	logger.Info("Repository history fetched.", "commits", emitter.Count())
	return nil
}

// resolveRepo returns a directory git can read history from. A local path is
// used in place; anything else is mirrored into a temporary bare clone that
// the returned cleanup removes.
func (b *Backend) resolveRepo(ctx context.Context) (string, func(), error) {
	if info, err := os.Stat(b.uri); err == nil && info.IsDir() {
		return b.uri, func() {}, nil
	}

	logger := ctxlog.FromContext(ctx)
	tempDir, err := os.MkdirTemp("", "fetchgo-git-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(tempDir) }

	logger.Info("Cloning repository.", "uri", b.uri)
	cmd := exec.CommandContext(ctx, b.binary, "clone", "--bare", "--quiet", b.uri, tempDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("git clone failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return tempDir, cleanup, nil
}

// splitRecords is a bufio.SplitFunc yielding one record-separated commit at
// a time.
func splitRecords(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, recordSep); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	if atEOF {
		return 0, nil, bufio.ErrFinalToken
	}
	return 0, nil, nil
}

// parseCommit converts one pretty-format record into an item payload.
func parseCommit(record string) (map[string]any, bool) {
	record = strings.TrimLeft(record, "\n")
	fields := strings.Split(record, fieldSep)
	if len(fields) != 5 || fields[0] == "" {
		return nil, false
	}
	return map[string]any{
		"commit":       fields[0],
		"author":       fields[1],
		"author_email": fields[2],
		"authored_at":  fields[3],
		"summary":      fields[4],
	}, true
}

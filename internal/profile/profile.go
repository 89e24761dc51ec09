package profile

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/fetchgo/internal/ctxlog"
	"github.com/vk/fetchgo/internal/fsutil"
)

// backendBlock is the HCL schema for one `backend "<name>" { ... }` block.
// The body stays raw: only the named backend knows how to decode it.
type backendBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// fileSchema is the top-level schema of a profiles file.
type fileSchema struct {
	Backends []*backendBlock `hcl:"backend,block"`
}

// Set holds the loaded profile bodies, keyed by backend name, together with
// the evaluation context backends use to decode them.
type Set struct {
	bodies  map[string]hcl.Body
	evalCtx *hcl.EvalContext
}

// Empty returns a Set with no profile blocks. Lookups miss; the eval context
// is still populated so backends can decode defaults uniformly.
func Empty() *Set {
	return &Set{
		bodies:  make(map[string]hcl.Body),
		evalCtx: newEvalContext(),
	}
}

// Load reads backend profile blocks from path, which may be a single .hcl
// file or a directory searched recursively. A duplicate block for the same
// backend is a fatal load error, mirroring the registry's duplicate policy.
func Load(ctx context.Context, path string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("profiles path is unreachable: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to scan profiles directory %s: %w", path, err)
		}
	} else {
		files = []string{path}
	}
	logger.Debug("Loading backend profiles.", "path", path, "files", len(files))

	set := Empty()
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse profiles file %s: %w", file, diags)
		}

		var schema fileSchema
		if diags := gohcl.DecodeBody(hclFile.Body, set.evalCtx, &schema); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode profiles file %s: %w", file, diags)
		}

		for _, block := range schema.Backends {
			if _, exists := set.bodies[block.Name]; exists {
				return nil, fmt.Errorf("duplicate profile block for backend '%s' in %s", block.Name, file)
			}
			set.bodies[block.Name] = block.Body
			logger.Debug("Loaded backend profile.", "backend", block.Name, "file", file)
		}
	}

	return set, nil
}

// Lookup returns the raw profile body for a backend name, if one was loaded.
func (s *Set) Lookup(backend string) (hcl.Body, bool) {
	body, ok := s.bodies[backend]
	return body, ok
}

// EvalContext returns the evaluation context for decoding profile bodies.
func (s *Set) EvalContext() *hcl.EvalContext {
	return s.evalCtx
}

// newEvalContext exposes the process environment to profile expressions as
// the `env` map, so manifests can write token = env.GITHUB_TOKEN instead of
// inlining secrets.
func newEvalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = cty.StringVal(value)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.MapVal(nonEmptyOrPlaceholder(env)),
		},
	}
}

// nonEmptyOrPlaceholder guards against cty.MapVal's panic on empty maps.
func nonEmptyOrPlaceholder(env map[string]cty.Value) map[string]cty.Value {
	if len(env) > 0 {
		return env
	}
	return map[string]cty.Value{"_": cty.StringVal("")}
}

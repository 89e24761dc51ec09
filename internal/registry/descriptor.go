package registry

import (
	"context"
	"io"

	"github.com/hashicorp/hcl/v2"
)

// Runner is the zero-argument run entry point every backend exposes. Run
// performs the backend's entire fetch and returns its own error semantics,
// which the launcher propagates without interpretation.
type Runner interface {
	Run(ctx context.Context) error
}

// Params carries everything a backend constructor receives from the
// launcher. Args is the forwarded command-line tail, verbatim and in order;
// the core never parses it.
type Params struct {
	// Args holds every token that followed the backend name on the command
	// line, unmodified.
	Args []string

	// Out is where the backend writes its fetched records.
	Out io.Writer

	// Settings is the raw body of this backend's profile block, if a
	// profiles file declared one. Nil means no block. Only the backend
	// itself decodes it.
	Settings hcl.Body

	// EvalCtx is the evaluation context for decoding Settings. Nil when
	// Settings is nil.
	EvalCtx *hcl.EvalContext
}

// Descriptor describes one installed backend: its canonical name and a
// constructor for its runnable type. Descriptors are immutable once
// registered.
type Descriptor struct {
	// Name is the unique canonical identifier users type on the command line.
	Name string

	// Summary is a one-line description shown in usage text.
	Summary string

	// New constructs the backend's runner from the forwarded arguments.
	// Argument validation errors are the backend's own failures.
	New func(p Params) (Runner, error)
}

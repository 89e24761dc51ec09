// Package socketio implements the event-stream backend. It connects to a
// socket.io endpoint, subscribes to one event, and records a fixed number of
// occurrences as items. Chat transcripts and similar live feeds are fetched
// this way.
package socketio

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/fetchgo/internal/ctxlog"
	"github.com/vk/fetchgo/internal/item"
	"github.com/vk/fetchgo/internal/registry"
)

// Name is the backend's canonical identifier.
const Name = "socketio"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the backend with the launcher's registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Descriptor{
		Name:    Name,
		Summary: "Record events from a socket.io endpoint.",
		New:     New,
	})
}

// Settings is the schema of the optional `backend "socketio"` profile block.
type Settings struct {
	// URL is the default endpoint when --url is not given.
	URL string `hcl:"url,optional"`

	// Timeout is the default wait budget, as a Go duration string.
	Timeout string `hcl:"timeout,optional"`
}

// Backend records events from one endpoint.
type Backend struct {
	url       string
	namespace string
	event     string
	count     int
	timeout   time.Duration
	insecure  bool
	out       io.Writer
}

// New constructs the backend from the forwarded arguments.
func New(p registry.Params) (registry.Runner, error) {
	var settings Settings
	if p.Settings != nil {
		if diags := gohcl.DecodeBody(p.Settings, p.EvalCtx, &settings); diags.HasErrors() {
			return nil, fmt.Errorf("invalid socketio profile: %w", diags)
		}
	}

	flagSet := flag.NewFlagSet(Name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	endpoint := flagSet.String("url", "", "socket.io endpoint URL. Falls back to the profile.")
	namespace := flagSet.String("namespace", "/", "socket.io namespace to join.")
	event := flagSet.String("event", "", "Event name to record.")
	count := flagSet.Int("count", 1, "Number of events to record before finishing.")
	timeout := flagSet.String("timeout", "", "Overall wait budget (e.g. '30s'). Falls back to the profile, then 30s.")
	insecure := flagSet.Bool("insecure", false, "Skip TLS certificate verification.")
	if err := flagSet.Parse(p.Args); err != nil {
		return nil, fmt.Errorf("socketio backend: %w", err)
	}

	resolvedURL := *endpoint
	if resolvedURL == "" {
		resolvedURL = settings.URL
	}
	if resolvedURL == "" {
		return nil, fmt.Errorf("socketio backend requires --url")
	}
	if *event == "" {
		return nil, fmt.Errorf("socketio backend requires --event")
	}
	if *count < 1 {
		return nil, fmt.Errorf("socketio backend: --count must be at least 1")
	}

	rawTimeout := *timeout
	if rawTimeout == "" {
		rawTimeout = settings.Timeout
	}
	waitBudget := 30 * time.Second
	if rawTimeout != "" {
		parsed, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return nil, fmt.Errorf("socketio backend: invalid --timeout '%s': %w", rawTimeout, err)
		}
		waitBudget = parsed
	}

	return &Backend{
		url:       resolvedURL,
		namespace: *namespace,
		event:     *event,
		count:     *count,
		timeout:   waitBudget,
		insecure:  *insecure,
		out:       p.Out,
	}, nil
}

// opResult is a private struct to safely pass the outcome through channels.
type opResult struct {
	err error
}

// eventHandler returns the callback recording one event occurrence. The
// client library may dispatch events concurrently, so the sequence number is
// claimed atomically up front: each occurrence gets a unique ID, occurrences
// past the requested count are dropped, and exactly one completion is sent.
func (b *Backend) eventHandler(emitter *item.Emitter, seq *atomic.Int64, done chan<- opResult) func(...any) {
	return func(data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}

		n := seq.Add(1)
		if n > int64(b.count) {
			return
		}

		it := &item.Item{
			ID:          item.NewID(Name, "event", b.url, b.event+"#"+strconv.FormatInt(n-1, 10)),
			Backend:     Name,
			Category:    "event",
			Origin:      b.url,
			RetrievedAt: time.Now().UTC(),
			Data: map[string]any{
				"event":   b.event,
				"payload": payload,
			},
		}
		if err := emitter.Emit(it); err != nil {
			select {
			case done <- opResult{err: fmt.Errorf("failed to emit event: %w", err)}:
			default:
			}
			return
		}
		if n == int64(b.count) {
			select {
			case done <- opResult{}:
			default:
			}
		}
	}
}

// Run connects, subscribes, and blocks until the requested number of events
// arrived, the wait budget ran out, or the context was cancelled.
func (b *Backend) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("backend", Name, "url", b.url, "event", b.event)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	parsedURL, err := url.Parse(b.url)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if b.insecure {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(b.namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	emitter := item.NewEmitter(b.out)
	done := make(chan opResult, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "namespace", b.namespace, "sid", io.Id())
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		res := opResult{err: fmt.Errorf("connect_error: %v", errs[0])}
		if err, ok := errs[0].(error); ok {
			res = opResult{err: err}
		}
		// Only the first outcome matters; never block the client's
		// dispatch goroutine on a settled run.
		select {
		case done <- res:
		default:
		}
	})

	var seq atomic.Int64
	io.On(types.EventName(b.event), b.eventHandler(emitter, &seq, done))

	io.Connect()

	select {
	case <-opCtx.Done():
		if ctx.Err() != nil {
			// External cancellation; the boundary decides the exit code.
			return ctx.Err()
		}
		return fmt.Errorf("timed out after %s with %d of %d events recorded", b.timeout, emitter.Count(), b.count)
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		logger.Info("Events recorded.", "events", emitter.Count())
		return nil
	}
}

// Package item defines the envelope every backend wraps around a fetched
// record, and an Emitter that streams envelopes as NDJSON.
package item

import (
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// idNamespace seeds deterministic item IDs. Re-fetching the same record from
// the same origin must yield the same ID across runs.
var idNamespace = uuid.MustParse("9c0f6eea-4671-44ce-9d2c-2b1f6dd524f1")

// Item is the uniform envelope for one fetched record. Data holds the
// backend-specific payload; the core never inspects it.
type Item struct {
	ID          uuid.UUID      `json:"id"`
	Backend     string         `json:"backend"`
	Category    string         `json:"category"`
	Origin      string         `json:"origin"`
	RetrievedAt time.Time      `json:"retrieved_at"`
	Data        map[string]any `json:"data"`
}

// NewID derives a deterministic item ID from the backend name, category,
// origin, and a backend-chosen record key (e.g. a commit hash or issue URL).
func NewID(backend, category, origin, key string) uuid.UUID {
	material := strings.Join([]string{backend, category, origin, key}, "\x00")
	return uuid.NewSHA1(idNamespace, []byte(material))
}

// Emitter writes items to a destination as newline-delimited JSON, one
// object per line. It is safe for use from a single goroutine per backend;
// the mutex guards the event-driven backends that emit from callbacks.
type Emitter struct {
	mu    sync.Mutex
	enc   *json.Encoder
	count int
}

// NewEmitter creates an Emitter writing NDJSON to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{enc: json.NewEncoder(w)}
}

// Emit writes one item as a single JSON line.
func (e *Emitter) Emit(it *Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(it); err != nil {
		return err
	}
	e.count++
	return nil
}

// Count returns how many items have been emitted so far.
func (e *Emitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

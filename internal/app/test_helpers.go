package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/fetchgo/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for tests, capturing the item
// stream and the logs in separate buffers. Tests inject stub backends
// through the variadic parameter.
func SetupAppTest(t *testing.T, cfg *Config, backends ...registry.Module) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	outBuffer := &SafeBuffer{}
	logBuffer := &SafeBuffer{}
	cfg.Debug = true
	testApp := NewApp(outBuffer, logBuffer, cfg, backends...)

	t.Cleanup(func() {
		if os.Getenv("FETCHGO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}

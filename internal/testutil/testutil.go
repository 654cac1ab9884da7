// Package testutil provides shared helpers for the package test suites:
// log capture, pre-wired contexts and manifest fixtures on disk.
package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/scopekit/internal/ctxlog"
)

// SafeBuffer is a goroutine-safe buffer for capturing log output in tests
// that exercise concurrent registration.
type SafeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

// Write implements io.Writer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements fmt.Stringer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Reset discards the captured output.
func (b *SafeBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.b.Reset()
}

// NewLogger returns a debug-level text logger writing to w. It does not
// touch the global logger, so tests stay isolated from each other.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// NewContext returns a context carrying a debug logger and the buffer that
// logger writes to, for tests asserting on log output.
func NewContext(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	return ctxlog.WithLogger(context.Background(), NewLogger(buf)), buf
}

// WriteManifests writes the given relative-path to content mapping under a
// fresh temporary directory and returns that directory. Intermediate
// directories in the relative paths are created as needed; cleanup is
// registered on t.
func WriteManifests(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "scopekit-manifests-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return tmpDir
}

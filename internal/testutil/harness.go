package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/vk/appmodel/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug logger that writes into the
// returned buffer. Setting APPMODEL_TEST_LOGS=true dumps the buffer when the
// test ends.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if os.Getenv("APPMODEL_TEST_LOGS") == "true" {
		t.Cleanup(func() {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		})
	}
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// WriteFiles writes the given files, keyed by relative path, into a fresh
// temporary directory and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// Load reads the database rooted at path with the builtin schema and builds
// it, attributing new objects to path.
func Load(ctx context.Context, path string) (*confdb.Configuration, error) {
	model, err := hcl.NewLoader().Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return confdb.New(ctx, model, path)
}

// LoadFiles writes files to a temporary directory and loads entry from it.
func LoadFiles(t *testing.T, files map[string]string, entry string) (*confdb.Configuration, error) {
	t.Helper()
	ctx, _ := Context(t)
	dir := WriteFiles(t, files)
	return Load(ctx, filepath.Join(dir, entry))
}

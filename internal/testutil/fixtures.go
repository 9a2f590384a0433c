package testutil

import (
	"embed"
	"io/fs"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/appmodel/internal/confdb"
)

//go:embed testdata/*.hcl
var fixtures embed.FS

// SessionID is the id of the session defined by the fixture database.
const SessionID = "test-session"

// SessionFile is the entry point of the fixture database.
const SessionFile = "session.hcl"

// Fixtures returns the fixture database files keyed by file name. Tests may
// modify the returned map before writing it out.
func Fixtures(t *testing.T) map[string]string {
	t.Helper()
	names, err := fs.Glob(fixtures, "testdata/*.hcl")
	require.NoError(t, err)
	files := make(map[string]string, len(names))
	for _, name := range names {
		data, err := fixtures.ReadFile(name)
		require.NoError(t, err)
		files[path.Base(name)] = string(data)
	}
	return files
}

// LoadSession loads the fixture database, failing the test on any error.
func LoadSession(t *testing.T) *confdb.Configuration {
	t.Helper()
	db, err := LoadFiles(t, Fixtures(t), SessionFile)
	require.NoError(t, err)
	return db
}

// LoadSessionWith loads the fixture database with some files added or
// replaced. Added files are only read if another file includes them.
func LoadSessionWith(t *testing.T, extra map[string]string) (*confdb.Configuration, error) {
	t.Helper()
	files := Fixtures(t)
	for name, content := range extra {
		files[name] = content
	}
	return LoadFiles(t, files, SessionFile)
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/appmodel/internal/confdb"
)

// IDs returns the ids of objects, in order.
func IDs[T interface{ ID() string }](objs []T) []string {
	ids := make([]string, 0, len(objs))
	for _, o := range objs {
		ids = append(ids, o.ID())
	}
	return ids
}

// RelatedIDs returns the ids of the objects a relationship points to.
func RelatedIDs(t *testing.T, obj *confdb.Object, rel string) []string {
	t.Helper()
	targets, err := obj.Objects(rel)
	require.NoError(t, err)
	return IDs(targets)
}

// MustGet fetches an object, failing the test if it does not exist.
func MustGet(t *testing.T, db *confdb.Configuration, class, id string) *confdb.Object {
	t.Helper()
	obj, err := db.Get(class, id)
	require.NoError(t, err, "expected %s@%s to exist", id, class)
	return obj
}

// AttrString reads a string attribute, failing the test on error.
func AttrString(t *testing.T, obj *confdb.Object, name string) string {
	t.Helper()
	s, err := obj.StringAttr(name)
	require.NoError(t, err)
	return s
}

// AttrUint32 reads a numeric attribute, failing the test on error.
func AttrUint32(t *testing.T, obj *confdb.Object, name string) uint32 {
	t.Helper()
	n, err := obj.Uint32(name)
	require.NoError(t, err)
	return n
}

// AttrBool reads a boolean attribute, failing the test on error.
func AttrBool(t *testing.T, obj *confdb.Object, name string) bool {
	t.Helper()
	b, err := obj.Bool(name)
	require.NoError(t, err)
	return b
}

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	doc := testDoc{Name: "congress", Count: 3, Tags: []string{"a", "b"}}
	require.NoError(t, store.Write("test.json", doc))

	var got testDoc
	require.NoError(t, store.ReadInto("test.json", &got))
	assert.Equal(t, doc, got)

	raw := store.Read("test.json")
	assert.Equal(t, "congress", raw["name"])
}

func TestWriteReplacesAtomically(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("test.json", testDoc{Name: "first"}))
	require.NoError(t, store.Write("test.json", testDoc{Name: "second"}))

	var got testDoc
	require.NoError(t, store.ReadInto("test.json", &got))
	assert.Equal(t, "second", got.Name)

	// No temp files linger after the rename.
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPathTraversalRejected(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Write("../evil.json", testDoc{}))
	assert.Error(t, store.Write("sub/evil.json", testDoc{}))
	assert.Error(t, store.Write("", testDoc{}))
	assert.Empty(t, store.Read("../evil.json"))
	assert.False(t, store.Exists("../evil.json"))
}

func TestReadNeverFails(t *testing.T) {
	store := newTestStore(t)

	// Missing artifact.
	assert.Equal(t, map[string]interface{}{}, store.Read("missing.json"))

	// Invalid JSON.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{not json"), 0644))
	assert.Equal(t, map[string]interface{}{}, store.Read("broken.json"))

	// Non-object root.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "array.json"), []byte("[1,2]"), 0644))
	assert.Equal(t, map[string]interface{}{}, store.Read("array.json"))
}

func TestReadIntoReportsFailure(t *testing.T) {
	store := newTestStore(t)

	var doc testDoc
	assert.Error(t, store.ReadInto("missing.json", &doc))

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{not json"), 0644))
	assert.Error(t, store.ReadInto("broken.json", &doc))
}

func TestStaleness(t *testing.T) {
	store := newTestStore(t)

	assert.True(t, store.IsStale("missing.json", time.Hour))
	assert.Negative(t, store.AgeSeconds("missing.json"))

	require.NoError(t, store.Write("fresh.json", testDoc{}))
	assert.False(t, store.IsStale("fresh.json", time.Hour))
	assert.GreaterOrEqual(t, store.AgeSeconds("fresh.json"), 0.0)

	_, err := store.MTime("fresh.json")
	assert.NoError(t, err)
}

func TestListAndDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("b.json", testDoc{}))
	require.NoError(t, store.Write("a.json", testDoc{}))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))

	assert.Equal(t, []string{"a.json", "b.json"}, store.List())

	require.NoError(t, store.Delete("a.json"))
	assert.Equal(t, []string{"b.json"}, store.List())

	// Deleting a missing artifact is not an error.
	assert.NoError(t, store.Delete("a.json"))
}

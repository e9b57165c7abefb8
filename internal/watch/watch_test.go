package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.md")
	other := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(target, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("one"), 0o644))

	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(target))
	require.NoError(t, w.Watch(target))

	require.NoError(t, os.WriteFile(other, []byte("two"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("two"), 0o644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, target, ev.Path)
		assert.NotZero(t, ev.Op&Relevant)
	case err := <-w.Errors():
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for watched file")
	}
}

func TestWatcher_Close(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestWatcher_Unwatch(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(target))
	require.NoError(t, w.Unwatch(target))
	require.NoError(t, w.Unwatch(target))
	assert.False(t, w.following(target))
}

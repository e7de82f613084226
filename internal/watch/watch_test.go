package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnceForBurstOfWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	fired := make(chan struct{}, 8)
	w, err := New(root, 50*time.Millisecond, func() { fired <- struct{}{} })
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "page.md"), []byte("x"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change callback")
	}

	select {
	case <-fired:
		t.Fatal("burst should debounce into a single callback")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_PicksUpNewSubdirectories(t *testing.T) {
	root := t.TempDir()

	fired := make(chan struct{}, 8)
	w, err := New(root, 30*time.Millisecond, func() { fired <- struct{}{} })
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	newDir := filepath.Join(root, "blog", "2024-01-01-post")
	require.NoError(t, os.MkdirAll(newDir, 0o755))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a callback for the new directory")
	}
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietIntaker() *Intaker {
	return &Intaker{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))}
}

func TestWatchDebouncedBurst(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, errs, err := quietIntaker().Watch(ctx, WatchConfig{
		Roots:    []string{dir},
		Debounce: time.Millisecond,
	})
	require.NoError(t, err)

	const n = 100
	for i := 0; i < n; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("cert%03d.pdf", i)), []byte("x"), 0o644))
	}

	got := map[string]struct{}{}
	deadline := time.After(10 * time.Second)
	for len(got) < n {
		select {
		case p, ok := <-events:
			require.True(t, ok, "event channel closed early")
			got[filepath.Base(p)] = struct{}{}
		case err := <-errs:
			t.Logf("watch error: %v", err)
		case <-deadline:
			t.Fatalf("timed out: saw %d of %d files", len(got), n)
		}
	}
}

func TestWatchShutdownWithPendingDebounce(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, errs, err := quietIntaker().Watch(ctx, WatchConfig{
		Roots:    []string{dir},
		Debounce: time.Hour, // window still open when we cancel
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pdf"), []byte("x"), 0o644))
	time.Sleep(50 * time.Millisecond) // let the event arm the timer
	cancel()

	// both channels must close cleanly; a late timer fire must not panic
	closedAt := time.After(5 * time.Second)
	for events != nil || errs != nil {
		select {
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		case <-closedAt:
			t.Fatal("channels did not close after cancellation")
		}
	}
}

func TestWatchIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := quietIntaker().Watch(ctx, WatchConfig{Roots: []string{dir}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pdf"), []byte("x"), 0o644))

	select {
	case p := <-events:
		assert.Equal(t, "cert.pdf", filepath.Base(p))
	case <-time.After(10 * time.Second):
		t.Fatal("no event for cert.pdf")
	}
}

func TestWatchRequiresRoots(t *testing.T) {
	_, _, err := quietIntaker().Watch(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

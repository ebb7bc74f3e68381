package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscribe_DeliversWriteEvents(t *testing.T) {
	dir := t.TempDir()
	sub, err := Subscribe(dir)
	require.NoError(t, err)
	defer sub.Close()

	target := filepath.Join(dir, "page.md")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		select {
		case ev, ok := <-sub.Events():
			return ok && ev.Path == target
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribe_PicksUpDirectoriesCreatedLater(t *testing.T) {
	dir := t.TempDir()
	sub, err := Subscribe(dir)
	require.NoError(t, err)
	defer sub.Close()

	nested := filepath.Join(dir, "posts")
	require.NoError(t, os.Mkdir(nested, 0o750))

	// Give the watcher a moment to register the new directory, then write
	// inside it and expect the event to arrive.
	target := filepath.Join(nested, "new.md")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("x"), 0o644)
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return false
				}
				if ev.Path == target {
					return true
				}
			default:
				return false
			}
		}
	}, 3*time.Second, 50*time.Millisecond)
}

func TestClose_ClosesEventStream(t *testing.T) {
	sub, err := Subscribe(t.TempDir())
	require.NoError(t, err)

	sub.Close()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// Closing twice is safe.
	sub.Close()
}

// Package watcher delivers filesystem-change notifications for a source
// tree. The rebuild orchestrator consumes subscriptions; it does not own
// the watching machinery.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event is one filesystem change: the changed path and the kind of change.
type Event struct {
	Path string
	Kind string
}

// Subscription streams change events for a directory tree. The Events
// channel closing is the terminal stop notification.
type Subscription struct {
	events    chan Event
	fw        *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe watches absDir recursively. Directories created later are
// picked up as they appear.
func Subscribe(absDir string) (*Subscription, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(fw, absDir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	s := &Subscription{
		events: make(chan Event, 16),
		fw:     fw,
		done:   make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Events returns the change stream. It is closed when watching stops.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close stops watching and closes the event stream.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.fw.Close()
	})
}

func (s *Subscription) loop() {
	defer close(s.events)
	for {
		select {
		case ev, ok := <-s.fw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(s.fw, ev.Name)
				}
			}
			select {
			case s.events <- Event{Path: ev.Name, Kind: ev.Op.String()}:
			case <-s.done:
				return
			}
		case err, ok := <-s.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", slog.Any("error", err))
		case <-s.done:
			return
		}
	}
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				slog.Warn("watch add failed", slog.String("dir", path), slog.Any("error", err))
			}
		}
		return nil
	})
}

package format

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current field-mapping snapshot and optionally keeps
// it in sync with a YAML file on disk. Readers get an immutable
// snapshot; a reload swaps the pointer atomically, so in-flight
// renders keep the table they started with.
type Store struct {
	path    string
	current atomic.Pointer[Mappings]
}

// NewStore creates a store seeded with the built-in mappings.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(DefaultMappings())
	return s
}

// NewStoreFromFile creates a store backed by a YAML file. The file is
// loaded once; call Watch to follow later edits.
func NewStoreFromFile(path string) (*Store, error) {
	m, err := LoadMappings(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.current.Store(m)
	return s, nil
}

// Mappings returns the current snapshot.
func (s *Store) Mappings() *Mappings {
	return s.current.Load()
}

// Reload re-reads the backing file and swaps the snapshot. A parse
// failure leaves the previous snapshot in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("store has no backing file")
	}
	m, err := LoadMappings(s.path)
	if err != nil {
		return err
	}
	s.current.Store(m)
	slog.Info("field mappings reloaded", "path", s.path)
	return nil
}

// Watch follows the backing file until the context is cancelled,
// reloading on every write. Editors that replace the file (rename or
// remove then create) are handled by watching the parent directory.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("store has no backing file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.path), err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Warn("field mapping reload failed, keeping previous table",
					"path", s.path,
					"error", err,
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("field mapping watcher error", "error", err)
		}
	}
}

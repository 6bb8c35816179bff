package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dtnitsch/fxlens/pkg/debounce"
	"github.com/dtnitsch/fxlens/pkg/eventloop"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultReloadDelay coalesces the burst of events editors produce on save.
const DefaultReloadDelay = 200 * time.Millisecond

// FileWatcher mirrors a YAML settings file into a Store. Only keys whose
// value differs from the last applied file are written, so subscribers see
// ordinary change batches.
type FileWatcher struct {
	path   string
	store  *Store
	logger *zap.Logger
	delay  time.Duration

	watcher *fsnotify.Watcher
	sched   *debounce.Scheduler

	mu      sync.Mutex
	last    map[string]json.RawMessage
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileWatcher creates a watcher for path. Call Start to begin.
func NewFileWatcher(path string, store *Store, logger *zap.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcher{
		path:    filepath.Clean(path),
		store:   store,
		logger:  logger,
		delay:   DefaultReloadDelay,
		watcher: w,
		sched:   debounce.New(&eventloop.Serial{}),
		last:    make(map[string]json.RawMessage),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start applies the file once and then watches its directory, since most
// editors replace files by rename.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	if _, err := fw.Reload(ctx); err != nil && !errors.Is(err, os.ErrNotExist) {
		fw.logger.Warn("initial settings file load failed", zap.String("path", fw.path), zap.Error(err))
	}

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(fw.path), err)
	}
	fw.logger.Info("watching settings file", zap.String("path", fw.path))

	go fw.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.stopCh)
	<-fw.doneCh
	fw.sched.Stop()

	if err := fw.watcher.Close(); err != nil {
		fw.logger.Error("error closing settings watcher", zap.Error(err))
	}
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			fw.sched.Schedule(fw.path, fw.delay, func() {
				if _, err := fw.Reload(ctx); err != nil {
					fw.logger.Warn("settings file reload failed", zap.String("path", fw.path), zap.Error(err))
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("settings watcher error", zap.Error(err))
		}
	}
}

// Reload reads the file and writes any keys that changed since the last
// reload, under the same rules as the Editor setters. Unknown and invalid
// keys are skipped with a warning.
func (fw *FileWatcher) Reload(ctx context.Context) ([]Change, error) {
	data, err := os.ReadFile(fw.path)
	if err != nil {
		return nil, err
	}

	values, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}

	fw.mu.Lock()
	update := make(map[string]json.RawMessage)
	for key, raw := range values {
		if !IsKey(key) {
			fw.logger.Warn("ignoring unknown key in settings file", zap.String("key", key))
			continue
		}
		if prev, ok := fw.last[key]; ok && jsonEqual(prev, raw) {
			continue
		}
		update[key] = raw
	}
	fw.mu.Unlock()

	if len(update) == 0 {
		return nil, nil
	}

	s, f, err := fw.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	normalized, invalid := Normalize(s, f, update)
	if invalid != nil {
		fw.logger.Warn("skipping invalid values in settings file", zap.String("path", fw.path), zap.Error(invalid))
	}

	changes, err := fw.store.Set(ctx, normalized)
	if err != nil {
		return nil, err
	}

	fw.mu.Lock()
	for key, v := range update {
		fw.last[key] = v
	}
	fw.mu.Unlock()

	fw.logger.Info("settings file applied", zap.Int("changed", len(changes)))
	return changes, nil
}

// ParseYAML decodes a settings document into JSON values per key.
func ParseYAML(data []byte) (map[string]json.RawMessage, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}

	out := make(map[string]json.RawMessage, len(doc))
	for key, v := range doc {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// MarshalYAML renders values (as returned by Values) as a settings file.
func MarshalYAML(values map[string]any) ([]byte, error) {
	node := make(map[string]any, len(values))
	for k, v := range values {
		if m, ok := v.(fmt.Stringer); ok {
			node[k] = m.String()
			continue
		}
		node[k] = v
	}
	return yaml.Marshal(node)
}

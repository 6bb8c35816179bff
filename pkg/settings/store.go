// Package settings persists conversion settings and filter lists and
// broadcasts changes to subscribers.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dtnitsch/fxlens/models"
	"go.uber.org/zap"
)

// ErrUnknownKey is returned by Set for keys outside Keys.
var ErrUnknownKey = errors.New("unknown settings key")

// Backend is the key/value persistence underneath a Store. *db.DB
// satisfies it.
type Backend interface {
	GetSettings(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	SetSettings(ctx context.Context, values map[string]json.RawMessage) error
}

// Store reads typed snapshots and writes individual keys.
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu     sync.Mutex
	subs   map[int]func([]Change)
	nextID int
}

// NewStore wraps backend.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		subs:    make(map[int]func([]Change)),
	}
}

// Load returns the current snapshots. Missing keys take defaults and
// undecodable values take defaults with a warning.
func (s *Store) Load(ctx context.Context) (models.ConversionSettings, models.FilterConfig, error) {
	settings, filter := models.DefaultSettings(), models.DefaultFilterConfig()

	raw, err := s.backend.GetSettings(ctx, Keys)
	if err != nil {
		return settings, filter, fmt.Errorf("failed to load settings: %w", err)
	}

	for _, key := range Keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := apply(&settings, &filter, key, v); err != nil {
			s.logger.Warn("ignoring undecodable setting", zap.String("key", key), zap.Error(err))
		}
	}
	return settings, filter, nil
}

// Set persists values and then notifies subscribers of the keys whose
// stored JSON actually changed.
func (s *Store) Set(ctx context.Context, values map[string]any) ([]Change, error) {
	if len(values) == 0 {
		return nil, nil
	}

	encoded := make(map[string]json.RawMessage, len(values))
	keys := make([]string, 0, len(values))
	for key, v := range values {
		if !IsKey(key) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode setting %s: %w", key, err)
		}
		encoded[key] = b
		keys = append(keys, key)
	}
	sort.Strings(keys)

	old, err := s.backend.GetSettings(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read current settings: %w", err)
	}

	if err := s.backend.SetSettings(ctx, encoded); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	var changes []Change
	for _, key := range keys {
		prev, had := old[key]
		if had && jsonEqual(prev, encoded[key]) {
			continue
		}
		changes = append(changes, Change{Key: key, OldValue: prev, NewValue: encoded[key]})
	}

	if len(changes) > 0 {
		s.logger.Debug("settings changed", zap.Strings("keys", changeKeys(changes)))
		s.notify(changes)
	}
	return changes, nil
}

// SetSnapshot writes every key from the given snapshots.
func (s *Store) SetSnapshot(ctx context.Context, settings models.ConversionSettings, filter models.FilterConfig) ([]Change, error) {
	return s.Set(ctx, Values(settings, filter))
}

// Subscribe registers fn for change batches. Callbacks run synchronously
// on the goroutine that called Set.
func (s *Store) Subscribe(fn func([]Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(changes []Change) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func([]Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(changes)
	}
}

func jsonEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

func changeKeys(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Key
	}
	return out
}

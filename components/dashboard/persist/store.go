package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
)

// DefaultDebounce is the quiet period before a state change is written.
const DefaultDebounce = 500 * time.Millisecond

var (
	ErrMissingKey       = errors.New("persist: storage key is required")
	ErrInvalidVersion   = errors.New("persist: schema version must be >= 1")
	ErrMissingDefault   = errors.New("persist: default state factory is required")
	ErrVersionMismatch  = errors.New("persist: stored version is not supported")
	ErrMissingMigration = errors.New("persist: no migration for stored version")
)

// Migration upgrades a decoded blob from version N (its key in
// Options.Migrations) to version N+1.
type Migration func(doc map[string]any) (map[string]any, error)

// Options configures a Store.
type Options[T any] struct {
	Key     string
	Version int
	// Default returns a fresh default state on every call.
	Default func() T
	// Rehydrate fixes up fields that do not round-trip through JSON.
	Rehydrate func(*T) error
	// Clone deep-copies state handed to callers and mutators.
	Clone      func(T) T
	Migrations map[int]Migration
	Debounce   time.Duration
	Backend    Backend
	Clock      Clock
	Logger     *slog.Logger
}

// Store keeps one JSON-serializable state value mirrored to a Backend.
// Reads are served from memory; writes are debounced and best effort.
type Store[T any] struct {
	opts Options[T]

	mu     sync.RWMutex
	state  T
	loaded bool
	closed bool
	// gen is bumped under mu by Reset and read lock-free by writers.
	gen atomic.Uint64

	// ioMu serializes backend writes and deletes.
	ioMu     sync.Mutex
	lastSum  [32]byte
	hasSum   bool
	degraded atomic.Bool

	debounce *Debouncer[pendingWrite[T]]

	subMu sync.Mutex
	subs  map[int]chan T
	next  int
}

type pendingWrite[T any] struct {
	gen   uint64
	state T
}

// NewStore validates options and returns an unloaded store.
func NewStore[T any](opts Options[T]) (*Store[T], error) {
	if opts.Key == "" {
		return nil, ErrMissingKey
	}
	if opts.Version < 1 {
		return nil, ErrInvalidVersion
	}
	if opts.Default == nil {
		return nil, ErrMissingDefault
	}
	if opts.Backend == nil {
		opts.Backend = NewMemoryBackend()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clone == nil {
		opts.Clone = func(v T) T { return v }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = opts.Logger.With("store", opts.Key)
	s := &Store[T]{
		opts:  opts,
		state: opts.Default(),
		subs:  map[int]chan T{},
	}
	s.debounce = NewDebouncer(opts.Clock, opts.Debounce, func(w pendingWrite[T]) {
		_ = s.write(context.Background(), w)
	})
	return s, nil
}

// Key returns the storage key.
func (s *Store[T]) Key() string { return s.opts.Key }

// Load reads the stored blob on first use and returns the current state.
// Unreadable, unparsable, or unsupported blobs yield the default state.
func (s *Store[T]) Load(ctx context.Context) T {
	s.mu.Lock()
	if s.loaded {
		defer s.mu.Unlock()
		return s.opts.Clone(s.state)
	}
	state, migrated := s.readInitial(ctx)
	s.state = state
	s.loaded = true
	out := s.opts.Clone(state)
	if migrated && !s.closed {
		s.debounce.Push(pendingWrite[T]{gen: s.gen.Load(), state: s.opts.Clone(state)})
	}
	s.mu.Unlock()
	return out
}

func (s *Store[T]) readInitial(ctx context.Context) (T, bool) {
	raw, found, err := s.opts.Backend.Get(ctx, s.opts.Key)
	if err != nil {
		s.degraded.Store(true)
		s.opts.Logger.Error("failed to load state, using defaults", "error", err)
		return s.opts.Default(), false
	}
	if !found {
		return s.opts.Default(), false
	}
	state, migrated, err := s.decode(raw)
	switch {
	case errors.Is(err, ErrVersionMismatch), errors.Is(err, ErrMissingMigration):
		s.opts.Logger.Info("state version mismatch, using defaults", "error", err)
		return s.opts.Default(), false
	case err != nil:
		s.opts.Logger.Error("failed to load state, using defaults", "error", err)
		return s.opts.Default(), false
	}
	if migrated {
		s.opts.Logger.Info("state migrated", "version", s.opts.Version)
	} else {
		s.rememberSum(raw)
	}
	return state, migrated
}

func (s *Store[T]) decode(raw []byte) (T, bool, error) {
	var zero T
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return zero, false, fmt.Errorf("persist: parse %s: %w", s.opts.Key, err)
	}
	version := versionOf(doc)
	migrated := false
	if version != s.opts.Version {
		if version > s.opts.Version || version < 0 {
			return zero, false, fmt.Errorf("%w: stored %d, current %d", ErrVersionMismatch, version, s.opts.Version)
		}
		for v := version; v < s.opts.Version; v++ {
			migrate, ok := s.opts.Migrations[v]
			if !ok {
				return zero, false, fmt.Errorf("%w: %d -> %d", ErrMissingMigration, v, v+1)
			}
			next, err := migrate(doc)
			if err != nil {
				return zero, false, fmt.Errorf("persist: migrate %s from %d: %w", s.opts.Key, v, err)
			}
			doc = next
		}
		doc["version"] = s.opts.Version
		upgraded, err := json.Marshal(doc)
		if err != nil {
			return zero, false, fmt.Errorf("persist: encode migrated %s: %w", s.opts.Key, err)
		}
		raw = upgraded
		migrated = true
	}
	var state T
	if err := json.Unmarshal(raw, &state); err != nil {
		return zero, false, fmt.Errorf("persist: decode %s: %w", s.opts.Key, err)
	}
	if s.opts.Rehydrate != nil {
		if err := s.opts.Rehydrate(&state); err != nil {
			return zero, false, fmt.Errorf("persist: rehydrate %s: %w", s.opts.Key, err)
		}
	}
	return state, migrated, nil
}

func versionOf(doc map[string]any) int {
	switch v := doc["version"].(type) {
	case float64:
		if v != float64(int(v)) {
			return -1
		}
		return int(v)
	case nil:
		return 0
	default:
		return -1
	}
}

// State returns a copy of the current state, loading it if needed.
func (s *Store[T]) State() T {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.opts.Clone(s.state)
	}
	s.mu.RUnlock()
	return s.Load(context.Background())
}

// Loaded reports whether the initial read has happened.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Degraded reports whether the most recent storage operation failed.
func (s *Store[T]) Degraded() bool { return s.degraded.Load() }

// Update applies fn to a copy of the state, publishes the result and
// schedules a debounced write. A mutator returning an error leaves the
// state untouched.
func (s *Store[T]) Update(fn func(*T) error) (T, error) {
	if !s.Loaded() {
		s.Load(context.Background())
	}
	s.mu.Lock()
	next := s.opts.Clone(s.state)
	if err := fn(&next); err != nil {
		current := s.opts.Clone(s.state)
		s.mu.Unlock()
		return current, err
	}
	s.state = next
	if !s.closed {
		s.debounce.Push(pendingWrite[T]{gen: s.gen.Load(), state: s.opts.Clone(next)})
	}
	out := s.opts.Clone(next)
	s.mu.Unlock()
	s.publish(out)
	return out, nil
}

// Replace swaps in a whole new state value.
func (s *Store[T]) Replace(state T) T {
	out, _ := s.Update(func(cur *T) error {
		*cur = s.opts.Clone(state)
		return nil
	})
	return out
}

// Reset restores the default state, drops any pending write and deletes
// the stored blob synchronously. A write scheduled before Reset never lands
// after it.
func (s *Store[T]) Reset(ctx context.Context) (T, error) {
	s.mu.Lock()
	s.state = s.opts.Default()
	s.loaded = true
	s.gen.Add(1)
	s.debounce.Cancel()
	out := s.opts.Clone(s.state)

	s.ioMu.Lock()
	err := s.opts.Backend.Delete(ctx, s.opts.Key)
	s.hasSum = false
	s.ioMu.Unlock()
	s.mu.Unlock()

	if err != nil {
		s.degraded.Store(true)
		s.opts.Logger.Error("failed to clear stored state", "error", err)
	} else {
		s.degraded.Store(false)
		s.opts.Logger.Info("state reset to default")
	}
	s.publish(out)
	return out, err
}

// Flush writes any pending change immediately.
func (s *Store[T]) Flush(ctx context.Context) error {
	w, ok := s.debounce.Take()
	if !ok {
		return nil
	}
	return s.write(ctx, w)
}

// Pending reports whether a debounced write is waiting.
func (s *Store[T]) Pending() bool { return s.debounce.Pending() }

// Close cancels the pending write and closes subscriber channels. The
// in-memory state keeps working but is no longer persisted. Call Flush
// first to keep the last change.
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.debounce.Stop()
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Subscribe returns a channel receiving every new state and a cancel func.
// Slow readers only see the latest value.
func (s *Store[T]) Subscribe() (<-chan T, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.next
	s.next++
	ch := make(chan T, 1)
	s.subs[id] = ch
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Store[T]) publish(state T) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- s.opts.Clone(state):
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.opts.Clone(state):
		default:
		}
	}
}

func (s *Store[T]) write(ctx context.Context, w pendingWrite[T]) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if w.gen != s.gen.Load() {
		return nil
	}
	data, err := s.encode(w.state)
	if err != nil {
		s.opts.Logger.Error("failed to encode state", "error", err)
		return err
	}
	sum := blake3.Sum256(data)
	if s.hasSum && sum == s.lastSum {
		return nil
	}
	if err := s.opts.Backend.Set(ctx, s.opts.Key, data); err != nil {
		s.degraded.Store(true)
		s.opts.Logger.Error("failed to save state", "error", err)
		return err
	}
	s.degraded.Store(false)
	s.lastSum = sum
	s.hasSum = true
	s.opts.Logger.Debug("state saved", "bytes", len(data))
	return nil
}

func (s *Store[T]) encode(state T) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("persist: state for %s must encode as a JSON object: %w", s.opts.Key, err)
	}
	doc["version"] = s.opts.Version
	return json.Marshal(doc)
}

func (s *Store[T]) rememberSum(raw []byte) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	s.lastSum = blake3.Sum256(raw)
	s.hasSum = true
}

package locale

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

// StorageKey holds the last chosen language.
const StorageKey = "i18nextLng"

// Snapshot is the active locale.
type Snapshot struct {
	Language  Language  `json:"language"`
	Direction Direction `json:"direction"`
}

// Options configures a State.
type Options struct {
	Translator *Translator
	Notifier   notify.Notifier
	// Backend remembers the chosen language across restarts. Optional.
	Backend persist.Backend
	Logger  *slog.Logger
	Initial Language
}

// State owns the active language and direction.
type State struct {
	opts Options

	mu      sync.RWMutex
	current Language

	subMu sync.Mutex
	subs  map[int]chan Snapshot
	next  int
}

// NewState builds a locale state starting at the initial language.
func NewState(opts Options) *State {
	if opts.Translator == nil {
		opts.Translator = NewTranslator(TranslatorOptions{Logger: opts.Logger})
	}
	opts.Notifier = notify.Normalize(opts.Notifier)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Initial == "" {
		opts.Initial = English
	}
	return &State{opts: opts, current: opts.Initial, subs: map[int]chan Snapshot{}}
}

// Restore adopts the stored language if one was saved.
func (s *State) Restore(ctx context.Context) Snapshot {
	if s.opts.Backend != nil {
		raw, found, err := s.opts.Backend.Get(ctx, StorageKey)
		switch {
		case err != nil:
			s.opts.Logger.Warn("failed to read stored language", "error", err)
		case found:
			if lang, err := Parse(string(raw)); err == nil {
				s.mu.Lock()
				s.current = lang
				s.mu.Unlock()
			}
		}
	}
	return s.Snapshot()
}

// Snapshot returns the active locale.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Language: s.current, Direction: s.current.Direction()}
}

// Translator returns the translator backing this state.
func (s *State) Translator() *Translator { return s.opts.Translator }

// T translates key in the active language.
func (s *State) T(ctx context.Context, key string, args map[string]any) string {
	return s.opts.Translator.T(ctx, s.Snapshot().Language, key, args)
}

// SetLocale switches the active language. The bundle is loaded before the
// switch so readers never see a half-loaded dictionary.
func (s *State) SetLocale(ctx context.Context, code string) (Snapshot, error) {
	lang, err := Parse(code)
	if err != nil {
		s.opts.Logger.Warn("rejected language change", "code", code, "error", err)
		return s.Snapshot(), err
	}
	if err := s.opts.Translator.Preload(ctx, lang); err != nil {
		s.opts.Logger.Warn("switching language without bundle", "language", lang, "error", err)
	}

	s.mu.Lock()
	s.current = lang
	s.mu.Unlock()
	snap := s.Snapshot()

	if s.opts.Backend != nil {
		if err := s.opts.Backend.Set(ctx, StorageKey, []byte(lang)); err != nil {
			s.opts.Logger.Warn("failed to store language", "error", err)
		}
	}
	s.publish(snap)
	s.opts.Logger.Info("language changed", "language", lang, "direction", snap.Direction)

	t := s.opts.Translator
	notify.Info(ctx, s.opts.Notifier, "",
		t.T(ctx, lang, "common.info", nil)+": "+t.T(ctx, lang, "header.language_switch", nil))
	return snap, nil
}

// Subscribe streams locale changes. Slow readers only see the latest.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.next
	s.next++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *State) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient user-visible message.
type Notice struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, notice Notice) { f(ctx, notice) }

type discard struct{}

func (discard) Notify(context.Context, Notice) {}

// Discard drops every notice.
func Discard() Notifier { return discard{} }

// Normalize returns n, or Discard when n is nil.
func Normalize(n Notifier) Notifier {
	if n == nil {
		return discard{}
	}
	return n
}

// Success publishes a success notice.
func Success(ctx context.Context, n Notifier, title, message string) {
	Normalize(n).Notify(ctx, Notice{Level: LevelSuccess, Title: title, Message: message})
}

// Info publishes an informational notice.
func Info(ctx context.Context, n Notifier, title, message string) {
	Normalize(n).Notify(ctx, Notice{Level: LevelInfo, Title: title, Message: message})
}

// Warning publishes a warning notice.
func Warning(ctx context.Context, n Notifier, title, message string) {
	Normalize(n).Notify(ctx, Notice{Level: LevelWarning, Title: title, Message: message})
}

// Error publishes an error notice.
func Error(ctx context.Context, n Notifier, title, message string) {
	Normalize(n).Notify(ctx, Notice{Level: LevelError, Title: title, Message: message})
}

// CenterOptions configures a Center.
type CenterOptions struct {
	Capacity int
	Logger   *slog.Logger
	Now      func() time.Time
}

// Center keeps the most recent notices, logs them, and fans them out to
// subscribers.
type Center struct {
	mu       sync.RWMutex
	capacity int
	items    []Notice
	logger   *slog.Logger
	now      func() time.Time
	subs     map[int]chan Notice
	next     int
}

// NewCenter builds a notice center.
func NewCenter(opts CenterOptions) *Center {
	if opts.Capacity <= 0 {
		opts.Capacity = 50
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Center{
		capacity: opts.Capacity,
		logger:   opts.Logger,
		now:      opts.Now,
		subs:     map[int]chan Notice{},
	}
}

// Notify records the notice and forwards it to subscribers without blocking.
func (c *Center) Notify(ctx context.Context, notice Notice) {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	if notice.At.IsZero() {
		notice.At = c.now()
	}
	if notice.Level == "" {
		notice.Level = LevelInfo
	}
	c.logger.Log(ctx, slogLevel(notice.Level), "notice", "level", notice.Level, "title", notice.Title, "message", notice.Message)

	c.mu.Lock()
	c.items = append(c.items, notice)
	if len(c.items) > c.capacity {
		c.items = append([]Notice(nil), c.items[len(c.items)-c.capacity:]...)
	}
	for _, ch := range c.subs {
		select {
		case ch <- notice:
		default:
		}
	}
	c.mu.Unlock()
}

// Recent returns up to limit of the newest notices, oldest first.
func (c *Center) Recent(limit int) []Notice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if limit <= 0 || limit >= len(c.items) {
		return append([]Notice(nil), c.items...)
	}
	return append([]Notice(nil), c.items[len(c.items)-limit:]...)
}

// Last returns the newest notice.
func (c *Center) Last() (Notice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return Notice{}, false
	}
	return c.items[len(c.items)-1], true
}

// Subscribe streams new notices until cancel is called.
func (c *Center) Subscribe() (<-chan Notice, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	ch := make(chan Notice, 16)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

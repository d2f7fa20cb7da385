package insights

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

// DefaultReplyDelay is the simulated assistant latency.
const DefaultReplyDelay = time.Second

var (
	ErrPanelClosed  = errors.New("insights: panel is not open")
	ErrEmptyMessage = errors.New("insights: message is empty")
	ErrShutdown     = errors.New("insights: panel is shut down")
	// ErrReplyPending rejects a message sent before the previous reply arrived.
	ErrReplyPending = errors.New("insights: reply is still pending")
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat entry.
type Message struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// WidgetRef identifies the widget the panel was opened for.
type WidgetRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// Snapshot is the panel read model.
type Snapshot struct {
	Open     bool       `json:"isOpen"`
	Widget   *WidgetRef `json:"widget,omitempty"`
	Messages []Message  `json:"messages"`
	Loading  bool       `json:"isLoading"`
}

// Options configures a Panel.
type Options struct {
	Clock      persist.Clock
	Logger     *slog.Logger
	ReplyDelay time.Duration
	// Reply produces the assistant answer for a user message.
	Reply func(widget WidgetRef, message string) string
}

// Panel is the AI insights side panel. Replies are fabricated after a fixed
// delay; any pending reply is dropped when the panel is closed, reopened, or
// shut down.
type Panel struct {
	opts Options

	mu       sync.Mutex
	open     bool
	widget   *WidgetRef
	messages []Message
	loading  bool
	timer    persist.Timer
	seq      uint64
	shutdown bool

	subMu sync.Mutex
	subs  map[int]chan Snapshot
	next  int
}

// NewPanel builds a closed panel.
func NewPanel(opts Options) *Panel {
	if opts.Clock == nil {
		opts.Clock = persist.RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReplyDelay <= 0 {
		opts.ReplyDelay = DefaultReplyDelay
	}
	if opts.Reply == nil {
		opts.Reply = CannedReply
	}
	return &Panel{opts: opts, subs: map[int]chan Snapshot{}}
}

// Greeting is the first assistant message for widget.
func Greeting(widget WidgetRef) string {
	return fmt.Sprintf("I've analyzed the %s data%s. What insights would you like me to provide?",
		widget.Title, categorySuffix(widget))
}

// CannedReply is the default fabricated answer.
func CannedReply(widget WidgetRef, _ string) string {
	return fmt.Sprintf("Based on the %s data%s, I can tell you that there's been a 5%% increase in the metrics compared to last week. This is likely due to seasonal factors and recent marketing campaigns.",
		widget.Title, categorySuffix(widget))
}

func categorySuffix(widget WidgetRef) string {
	if widget.Category == "" {
		return ""
	}
	return " for " + widget.Category
}

// Open focuses the panel on widget and seeds the greeting.
func (p *Panel) Open(widget WidgetRef) (Snapshot, error) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return Snapshot{}, ErrShutdown
	}
	p.cancelLocked()
	ref := widget
	p.open = true
	p.widget = &ref
	p.loading = false
	p.messages = []Message{p.newMessage(RoleAssistant, Greeting(widget))}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.opts.Logger.Debug("insights panel opened", "widget", widget.ID)
	p.publish(snap)
	return snap, nil
}

// AddUserMessage appends the message and schedules the assistant reply.
func (p *Panel) AddUserMessage(content string) (Snapshot, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return p.Snapshot(), ErrEmptyMessage
	}
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return Snapshot{}, ErrShutdown
	}
	if !p.open || p.widget == nil {
		p.mu.Unlock()
		return Snapshot{}, ErrPanelClosed
	}
	if p.loading {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrReplyPending
	}
	p.messages = append(p.messages, p.newMessage(RoleUser, content))
	p.loading = true
	p.seq++
	seq := p.seq
	widget := *p.widget
	p.timer = p.opts.Clock.AfterFunc(p.opts.ReplyDelay, func() {
		p.deliver(seq, widget, content)
	})
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
	return snap, nil
}

func (p *Panel) deliver(seq uint64, widget WidgetRef, content string) {
	reply := p.opts.Reply(widget, content)
	p.mu.Lock()
	if p.shutdown || !p.open || seq != p.seq {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.messages = append(p.messages, p.newMessage(RoleAssistant, reply))
	p.loading = false
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// Close hides the panel and drops the conversation.
func (p *Panel) Close() Snapshot {
	p.mu.Lock()
	p.cancelLocked()
	p.open = false
	p.widget = nil
	p.messages = nil
	p.loading = false
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(snap)
	return snap
}

// Shutdown closes the panel for good and ends every subscription.
func (p *Panel) Shutdown() {
	p.Close()
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()

	p.subMu.Lock()
	defer p.subMu.Unlock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

// Snapshot returns the panel state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe streams panel snapshots. Slow readers only see the latest.
func (p *Panel) Subscribe() (<-chan Snapshot, func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	id := p.next
	p.next++
	ch := make(chan Snapshot, 1)
	p.subs[id] = ch
	return ch, func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
}

func (p *Panel) cancelLocked() {
	p.seq++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Panel) newMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, At: p.opts.Clock.Now()}
}

func (p *Panel) snapshotLocked() Snapshot {
	snap := Snapshot{
		Open:     p.open,
		Messages: append([]Message(nil), p.messages...),
		Loading:  p.loading,
	}
	if p.widget != nil {
		ref := *p.widget
		snap.Widget = &ref
	}
	return snap
}

func (p *Panel) publish(snap Snapshot) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subs {
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

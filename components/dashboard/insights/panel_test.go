package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

var salesWidget = WidgetRef{ID: "sales-value", Title: "Sales Value", Type: "metric", Category: "Beverages"}

func TestOpenSeedsGreeting(t *testing.T) {
	p := NewPanel(Options{Clock: persist.NewFakeClock(time.Now())})
	snap, err := p.Open(salesWidget)
	require.NoError(t, err)

	assert.True(t, snap.Open)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, RoleAssistant, snap.Messages[0].Role)
	assert.Equal(t, "I've analyzed the Sales Value data for Beverages. What insights would you like me to provide?", snap.Messages[0].Content)
	assert.NotEmpty(t, snap.Messages[0].ID)

	assert.Equal(t, "I've analyzed the Map data. What insights would you like me to provide?", Greeting(WidgetRef{Title: "Map"}))
}

func TestReplyArrivesAfterDelay(t *testing.T) {
	clock := persist.NewFakeClock(time.Now())
	p := NewPanel(Options{Clock: clock})
	_, err := p.Open(salesWidget)
	require.NoError(t, err)

	snap, err := p.AddUserMessage("why did sales rise?")
	require.NoError(t, err)
	assert.True(t, snap.Loading)
	assert.Len(t, snap.Messages, 2)

	clock.Advance(999 * time.Millisecond)
	assert.Len(t, p.Snapshot().Messages, 2)

	clock.Advance(time.Millisecond)
	snap = p.Snapshot()
	assert.False(t, snap.Loading)
	require.Len(t, snap.Messages, 3)
	assert.Contains(t, snap.Messages[2].Content, "Based on the Sales Value data for Beverages")
	assert.Contains(t, snap.Messages[2].Content, "5% increase")
}

func TestCloseDropsPendingReply(t *testing.T) {
	clock := persist.NewFakeClock(time.Now())
	p := NewPanel(Options{Clock: clock})
	_, _ = p.Open(salesWidget)
	_, _ = p.AddUserMessage("hello")

	p.Close()
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Minute)

	snap := p.Snapshot()
	assert.False(t, snap.Open)
	assert.Empty(t, snap.Messages)
}

func TestReopenSupersedesPendingReply(t *testing.T) {
	clock := persist.NewFakeClock(time.Now())
	p := NewPanel(Options{Clock: clock})
	_, _ = p.Open(salesWidget)
	_, _ = p.AddUserMessage("hello")

	_, _ = p.Open(WidgetRef{ID: "price-trend-chart", Title: "Price Trend"})
	clock.Advance(time.Minute)

	snap := p.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "price-trend-chart", snap.Widget.ID)
}

func TestMessageValidation(t *testing.T) {
	p := NewPanel(Options{Clock: persist.NewFakeClock(time.Now())})
	_, err := p.AddUserMessage("hi")
	assert.ErrorIs(t, err, ErrPanelClosed)

	_, _ = p.Open(salesWidget)
	_, err = p.AddUserMessage("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	p.Shutdown()
	_, err = p.Open(salesWidget)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestSubscribeSeesLatest(t *testing.T) {
	p := NewPanel(Options{Clock: persist.NewFakeClock(time.Now())})
	updates, cancel := p.Subscribe()
	defer cancel()

	_, _ = p.Open(salesWidget)
	_, _ = p.AddUserMessage("hi")

	snap := <-updates
	assert.Len(t, snap.Messages, 2)
}

func TestMessageWhileReplyPendingIsRejected(t *testing.T) {
	clock := persist.NewFakeClock(time.Now())
	p := NewPanel(Options{Clock: clock})
	_, err := p.Open(salesWidget)
	require.NoError(t, err)

	_, err = p.AddUserMessage("first question")
	require.NoError(t, err)

	snap, err := p.AddUserMessage("second question")
	assert.ErrorIs(t, err, ErrReplyPending)
	assert.Len(t, snap.Messages, 2)
	assert.True(t, snap.Loading)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(DefaultReplyDelay)
	snap = p.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, RoleAssistant, snap.Messages[2].Role)

	_, err = p.AddUserMessage("second question")
	require.NoError(t, err)
}

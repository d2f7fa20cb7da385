package dashboard

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookSubscribe(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	event := WidgetEvent{Page: PagePerformance, WidgetID: "top-skus-table", Reason: ReasonToggle}
	if err := hook.WidgetUpdated(context.Background(), event); err != nil {
		t.Fatalf("WidgetUpdated returned error: %v", err)
	}
	select {
	case e := <-ch:
		if e.WidgetID != event.WidgetID {
			t.Fatalf("expected widget %s, got %s", event.WidgetID, e.WidgetID)
		}
	default:
		t.Fatalf("expected event to be delivered")
	}
}

func TestBroadcastHookSubscribePageFiltersEvents(t *testing.T) {
	hook := NewBroadcastHook()
	charts, cancel := hook.SubscribePage(PageCharts)
	defer cancel()

	require.NoError(t, hook.WidgetUpdated(context.Background(), WidgetEvent{Page: PagePerformance, Reason: ReasonFilters}))
	require.NoError(t, hook.WidgetUpdated(context.Background(), WidgetEvent{Page: PageCharts, Reason: ReasonReset}))

	select {
	case e := <-charts:
		assert.Equal(t, ReasonReset, e.Reason)
	default:
		t.Fatal("expected charts event")
	}
	select {
	case e := <-charts:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestBroadcastHookCloseEndsSubscriptions(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	hook.Close()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, _ := hook.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestBroadcastHookServeSSE(t *testing.T) {
	hook := NewBroadcastHook()
	srv := httptest.NewServer(http.HandlerFunc(hook.ServeSSE))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?page=charts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		hook.mu.RLock()
		defer hook.mu.RUnlock()
		return len(hook.subs) == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, hook.WidgetUpdated(context.Background(), WidgetEvent{Page: PageCharts, WidgetID: "price-chart", Reason: ReasonVisualization}))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: visualization\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"widget_id":"price-chart"`)
}

func TestBroadcastHookServeSSERejectsUnknownPage(t *testing.T) {
	hook := NewBroadcastHook()
	rec := httptest.NewRecorder()
	hook.ServeSSE(rec, httptest.NewRequest(http.MethodGet, "/events?page=home", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBroadcastHookServeWebSocket(t *testing.T) {
	hook := NewBroadcastHook()
	srv := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hook.mu.RLock()
		defer hook.mu.RUnlock()
		return len(hook.subs) == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, hook.WidgetUpdated(context.Background(), WidgetEvent{Page: PagePerformance, Reason: ReasonLayout}))

	var got WidgetEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, PagePerformance, got.Page)
	assert.Equal(t, ReasonLayout, got.Reason)
}

package persist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerTrailingValue(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	var fired []int
	d := NewDebouncer(clock, 500*time.Millisecond, func(v int) { fired = append(fired, v) })

	d.Push(1)
	clock.Advance(300 * time.Millisecond)
	d.Push(2)
	clock.Advance(300 * time.Millisecond)
	d.Push(3)
	assert.Empty(t, fired)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, []int{3}, fired)
	assert.False(t, d.Pending())
}

func TestDebouncerTakeAndCancel(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	var fired []int
	d := NewDebouncer(clock, time.Second, func(v int) { fired = append(fired, v) })

	d.Push(7)
	v, ok := d.Take()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	clock.Advance(2 * time.Second)
	assert.Empty(t, fired)

	d.Push(8)
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())
	clock.Advance(2 * time.Second)
	assert.Empty(t, fired)
}

func TestDebouncerStopRejectsPush(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	d := NewDebouncer(clock, time.Second, func(int) { t.Fatal("must not fire after stop") })
	d.Push(1)
	d.Stop()
	assert.False(t, d.Push(2))
	clock.Advance(time.Minute)
	assert.Equal(t, 0, clock.Pending())
}

func TestFakeClockFiresInDeadlineOrder(t *testing.T) {
	start := time.Unix(100, 0)
	clock := NewFakeClock(start)
	var order []string
	clock.AfterFunc(2*time.Second, func() { order = append(order, "late") })
	clock.AfterFunc(time.Second, func() {
		order = append(order, "early")
		clock.AfterFunc(500*time.Millisecond, func() { order = append(order, "chained") })
	})
	stopped := clock.AfterFunc(1500*time.Millisecond, func() { order = append(order, "stopped") })
	assert.True(t, stopped.Stop())

	clock.Advance(3 * time.Second)
	assert.Equal(t, []string{"early", "chained", "late"}, order)
	assert.Equal(t, start.Add(3*time.Second), clock.Now())
}

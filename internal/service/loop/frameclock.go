package loop

import (
	"context"
	"time"

	"detectview/internal/service/smoother"
)

// FrameClock is a display-refresh scheduler. Frame requests are one-shot and
// fire on the next tick. RequestFrame and CancelFrame must be called on the loop
// goroutine; callbacks run there too.
type FrameClock struct {
	loop     *Loop
	interval time.Duration
	now      func() time.Time

	next    smoother.FrameHandle
	pending map[smoother.FrameHandle]func(time.Time)
	order   []smoother.FrameHandle
}

var _ smoother.Scheduler = (*FrameClock)(nil)

// NewFrameClock ticks fps times per second on l.
func NewFrameClock(l *Loop, fps int) *FrameClock {
	if fps <= 0 {
		fps = 60
	}
	interval := time.Second / time.Duration(fps)
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return &FrameClock{
		loop:     l,
		interval: interval,
		now:      time.Now,
		pending:  make(map[smoother.FrameHandle]func(time.Time)),
	}
}

func (c *FrameClock) RequestFrame(fn func(time.Time)) smoother.FrameHandle {
	c.next++
	c.pending[c.next] = fn
	c.order = append(c.order, c.next)
	return c.next
}

func (c *FrameClock) CancelFrame(h smoother.FrameHandle) {
	delete(c.pending, h)
}

// Run posts a refresh task to the loop every interval until ctx is cancelled.
func (c *FrameClock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.loop.Post(c.refresh); err != nil {
				return
			}
		}
	}
}

// refresh fires every callback requested before this tick, in request order.
// Callbacks requested while firing wait for the next tick.
func (c *FrameClock) refresh() {
	if len(c.order) == 0 {
		return
	}

	now := c.now()
	due := c.order
	c.order = nil

	for _, h := range due {
		fn, ok := c.pending[h]
		if !ok {
			continue
		}
		delete(c.pending, h)
		fn(now)
	}
}

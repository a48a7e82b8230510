package smoother

import (
	"testing"
	"time"

	"detectview/internal/models"
)

// manualScheduler fires requested frames only when the test advances it.
type manualScheduler struct {
	next      FrameHandle
	callbacks map[FrameHandle]func(time.Time)
	cancelled int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{callbacks: make(map[FrameHandle]func(time.Time))}
}

func (m *manualScheduler) RequestFrame(fn func(time.Time)) FrameHandle {
	m.next++
	m.callbacks[m.next] = fn
	return m.next
}

func (m *manualScheduler) CancelFrame(h FrameHandle) {
	if _, ok := m.callbacks[h]; ok {
		delete(m.callbacks, h)
		m.cancelled++
	}
}

// fire runs every pending callback with now, like one display refresh.
func (m *manualScheduler) fire(now time.Time) {
	pending := m.callbacks
	m.callbacks = make(map[FrameHandle]func(time.Time))
	for _, fn := range pending {
		fn(now)
	}
}

func det(label string, x, y, w, h float64) models.Detection {
	return models.Detection{Label: label, Box: models.BoundingBox{X: x, Y: y, Width: w, Height: h}}
}

func batch(dets ...models.Detection) models.DetectionBatch {
	return models.DetectionBatch{Detections: dets}
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// settle drives a batch animation to completion starting at start.
func settle(sched *manualScheduler, start time.Time) {
	sched.fire(start)
	sched.fire(start.Add(DefaultDuration))
}

func TestSmoother_LabelScenario(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched)

	s.OnBatch(batch(det("1", 0, 0, 10, 10)))
	settle(sched, t0)

	s.OnBatch(batch(det("1", 100, 0, 10, 10)))

	start := t0.Add(time.Second)
	tests := []struct {
		offset   time.Duration
		expected float64
	}{
		{0, 0},
		{50 * time.Millisecond, 50},
		{100 * time.Millisecond, 100},
	}

	for _, tt := range tests {
		sched.fire(start.Add(tt.offset))
		out := s.Output()
		if len(out) != 1 {
			t.Fatalf("Expected 1 detection, got %d", len(out))
		}
		if out[0].Box.X != tt.expected {
			t.Errorf("At +%v expected x=%v, got %v", tt.offset, tt.expected, out[0].Box.X)
		}
	}

	if s.Animating() {
		t.Error("Animation should stop once progress reaches 1")
	}
}

func TestSmoother_LabelMismatchAppearsImmediately(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched)

	s.OnBatch(batch(det("1", 0, 0, 10, 10)))
	settle(sched, t0)

	s.OnBatch(batch(det("2", 50, 0, 10, 10)))
	start := t0.Add(time.Second)
	for _, offset := range []time.Duration{0, 25 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond} {
		sched.fire(start.Add(offset))
		out := s.Output()
		if len(out) != 1 || out[0].Box.X != 50 {
			t.Errorf("At +%v expected label 2 at x=50, got %+v", offset, out)
		}
	}
}

func TestSmoother_ConvergesExactly(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched)

	s.OnBatch(batch(det("car", 0.1, 0.2, 3.3, 7.7)))
	settle(sched, t0)

	target := det("car", 0.3, 19.7, 0.1, 1e-9)
	s.OnBatch(batch(target))
	start := t0.Add(time.Second)
	sched.fire(start)
	sched.fire(start.Add(33 * time.Millisecond))
	sched.fire(start.Add(150 * time.Millisecond))

	out := s.Output()
	if len(out) != 1 || out[0].Box != target.Box {
		t.Errorf("Expected exact convergence to %+v, got %+v", target.Box, out)
	}
}

func TestSmoother_LinearAtHalf(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched)

	s.OnBatch(batch(det("a", 10, 20, 30, 40)))
	settle(sched, t0)

	s.OnBatch(batch(det("a", 30, 60, 10, 0)))
	start := t0.Add(time.Second)
	sched.fire(start)
	sched.fire(start.Add(DefaultDuration / 2))

	got := s.Output()[0].Box
	expected := models.BoundingBox{X: 20, Y: 40, Width: 20, Height: 20}
	if got != expected {
		t.Errorf("Expected midpoint %+v, got %+v", expected, got)
	}
}

func TestSmoother_EmptyBatchClearsImmediately(t *testing.T) {
	sched := newManualScheduler()
	var frames []models.SmoothedFrame
	s := New(sched, WithFrameHandler(func(f models.SmoothedFrame) { frames = append(frames, f) }))

	s.OnBatch(batch(det("1", 0, 0, 10, 10)))
	sched.fire(t0)

	s.OnBatch(batch())

	if out := s.Output(); len(out) != 0 {
		t.Errorf("Expected output cleared, got %+v", out)
	}
	if s.Animating() {
		t.Error("Empty batch must not schedule an animation")
	}
	if sched.cancelled != 1 {
		t.Errorf("Expected in-flight frame to be cancelled, got %d cancellations", sched.cancelled)
	}
	if last := frames[len(frames)-1]; len(last.Detections) != 0 {
		t.Errorf("Expected an empty frame to be emitted, got %+v", last)
	}

	// previous was reset, so the next batch has no predecessor to glide from
	s.OnBatch(batch(det("1", 100, 0, 10, 10)))
	sched.fire(t0.Add(time.Second))
	if x := s.Output()[0].Box.X; x != 100 {
		t.Errorf("Expected x=100 after reset, got %v", x)
	}
}

func TestSmoother_NewBatchCancelsInFlight(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched)

	s.OnBatch(batch(det("1", 0, 0, 10, 10)))
	settle(sched, t0)

	s.OnBatch(batch(det("1", 100, 0, 10, 10)))
	start := t0.Add(time.Second)
	sched.fire(start)
	sched.fire(start.Add(50 * time.Millisecond))

	s.OnBatch(batch(det("1", 200, 0, 10, 10)))
	if len(sched.callbacks) != 1 {
		t.Fatalf("Expected exactly one pending frame, got %d", len(sched.callbacks))
	}
	if sched.cancelled != 1 {
		t.Errorf("Expected the previous frame to be cancelled, got %d", sched.cancelled)
	}

	// interrupted target is not promoted: interpolation restarts from x=0
	restart := start.Add(60 * time.Millisecond)
	sched.fire(restart)
	sched.fire(restart.Add(50 * time.Millisecond))
	if x := s.Output()[0].Box.X; x != 100 {
		t.Errorf("Expected x=100 halfway from 0 to 200, got %v", x)
	}
}

func TestSmoother_FirstMatchWins(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched)

	s.OnBatch(batch(det("p", 0, 0, 10, 10), det("p", 1000, 0, 10, 10)))
	settle(sched, t0)

	s.OnBatch(batch(det("p", 100, 0, 10, 10), det("p", 200, 0, 10, 10)))
	start := t0.Add(time.Second)
	sched.fire(start)
	sched.fire(start.Add(50 * time.Millisecond))

	out := s.Output()
	if out[0].Box.X != 50 || out[1].Box.X != 100 {
		t.Errorf("Expected both to glide from the first 'p' (50, 100), got %v, %v", out[0].Box.X, out[1].Box.X)
	}
}

func TestSmoother_CustomDuration(t *testing.T) {
	sched := newManualScheduler()
	s := New(sched, WithDuration(time.Second))

	s.OnBatch(batch(det("1", 0, 0, 0, 0)))
	sched.fire(t0)
	sched.fire(t0.Add(time.Second))

	s.OnBatch(batch(det("1", 10, 0, 0, 0)))
	start := t0.Add(2 * time.Second)
	sched.fire(start)
	sched.fire(start.Add(250 * time.Millisecond))

	if x := s.Output()[0].Box.X; x != 2.5 {
		t.Errorf("Expected x=2.5 at a quarter of 1s, got %v", x)
	}
}

func TestInterpolate_KeepsNonGeometryFields(t *testing.T) {
	prev := []models.Detection{{Label: "dog", Score: 0.2, Box: models.BoundingBox{X: 0}}}
	cur := []models.Detection{{Label: "dog", Score: 0.9, ClassID: 18, Box: models.BoundingBox{X: 10}}}

	out := Interpolate(prev, cur, 0.5)

	if out[0].Score != 0.9 || out[0].ClassID != 18 {
		t.Errorf("Expected score and class of the current detection, got %+v", out[0])
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b, t, expected float64
	}{
		{0, 100, 0, 0},
		{0, 100, 0.5, 50},
		{0, 100, 1, 100},
		{0.1, 0.3, 1, 0.3},
		{-10, 10, 0.25, -5},
	}

	for _, tt := range tests {
		if got := Lerp(tt.a, tt.b, tt.t); got != tt.expected {
			t.Errorf("Lerp(%v, %v, %v) = %v, expected %v", tt.a, tt.b, tt.t, got, tt.expected)
		}
	}
}

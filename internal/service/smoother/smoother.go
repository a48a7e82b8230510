// Package smoother interpolates between consecutive detection batches so that
// rendered boxes glide instead of snapping to each new network result.
//
// A Smoother is not safe for concurrent use. All calls, including the frame
// callbacks it hands to its Scheduler, must run on one goroutine (see loop.Loop).
package smoother

import (
	"time"

	"detectview/internal/models"
)

// DefaultDuration is the length of one interpolation.
const DefaultDuration = 100 * time.Millisecond

// FrameHandle identifies a requested frame callback.
type FrameHandle uint64

// Scheduler is a cooperative per-frame scheduler, the display refresh callback.
// A requested callback fires once with the frame timestamp.
type Scheduler interface {
	RequestFrame(fn func(now time.Time)) FrameHandle
	CancelFrame(h FrameHandle)
}

// Option configures a Smoother.
type Option func(*Smoother)

// WithDuration overrides DefaultDuration.
func WithDuration(d time.Duration) Option {
	return func(s *Smoother) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithFrameHandler registers a callback invoked with every produced frame.
func WithFrameHandler(fn func(models.SmoothedFrame)) Option {
	return func(s *Smoother) {
		s.onFrame = fn
	}
}

type Smoother struct {
	scheduler Scheduler
	duration  time.Duration
	onFrame   func(models.SmoothedFrame)

	previous []models.Detection
	current  models.DetectionBatch
	output   models.SmoothedFrame

	handle  FrameHandle
	pending bool
	start   time.Time
	started bool
}

func New(scheduler Scheduler, opts ...Option) *Smoother {
	s := &Smoother{
		scheduler: scheduler,
		duration:  DefaultDuration,
		previous:  []models.Detection{},
		output:    models.SmoothedFrame{Detections: []models.Detection{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnBatch makes batch the new interpolation target.
// An in-flight animation is cancelled; its target is never promoted to previous.
// An empty batch clears the output immediately and forgets the previous batch.
func (s *Smoother) OnBatch(batch models.DetectionBatch) {
	s.cancel()
	s.current = batch

	if len(batch.Detections) == 0 {
		s.previous = []models.Detection{}
		s.emit(models.SmoothedFrame{Seq: batch.Seq, Progress: 1, Detections: []models.Detection{}})
		return
	}

	s.started = false
	s.schedule()
}

// Output returns a copy of the most recent smoothed detections.
func (s *Smoother) Output() []models.Detection {
	return models.CloneDetections(s.output.Detections)
}

// Frame returns the most recent smoothed frame.
func (s *Smoother) Frame() models.SmoothedFrame {
	f := s.output
	f.Detections = models.CloneDetections(f.Detections)
	return f
}

// Animating reports whether an interpolation is in progress.
func (s *Smoother) Animating() bool {
	return s.pending
}

// Stop cancels any pending frame. The last output is kept.
func (s *Smoother) Stop() {
	s.cancel()
}

func (s *Smoother) schedule() {
	s.handle = s.scheduler.RequestFrame(s.tick)
	s.pending = true
}

func (s *Smoother) cancel() {
	if s.pending {
		s.scheduler.CancelFrame(s.handle)
		s.pending = false
	}
}

func (s *Smoother) tick(now time.Time) {
	s.pending = false
	if !s.started {
		s.start = now
		s.started = true
	}

	progress := float64(now.Sub(s.start)) / float64(s.duration)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	s.emit(models.SmoothedFrame{
		Seq:        s.current.Seq,
		Progress:   progress,
		Detections: Interpolate(s.previous, s.current.Detections, progress),
	})

	if progress < 1 {
		s.schedule()
		return
	}
	s.previous = models.CloneDetections(s.current.Detections)
}

func (s *Smoother) emit(frame models.SmoothedFrame) {
	s.output = frame
	if s.onFrame != nil {
		s.onFrame(s.Frame())
	}
}

// Interpolate blends every current detection with the first previous detection
// sharing its label. Unmatched detections are returned at their final position.
func Interpolate(previous, current []models.Detection, progress float64) []models.Detection {
	out := make([]models.Detection, 0, len(current))
	for _, det := range current {
		from := det.Box
		if prev, ok := findByLabel(previous, det.Label); ok {
			from = prev.Box
		}

		smoothed := det
		smoothed.Box = models.BoundingBox{
			X:      Lerp(from.X, det.Box.X, progress),
			Y:      Lerp(from.Y, det.Box.Y, progress),
			Width:  Lerp(from.Width, det.Box.Width, progress),
			Height: Lerp(from.Height, det.Box.Height, progress),
		}
		out = append(out, smoothed)
	}
	return out
}

// Lerp returns a + (b-a)*t. The endpoints are returned exactly at t=0 and t=1.
func Lerp(a, b, t float64) float64 {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return a + (b-a)*t
}

func findByLabel(list []models.Detection, label string) (models.Detection, bool) {
	for _, d := range list {
		if d.Label == label {
			return d, true
		}
	}
	return models.Detection{}, false
}

package stream

import (
	"context"
	"time"

	"detectview/internal/logger"
	"detectview/internal/models"
)

// VideoDetector is the "detect video frame" entry point of the inference capability.
type VideoDetector interface {
	DetectVideoFrame(frame []byte, timestamp time.Duration) ([]models.NormalizedDetection, error)
}

// LocalRunner detects on captured frames in process and emits pixel-space batches.
type LocalRunner struct {
	source   FrameSource
	detector VideoDetector
	sink     BatchSink
	interval time.Duration
	logger   *logger.Logger

	seq uint64
}

func NewLocalRunner(source FrameSource, detector VideoDetector, sink BatchSink, interval time.Duration, logger *logger.Logger) *LocalRunner {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &LocalRunner{
		source:   source,
		detector: detector,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Run detects once per interval until ctx is cancelled.
func (r *LocalRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	start := time.Now()

	r.logger.Info("Local detection started, every %v", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Local detection stopped")
			return nil
		case <-ticker.C:
			r.step(time.Since(start))
		}
	}
}

func (r *LocalRunner) step(ts time.Duration) {
	frame, err := r.source.Frame()
	if err != nil {
		r.logger.Warning("Skipping frame: %v", err)
		return
	}

	normalized, err := r.detector.DetectVideoFrame(frame, ts)
	if err != nil {
		r.logger.Error("Frame detection failed: %v", err)
		return
	}

	width, height := r.source.Size()
	r.seq++
	r.sink(models.DetectionBatch{
		Seq:        r.seq,
		ReceivedAt: time.Now(),
		Detections: models.ScaleDetections(normalized, width, height),
	})
}

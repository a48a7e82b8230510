package ai

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"detectview/internal/config"
	"detectview/internal/logger"
	"detectview/internal/models"
)

// DefaultScoreThreshold is the minimum confidence kept when none is configured.
const DefaultScoreThreshold = 0.5

// ErrNotInitialized is returned when the network could not be loaded.
var ErrNotInitialized = errors.New("detection network not initialized")

// DetectorService runs an SSD-style DNN in process. It is initialized once and
// then invoked per image or per video frame; both return boxes normalized to [0,1].
type DetectorService struct {
	net        gocv.Net
	ready      bool
	mu         sync.Mutex
	modelPath  string
	configPath string
	threshold  float64
	lastFrame  time.Duration
	logger     *logger.Logger
}

// NewDetectorService creates a detector and attempts to load the network.
// A missing model leaves the service in place; calls return ErrNotInitialized.
func NewDetectorService(config *config.Config, logger *logger.Logger) *DetectorService {
	threshold := config.DetectionThreshold
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}

	service := &DetectorService{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		threshold:  threshold,
		logger:     logger,
	}

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize detection network: %v", err)
	}
	return service
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return fmt.Errorf("failed to set preferable backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return fmt.Errorf("failed to set preferable target: %w", err)
	}

	s.net = net
	s.ready = true
	s.logger.Info("Detection network initialized successfully")
	return nil
}

// Ready reports whether the network loaded.
func (s *DetectorService) Ready() bool {
	return s.ready
}

// DetectImage runs detection on one encoded image.
func (s *DetectorService) DetectImage(img []byte) ([]models.NormalizedDetection, error) {
	mat, err := decode(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return s.detect(mat)
}

// DetectVideoFrame runs detection on one encoded video frame. Timestamps must
// increase; a frame older than the last processed one is rejected.
func (s *DetectorService) DetectVideoFrame(frame []byte, timestamp time.Duration) ([]models.NormalizedDetection, error) {
	s.mu.Lock()
	if timestamp < s.lastFrame {
		s.mu.Unlock()
		return nil, fmt.Errorf("frame timestamp %v precedes %v", timestamp, s.lastFrame)
	}
	s.lastFrame = timestamp
	s.mu.Unlock()

	mat, err := decode(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return s.detect(mat)
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil
	}
	s.ready = false
	return s.net.Close()
}

func decode(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return mat, fmt.Errorf("failed to decode image: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return mat, fmt.Errorf("decoded image is empty")
	}
	return mat, nil
}

// detect feeds mat through the network. Output rows are
// [batch_id, class_id, confidence, x1, y1, x2, y2] with normalized corners.
func (s *DetectorService) detect(mat gocv.Mat) ([]models.NormalizedDetection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotInitialized
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	results := make([]models.NormalizedDetection, 0)
	for i := 0; i < rows.Rows(); i++ {
		confidence := float64(rows.GetFloatAt(i, 2))
		if confidence < s.threshold {
			continue
		}
		classID := int(rows.GetFloatAt(i, 1))
		x1 := clamp01(float64(rows.GetFloatAt(i, 3)))
		y1 := clamp01(float64(rows.GetFloatAt(i, 4)))
		x2 := clamp01(float64(rows.GetFloatAt(i, 5)))
		y2 := clamp01(float64(rows.GetFloatAt(i, 6)))

		results = append(results, models.NormalizedDetection{
			X:       x1,
			Y:       y1,
			Width:   x2 - x1,
			Height:  y2 - y1,
			Label:   ClassLabel(classID),
			ClassID: classID,
			Score:   confidence,
		})
	}
	return results, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package storage keeps analyzed uploads in memory and periodically
// persists them to disk and the analysis history database.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"detectview/internal/config"
	"detectview/internal/dto"
	"detectview/internal/logger"
	"detectview/internal/models"
	"detectview/internal/repository"
)

const (
	// DefaultBufferLimit caps how many analyses are held before new ones are dropped.
	DefaultBufferLimit = 10
	// DefaultFlushInterval is how often buffered analyses are flushed.
	DefaultFlushInterval = 30 * time.Second

	timestampLayout = "2006-01-02_15-04-05.000"
)

// BufferService buffers analyses in memory and periodically flushes them.
type BufferService struct {
	imagesDir     string
	limit         int
	interval      time.Duration
	analyses      []dto.BufferedAnalysis
	mu            sync.Mutex
	logger        *logger.Logger
	imageRepo     repository.ImageRepository
	detectionRepo repository.DetectionRepository
}

func NewBufferService(cfg *config.Config, logger *logger.Logger, imageRepo repository.ImageRepository, detectionRepo repository.DetectionRepository) *BufferService {
	limit := cfg.ImageBufferLimit
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	interval := time.Duration(cfg.ImageBufferFlushInterval) * time.Second
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &BufferService{
		imagesDir:     cfg.ImageDirectory,
		limit:         limit,
		interval:      interval,
		analyses:      make([]dto.BufferedAnalysis, 0, limit),
		logger:        logger,
		imageRepo:     imageRepo,
		detectionRepo: detectionRepo,
	}
}

// Run flushes on every interval and once more when ctx is cancelled.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Add buffers one analyzed upload. It reports false when the buffer is full.
func (s *BufferService) Add(data []byte, result dto.BufferedAnalysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.analyses) >= s.limit {
		s.logger.Warning("Analysis buffer full (%d), dropping %s", s.limit, result.Filename)
		return false
	}

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	result.Data = data
	result.Detections = models.CloneDetections(result.Detections)
	s.analyses = append(s.analyses, result)
	s.logger.Info("Analysis buffer size: %d/%d", len(s.analyses), s.limit)
	return true
}

// Pending returns the number of buffered analyses.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.analyses)
}

// Flush writes buffered analyses to disk and the repositories, then clears
// the buffer. It returns the number of analyses saved.
func (s *BufferService) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.analyses) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	saved := 0
	for _, a := range s.analyses {
		if err := s.save(a); err != nil {
			s.logger.Error("%v", err)
			continue
		}
		saved++
	}

	s.logger.Info("Flushed %d analyses to disk", saved)
	s.analyses = s.analyses[:0]
	return saved
}

func (s *BufferService) save(a dto.BufferedAnalysis) error {
	filename := FileName(a)
	fullpath := filepath.Join(s.imagesDir, filename)

	if err := os.WriteFile(fullpath, a.Data, 0644); err != nil {
		return fmt.Errorf("error saving image %s: %w", filename, err)
	}

	if s.imageRepo == nil {
		return nil
	}

	imageID, err := s.imageRepo.Insert(&models.Image{
		Filename:  filename,
		Source:    a.Source,
		Timestamp: a.Timestamp,
		FilePath:  fullpath,
		FileSize:  int64(len(a.Data)),
		Width:     a.Width,
		Height:    a.Height,
	})
	if err != nil {
		return fmt.Errorf("error saving image %s to database: %w", filename, err)
	}

	if s.detectionRepo == nil || len(a.Detections) == 0 {
		return nil
	}

	rows := make([]models.StoredDetection, 0, len(a.Detections))
	for _, d := range a.Detections {
		rows = append(rows, models.StoredDetection{
			ImageID: imageID,
			Label:   d.Label,
			ClassID: d.ClassID,
			X:       d.Box.X,
			Y:       d.Box.Y,
			Width:   d.Box.Width,
			Height:  d.Box.Height,
			Score:   d.Score,
		})
	}
	if err := s.detectionRepo.InsertBatch(rows); err != nil {
		return fmt.Errorf("error saving detections of %s: %w", filename, err)
	}
	return nil
}

// Caps keep FileName under the 255-byte limit of common filesystems.
const (
	maxSourceLength = 32
	maxLabelSuffix  = 160
)

// FileName builds the stored file name from the timestamp, source and labels.
// Labels that do not fit in maxLabelSuffix are left out.
func FileName(a dto.BufferedAnalysis) string {
	var labels strings.Builder
	seen := map[string]bool{}
	for _, d := range a.Detections {
		if seen[d.Label] {
			continue
		}
		seen[d.Label] = true
		segment := "_" + sanitize(d.Label)
		if labels.Len()+len(segment) > maxLabelSuffix {
			if labels.Len() == 0 {
				labels.WriteString(segment[:maxLabelSuffix])
			}
			break
		}
		labels.WriteString(segment)
	}

	source := sanitize(a.Source)
	if len(source) > maxSourceLength {
		source = source[:maxSourceLength]
	}

	ext := strings.ToLower(filepath.Ext(a.Filename))
	if len(ext) < 2 || len(ext) > 8 || sanitize(ext[1:]) != ext[1:] {
		ext = ".jpg"
	}
	return a.Timestamp.Format(timestampLayout) + "_" + source + labels.String() + ext
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

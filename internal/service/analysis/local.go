package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"detectview/internal/models"
)

// ImageDetector is the "detect single image" entry point of the inference capability.
type ImageDetector interface {
	DetectImage(img []byte) ([]models.NormalizedDetection, error)
}

// LocalAnalyzer analyzes uploads with the in-process detector.
type LocalAnalyzer struct {
	detector ImageDetector
}

func NewLocalAnalyzer(detector ImageDetector) *LocalAnalyzer {
	return &LocalAnalyzer{detector: detector}
}

func (a *LocalAnalyzer) Analyze(ctx context.Context, _ string, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	width, height := imageSize(data)
	if width == 0 || height == 0 {
		return Result{}, errors.New("unsupported or corrupt image")
	}

	normalized, err := a.detector.DetectImage(data)
	if err != nil {
		return Result{}, fmt.Errorf("local detection failed: %w", err)
	}

	return Result{
		Source:     SourceLocal,
		Width:      width,
		Height:     height,
		Detections: models.ScaleDetections(normalized, width, height),
	}, nil
}

// imageSize reads the dimensions from the image header; zero when unknown.
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

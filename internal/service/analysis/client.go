// Package analysis talks to the static image analysis collaborators: a remote
// HTTP endpoint or the in-process detector.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"detectview/internal/dto"
	"detectview/internal/models"
)

var (
	// ErrUpstream wraps non-success responses from the analysis endpoint.
	ErrUpstream = errors.New("analysis endpoint error")
	// ErrBadResponse is returned for bodies that do not describe detections.
	ErrBadResponse = errors.New("malformed analysis response")
)

const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Result is one analyzed image.
type Result struct {
	Source     string
	Width      int
	Height     int
	Detections []models.Detection
}

// Analyzer detects objects in one uploaded image.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (Result, error)
}

// Client posts images to a remote analysis endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze sends data as the multipart field "image" and decodes detection_data.
func (c *Client) Analyze(ctx context.Context, filename string, data []byte) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Result{}, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to reach analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var payload dto.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	detections, err := ConvertDetections(payload.DetectionData)
	if err != nil {
		return Result{}, err
	}

	width, height := imageSize(data)
	return Result{
		Source:     SourceRemote,
		Width:      width,
		Height:     height,
		Detections: detections,
	}, nil
}

// ConvertDetections turns [x1, y1, x2, y2] records into boxes labelled with the class name.
func ConvertDetections(in []dto.AnalyzeDetection) ([]models.Detection, error) {
	out := make([]models.Detection, 0, len(in))
	for i, d := range in {
		if len(d.BBox) != 4 {
			return nil, fmt.Errorf("%w: detection %d has %d bbox values", ErrBadResponse, i, len(d.BBox))
		}
		for _, v := range d.BBox {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: detection %d has a non-finite bbox", ErrBadResponse, i)
			}
		}

		x1, y1, x2, y2 := d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]
		out = append(out, models.Detection{
			Box: models.BoundingBox{
				X:      x1,
				Y:      y1,
				Width:  x2 - x1,
				Height: y2 - y1,
			},
			Label:   d.ClassName,
			ClassID: d.ClassID,
			Score:   d.Score,
		})
	}
	return out, nil
}

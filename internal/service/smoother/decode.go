package smoother

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"detectview/internal/dto"
	"detectview/internal/models"
)

// ErrMalformedBatch is returned for stream payloads that must not reach a Smoother.
var ErrMalformedBatch = errors.New("malformed detection batch")

// DecodeBatch parses one stream message into a DetectionBatch.
// Any malformed detection rejects the whole batch.
func DecodeBatch(payload []byte, seq uint64, receivedAt time.Time) (models.DetectionBatch, error) {
	var msg dto.StreamMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return models.DetectionBatch{}, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}

	raw := bytes.TrimSpace(msg.Detections)
	if len(raw) == 0 || raw[0] != '[' {
		return models.DetectionBatch{}, fmt.Errorf("%w: detections is not a list", ErrMalformedBatch)
	}

	var entries []dto.StreamDetection
	if err := json.Unmarshal(raw, &entries); err != nil {
		return models.DetectionBatch{}, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}

	detections := make([]models.Detection, 0, len(entries))
	for i, entry := range entries {
		det, err := toDetection(entry)
		if err != nil {
			return models.DetectionBatch{}, fmt.Errorf("%w: detection %d: %v", ErrMalformedBatch, i, err)
		}
		detections = append(detections, det)
	}

	return models.DetectionBatch{
		Seq:        seq,
		ReceivedAt: receivedAt,
		Detections: detections,
	}, nil
}

func toDetection(entry dto.StreamDetection) (models.Detection, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"x", entry.X},
		{"y", entry.Y},
		{"width", entry.Width},
		{"height", entry.Height},
	}
	for _, f := range fields {
		if f.value == nil {
			return models.Detection{}, fmt.Errorf("missing %s", f.name)
		}
		if math.IsNaN(*f.value) || math.IsInf(*f.value, 0) {
			return models.Detection{}, fmt.Errorf("%s is not finite", f.name)
		}
	}
	if *entry.Width < 0 || *entry.Height < 0 {
		return models.Detection{}, fmt.Errorf("negative size %vx%v", *entry.Width, *entry.Height)
	}

	label, err := ParseLabel(entry.Label)
	if err != nil {
		return models.Detection{}, err
	}

	det := models.Detection{
		Box: models.BoundingBox{
			X:      *entry.X,
			Y:      *entry.Y,
			Width:  *entry.Width,
			Height: *entry.Height,
		},
		Label: label,
	}
	if n, err := strconv.Atoi(label); err == nil {
		det.ClassID = n
	}
	if entry.Score != nil {
		if *entry.Score < 0 || *entry.Score > 1 || math.IsNaN(*entry.Score) {
			return models.Detection{}, fmt.Errorf("score %v outside [0,1]", *entry.Score)
		}
		det.Score = *entry.Score
	}
	return det, nil
}

// ParseLabel accepts a JSON number or string. Numbers are normalized to their
// shortest decimal text so 1 and 1.0 name the same object. A number and a string
// with the same text, such as 1 and "1", also name the same object.
func ParseLabel(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("missing label")
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("label: %v", err)
		}
		if strings.TrimSpace(s) == "" {
			return "", errors.New("empty label")
		}
		return s, nil
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("label is neither number nor string")
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	}
}

package dto

import (
	"time"

	"detectview/internal/models"
)

// BufferedAnalysis holds an analyzed upload before it is flushed to disk and database.
type BufferedAnalysis struct {
	Timestamp  time.Time
	Filename   string
	Source     string
	Width      int
	Height     int
	Detections []models.Detection
	Data       []byte
}

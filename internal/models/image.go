package models

import "time"

// Image represents an analyzed image record.
type Image struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"` // "remote" or "local" analyzer
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// StoredDetection is a detection row belonging to an analyzed image.
type StoredDetection struct {
	ID      int64   `json:"id"`
	ImageID int64   `json:"image_id"`
	Label   string  `json:"label"`
	ClassID int     `json:"class_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Score   float64 `json:"score"`
}

// ImageFilter contains filtering options for querying analyses.
type ImageFilter struct {
	Source string
	Label  string
	After  time.Time
	Before time.Time
	Limit  int
	Offset int
}

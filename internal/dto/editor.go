package dto

import "detectview/internal/models"

// EditorState is the JSON view of an annotation editor session.
type EditorState struct {
	ID         string             `json:"id"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Selected   *int               `json:"selected"`
	Dragging   bool               `json:"dragging"`
	Detections []models.Detection `json:"detections"`
}

// PointerEvent is a mouse event relative to the canvas origin.
type PointerEvent struct {
	Type string  `json:"type"` // down, move, up, leave
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// RenameRequest overwrites the label text of one box.
type RenameRequest struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

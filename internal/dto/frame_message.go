package dto

import "detectview/internal/models"

// FrameMessage is broadcast to stream viewers for every smoothed frame.
type FrameMessage struct {
	Type         string             `json:"type"`
	Seq          uint64             `json:"seq"`
	Progress     float64            `json:"progress"`
	SourceWidth  int                `json:"sourceWidth,omitempty"`
	SourceHeight int                `json:"sourceHeight,omitempty"`
	Detections   []models.Detection `json:"detections"`
}

// NewFrameMessage wraps a smoothed frame for viewers.
func NewFrameMessage(frame models.SmoothedFrame, sourceWidth, sourceHeight int) FrameMessage {
	return FrameMessage{
		Type:         "frame",
		Seq:          frame.Seq,
		Progress:     frame.Progress,
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		Detections:   models.CloneDetections(frame.Detections),
	}
}

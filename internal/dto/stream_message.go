package dto

import "encoding/json"

// StreamMessage is one inbound message from the streaming detection endpoint.
// Fields are kept raw so the decoder can tell missing values from zeros.
type StreamMessage struct {
	Detections json.RawMessage `json:"detections"`
}

// StreamDetection is a single entry of StreamMessage.Detections.
type StreamDetection struct {
	X      *float64        `json:"x"`
	Y      *float64        `json:"y"`
	Width  *float64        `json:"width"`
	Height *float64        `json:"height"`
	Label  json.RawMessage `json:"label"`
	Score  *float64        `json:"score,omitempty"`
}

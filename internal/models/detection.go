package models

import "time"

// BoundingBox is an axis-aligned rectangle in source pixel units.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (b BoundingBox) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b BoundingBox) Bottom() float64 { return b.Y + b.Height }

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.X && x <= b.Right() && y >= b.Y && y <= b.Bottom()
}

// Translate returns the box moved by (dx, dy).
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	b.X += dx
	b.Y += dy
	return b
}

// Detection is a single detected object.
// Label is the identity used to match detections across batches.
type Detection struct {
	Box     BoundingBox `json:"box"`
	Label   string      `json:"label"`
	ClassID int         `json:"class_id,omitempty"`
	Score   float64     `json:"score"`
}

// DetectionBatch is one message worth of detections sharing an arrival time.
type DetectionBatch struct {
	Seq        uint64      `json:"seq"`
	ReceivedAt time.Time   `json:"received_at"`
	Detections []Detection `json:"detections"`
}

// SmoothedFrame is the smoother output at a given animation progress.
type SmoothedFrame struct {
	Seq        uint64      `json:"seq"`
	Progress   float64     `json:"progress"`
	Detections []Detection `json:"detections"`
}

// CloneDetections returns a copy of the slice, never nil.
func CloneDetections(in []Detection) []Detection {
	out := make([]Detection, len(in))
	copy(out, in)
	return out
}

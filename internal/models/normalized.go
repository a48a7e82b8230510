package models

// NormalizedDetection is a detection whose box is expressed in [0,1] of the frame size,
// as produced by the in-process inference capability.
type NormalizedDetection struct {
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Label   string
	ClassID int
	Score   float64
}

// ToPixels scales the detection to a frame of width x height pixels.
func (n NormalizedDetection) ToPixels(width, height int) Detection {
	w, h := float64(width), float64(height)
	return Detection{
		Box: BoundingBox{
			X:      n.X * w,
			Y:      n.Y * h,
			Width:  n.Width * w,
			Height: n.Height * h,
		},
		Label:   n.Label,
		ClassID: n.ClassID,
		Score:   n.Score,
	}
}

// ScaleDetections converts a whole result set to pixel space.
func ScaleDetections(in []NormalizedDetection, width, height int) []Detection {
	out := make([]Detection, 0, len(in))
	for _, n := range in {
		out = append(out, n.ToPixels(width, height))
	}
	return out
}

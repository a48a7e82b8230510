package dto

// AnalyzeResponse is the body returned by the static analysis endpoint.
type AnalyzeResponse struct {
	DetectionData []AnalyzeDetection `json:"detection_data"`
}

// AnalyzeDetection carries a bbox as [x1, y1, x2, y2].
type AnalyzeDetection struct {
	BBox      []float64 `json:"bbox"`
	Score     float64   `json:"score"`
	ClassID   int       `json:"class_id"`
	ClassName string    `json:"class_name"`
}

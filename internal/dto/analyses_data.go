package dto

import (
	"encoding/json"
	"time"
)

// AnalysisInfo is a stored analysis as listed by the gallery.
type AnalysisInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Labels    []string  `json:"labels"`
}

// MarshalJSON formats the timestamp as date and time-of-day for the UI.
func (a AnalysisInfo) MarshalJSON() ([]byte, error) {
	type Alias AnalysisInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Timestamp.Format("02-01-2006"),
		TimeOfDay: a.Timestamp.Format("15:04"),
		Alias:     (Alias)(a),
	})
}

// AnalysesData is a paginated response payload for the analysis history.
type AnalysesData struct {
	Analyses    []AnalysisInfo `json:"analyses"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}

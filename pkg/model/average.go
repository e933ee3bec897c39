package model

import "time"

// AverageResult is the derived mean for one configured window at a point in
// time.
type AverageResult struct {
	WindowName   string    `json:"window_name"`
	Value        float64   `json:"value"`
	SampleCount  int       `json:"sample_count"`
	IsPartial    bool      `json:"is_partial"`
	CalculatedAt time.Time `json:"calculated_at"`
}

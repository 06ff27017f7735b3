package models

import "time"

// RunRecord is the stored summary of one completed pipeline run.
type RunRecord struct {
	ID           string              `json:"id"`
	Pipeline     string              `json:"pipeline"`
	CreatedAt    time.Time           `json:"createdAt"`
	DrawCount    int                 `json:"drawCount"`
	LastDrawDate time.Time           `json:"lastDrawDate"`
	NextDrawDate time.Time           `json:"nextDrawDate"`
	Regime       Regime              `json:"regime"`
	Weights      WeightConfiguration `json:"weights"`
	AvgMainHits  float64             `json:"avgMainHits"`
	Lift         float64             `json:"lift"`
}

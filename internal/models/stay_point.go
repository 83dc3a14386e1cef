package models

import "time"

// StayPoint represents a dwell location detected from clustered location
// fixes. A stay point is mutated in place when a later cluster merges into
// it: visits increment, the departure time extends, and the cumulative
// duration grows. Stay points are only removed by capacity eviction.
type StayPoint struct {
	Latitude   float64   `json:"latitude"`  // Cluster center
	Longitude  float64   `json:"longitude"` // Cluster center
	ArrivalAt  time.Time `json:"arrivalAt"`
	DepartedAt time.Time `json:"departedAt"`
	DurationS  int64     `json:"durationS"` // Cumulative dwell time in seconds
	VisitCount int       `json:"visitCount"`
}

// Duration returns the cumulative dwell time.
func (s *StayPoint) Duration() time.Duration {
	return time.Duration(s.DurationS) * time.Second
}

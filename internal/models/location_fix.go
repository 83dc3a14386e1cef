package models

import "time"

// LocationFix is a single raw location reading from the location provider.
// Fixes are immutable once recorded and are retained in a bounded ring
// buffer, oldest evicted first.
type LocationFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AccuracyM float64   `json:"accuracyM,omitempty"` // Horizontal accuracy in meters, 0 if unknown
	Timestamp time.Time `json:"timestamp"`
}

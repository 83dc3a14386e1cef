package models

import "time"

// BehaviorContext is the read-only, consumer-facing summary derived from
// recent behavior patterns. It is computed on demand and never persisted.
type BehaviorContext struct {
	MoodScore       float64           `json:"moodScore"`
	RecentPatterns  []BehaviorPattern `json:"recentPatterns"`
	ActivityLevel   string            `json:"activityLevel"`
	SocialContext   string            `json:"socialContext"`
	LocationLabel   string            `json:"locationLabel"`
	Recommendations []string          `json:"recommendations,omitempty"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// PrivacySummary describes what the engine currently holds and for how
// long, for user-facing privacy surfaces.
type PrivacySummary struct {
	Enabled         bool   `json:"enabled"`
	FixCount        int    `json:"fixCount"`
	StayPointCount  int    `json:"stayPointCount"`
	PatternCount    int    `json:"patternCount"`
	RetentionPolicy string `json:"retentionPolicy"`
}

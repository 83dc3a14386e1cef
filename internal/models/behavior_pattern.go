package models

import "time"

// Time-of-day buckets used as contextual factors.
const (
	TimeOfDayMorning   = "morning"   // 06:00-12:00
	TimeOfDayAfternoon = "afternoon" // 12:00-17:00
	TimeOfDayEvening   = "evening"   // 17:00-22:00
	TimeOfDayNight     = "night"     // 22:00-06:00
)

// Location labels derived from stay-point context.
const (
	LocationLabelHome    = "home"
	LocationLabelWork    = "work"
	LocationLabelLeisure = "leisure"
	LocationLabelOther   = "other"
	LocationLabelMobile  = "mobile" // no stay point in the window
)

// BehaviorPattern is a single computed snapshot of derived behavioral
// scores. Component scores are clamped to [0,10], mood to [0,100].
// Patterns are immutable once computed and are appended to a bounded,
// age-pruned history.
type BehaviorPattern struct {
	ID            string    `json:"id"`
	LocationScore float64   `json:"locationScore"`
	ActivityScore float64   `json:"activityScore"`
	SocialScore   float64   `json:"socialScore"`
	SleepScore    float64   `json:"sleepScore"`
	MoodScore     float64   `json:"moodScore"`
	TimeOfDay     string    `json:"timeOfDay"`
	DayOfWeek     string    `json:"dayOfWeek"`
	LocationLabel string    `json:"locationLabel"`
	Timestamp     time.Time `json:"timestamp"`
}

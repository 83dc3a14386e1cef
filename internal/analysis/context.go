package analysis

import (
	"time"

	"github.com/sensekit/behavior-engine-go/internal/models"
)

// Number of recent patterns surfaced to consumers.
const contextWindow = 10

// BuildContext derives the consumer-facing behavior context from the
// pattern history, most recent last. Returns nil when no pattern exists
// yet. Pure derivation, no side effects.
func BuildContext(patterns []models.BehaviorPattern, now time.Time) *models.BehaviorContext {
	if len(patterns) == 0 {
		return nil
	}

	latest := patterns[len(patterns)-1]
	recent := patterns
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}
	window := make([]models.BehaviorPattern, len(recent))
	copy(window, recent)

	return &models.BehaviorContext{
		MoodScore:       latest.MoodScore,
		RecentPatterns:  window,
		ActivityLevel:   activityLabel(latest.ActivityScore),
		SocialContext:   socialLabel(latest.SocialScore),
		LocationLabel:   latest.LocationLabel,
		Recommendations: recommendations(latest),
		GeneratedAt:     now,
	}
}

// activityLabel buckets an activity score into wording consumers can show
// directly.
func activityLabel(score float64) string {
	switch {
	case score <= 3:
		return "low activity"
	case score <= 6:
		return "moderately active"
	case score <= 8:
		return "active"
	default:
		return "very active"
	}
}

// socialLabel buckets a social score the same way.
func socialLabel(score float64) string {
	switch {
	case score <= 3:
		return "little social exposure"
	case score <= 6:
		return "moderate social exposure"
	case score <= 8:
		return "socially engaged"
	default:
		return "highly socially engaged"
	}
}

// recommendations emits threshold-triggered suggestion strings for the
// latest pattern.
func recommendations(p models.BehaviorPattern) []string {
	var recs []string
	if p.MoodScore < 40 {
		recs = append(recs,
			"Mood has been low lately. Light exercise such as a short walk can help.",
			"Consider reaching out to a friend or family member.")
	}
	if p.SleepScore < 5 {
		recs = append(recs,
			"Sleep quality looks reduced. Try a consistent bedtime and less screen time at night.")
	}
	if p.ActivityScore <= 3 {
		recs = append(recs,
			"Activity has been low. A few minutes of movement every hour makes a difference.")
	}
	return recs
}

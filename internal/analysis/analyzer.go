// Package analysis derives behavior patterns from stay points, motion
// summaries, and time-of-day context, and maintains the pattern history.
package analysis

import (
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sensekit/behavior-engine-go/internal/config"
	"github.com/sensekit/behavior-engine-go/internal/models"
	"github.com/sensekit/behavior-engine-go/internal/motion"
)

// IntensitySource provides motion summaries over a sub-window. Satisfied
// by *motion.Aggregator.
type IntensitySource interface {
	StatsOver(from, to time.Time) motion.Stats
}

// Input carries everything one analysis pass looks at. Availability flags
// distinguish "provider denied" from "provider granted but silent", which
// map to different score defaults.
type Input struct {
	Fixes             []models.LocationFix
	StayPoints        []models.StayPoint
	Motion            IntensitySource
	LocationAvailable bool
	MotionAvailable   bool
}

// Analyzer computes behavior patterns and owns the pruned pattern history.
// Not safe for concurrent use; the engine serializes analysis onto one
// goroutine.
type Analyzer struct {
	cfg     config.EngineConfig
	history []models.BehaviorPattern
}

// NewAnalyzer creates an analyzer with the given engine constants.
func NewAnalyzer(cfg config.EngineConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze computes a behavior pattern for now, appends it to the history,
// and prunes entries older than the retention window.
func (a *Analyzer) Analyze(now time.Time, in Input) models.BehaviorPattern {
	locationScore := a.locationScore(in)
	activityScore := a.activityScore(now, in)
	socialScore := a.socialScore(now, in.StayPoints)
	sleepScore := a.sleepScore(now, in)

	mood := (locationScore*a.cfg.LocationWeight +
		activityScore*a.cfg.ActivityWeight +
		socialScore*a.cfg.SocialWeight +
		sleepScore*a.cfg.SleepWeight) * 10

	pattern := models.BehaviorPattern{
		ID:            uuid.NewString(),
		LocationScore: clamp(locationScore, 0, 10),
		ActivityScore: clamp(activityScore, 0, 10),
		SocialScore:   clamp(socialScore, 0, 10),
		SleepScore:    clamp(sleepScore, 0, 10),
		MoodScore:     clamp(mood, 0, 100),
		TimeOfDay:     TimeOfDayBucket(now),
		DayOfWeek:     now.Weekday().String(),
		LocationLabel: locationLabel(now, in.StayPoints),
		Timestamp:     now,
	}

	a.history = append(a.history, pattern)
	a.Prune(now)

	log.Printf("[PatternAnalyzer] Pattern computed: mood=%.0f location=%.1f activity=%.1f social=%.1f sleep=%.1f label=%s",
		pattern.MoodScore, pattern.LocationScore, pattern.ActivityScore,
		pattern.SocialScore, pattern.SleepScore, pattern.LocationLabel)

	return pattern
}

// locationScore rewards having distinct dwell locations whose mean dwell
// duration sits close to the ideal.
func (a *Analyzer) locationScore(in Input) float64 {
	if !in.LocationAvailable {
		return 5 // degraded: no location capability, stay neutral
	}
	if len(in.StayPoints) == 0 {
		return 0
	}

	var totalDuration time.Duration
	for _, sp := range in.StayPoints {
		totalDuration += sp.Duration()
	}
	meanDuration := totalDuration / time.Duration(len(in.StayPoints))

	ideal := a.cfg.IdealStayDuration
	fit := math.Max(0.5, 1-math.Abs(meanDuration.Seconds()-ideal.Seconds())/ideal.Seconds())

	return clamp(math.Min(10, 2*float64(len(in.StayPoints)))*fit, 0, 10)
}

// activityScore blends mean and peak movement intensity. A missing motion
// capability scores neutral 5; a granted but silent sensor scores 3.
func (a *Analyzer) activityScore(now time.Time, in Input) float64 {
	if !in.MotionAvailable || in.Motion == nil {
		return 5
	}
	st := in.Motion.StatsOver(now.Add(-a.cfg.AnalysisWindow), now)
	if st.Count == 0 {
		return 3
	}
	return clamp(math.Min(10, (st.Mean+0.3*st.Max)/2), 0, 10)
}

// socialScore is a stated heuristic proxy, not a literal social
// measurement: baseline 5, boosted by evening outings and weekend variety.
func (a *Analyzer) socialScore(now time.Time, stays []models.StayPoint) float64 {
	score := 5.0
	if TimeOfDayBucket(now) == models.TimeOfDayEvening && len(stays) >= 1 {
		score += 2
	}
	if isWeekend(now) && len(stays) >= 2 {
		score += 1
	}
	return clamp(score, 0, 10)
}

// sleepScore maps night-time movement intensity (22:00-06:00) to a sleep
// quality estimate. Less night movement implies a higher score.
func (a *Analyzer) sleepScore(now time.Time, in Input) float64 {
	if !in.MotionAvailable || in.Motion == nil {
		return 7
	}

	from, to := nightWindow(now)
	st := in.Motion.StatsOver(from, to)
	if st.Count == 0 {
		return 7 // no night data yet
	}
	return clamp(10-st.Mean/2, 3, 10)
}

// Prune drops history entries older than the retention window and trims
// the history to its size cap, oldest first.
func (a *Analyzer) Prune(now time.Time) {
	cutoff := now.Add(-a.cfg.PatternRetention)
	cut := 0
	for cut < len(a.history) && a.history[cut].Timestamp.Before(cutoff) {
		cut++
	}
	if cut > 0 {
		a.history = append(a.history[:0], a.history[cut:]...)
	}
	if a.cfg.PatternHistoryMax > 0 && len(a.history) > a.cfg.PatternHistoryMax {
		a.history = append(a.history[:0], a.history[len(a.history)-a.cfg.PatternHistoryMax:]...)
	}
}

// History returns a snapshot of the pattern history, oldest first.
func (a *Analyzer) History() []models.BehaviorPattern {
	out := make([]models.BehaviorPattern, len(a.history))
	copy(out, a.history)
	return out
}

// Recent returns up to n of the most recent patterns, oldest first.
func (a *Analyzer) Recent(n int) []models.BehaviorPattern {
	if n <= 0 || len(a.history) == 0 {
		return nil
	}
	if n > len(a.history) {
		n = len(a.history)
	}
	out := make([]models.BehaviorPattern, n)
	copy(out, a.history[len(a.history)-n:])
	return out
}

// Latest returns the most recent pattern, or false if none exists.
func (a *Analyzer) Latest() (models.BehaviorPattern, bool) {
	if len(a.history) == 0 {
		return models.BehaviorPattern{}, false
	}
	return a.history[len(a.history)-1], true
}

// Restore replaces the history from persisted state and re-prunes it.
func (a *Analyzer) Restore(patterns []models.BehaviorPattern, now time.Time) {
	a.history = append(a.history[:0], patterns...)
	a.Prune(now)
}

// Reset drops the pattern history.
func (a *Analyzer) Reset() {
	a.history = nil
}

// TimeOfDayBucket maps an instant to its time-of-day bucket.
func TimeOfDayBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return models.TimeOfDayMorning
	case h >= 12 && h < 17:
		return models.TimeOfDayAfternoon
	case h >= 17 && h < 22:
		return models.TimeOfDayEvening
	default:
		return models.TimeOfDayNight
	}
}

// locationLabel derives a coarse place label from the stay-point set and
// the clock.
func locationLabel(now time.Time, stays []models.StayPoint) string {
	if len(stays) == 0 {
		return models.LocationLabelMobile
	}
	if TimeOfDayBucket(now) == models.TimeOfDayNight {
		return models.LocationLabelHome
	}

	maxVisits := 0
	for _, sp := range stays {
		if sp.VisitCount > maxVisits {
			maxVisits = sp.VisitCount
		}
	}
	h := now.Hour()
	if !isWeekend(now) && h >= 9 && h < 17 && maxVisits >= 3 {
		return models.LocationLabelWork
	}
	if isWeekend(now) {
		return models.LocationLabelLeisure
	}
	return models.LocationLabelOther
}

// nightWindow returns the 22:00-06:00 window relevant to now: the ongoing
// night when now is inside it, otherwise the most recent completed night.
func nightWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch h := now.Hour(); {
	case h >= 22:
		return todayStart.Add(22 * time.Hour), now
	case h < 6:
		return todayStart.Add(-2 * time.Hour), now // 22:00 yesterday
	default:
		return todayStart.Add(-2 * time.Hour), todayStart.Add(6 * time.Hour)
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

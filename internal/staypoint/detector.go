// Package staypoint clusters a stream of location fixes into dwell
// locations using distance and time-span thresholds.
package staypoint

import (
	"sort"
	"time"

	"github.com/sensekit/behavior-engine-go/internal/models"
	"github.com/sensekit/behavior-engine-go/internal/spatial"
)

// Config holds the clustering thresholds.
type Config struct {
	DistanceThresholdM float64       // max distance between two fixes of one cluster
	TimeThreshold      time.Duration // min time span between two fixes of one cluster
	MergeRadiusM       float64       // candidate centers within this radius of an existing stay point merge
	BufferSize         int           // trailing fixes scanned per ingestion
	MaxStayPoints      int           // capacity cap; lowest-visit entries evicted beyond it
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		DistanceThresholdM: 100,
		TimeThreshold:      10 * time.Minute,
		MergeRadiusM:       50,
		BufferSize:         20,
		MaxStayPoints:      100,
	}
}

// Update describes what a single ingestion did to the stay-point set.
type Update struct {
	StayPoint models.StayPoint
	Created   bool // false when an existing stay point was merged into
}

// Detector incrementally clusters location fixes. It is not safe for
// concurrent use; the engine serializes all ingestion onto one goroutine.
type Detector struct {
	cfg    Config
	recent []models.LocationFix
	stays  []*models.StayPoint
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.MaxStayPoints <= 0 {
		cfg.MaxStayPoints = DefaultConfig().MaxStayPoints
	}
	return &Detector{cfg: cfg}
}

// Ingest records a fix and returns the resulting stay-point update, if the
// fix completed a cluster. The trailing buffer is scanned oldest-first for
// a fix within DistanceThresholdM of the new one; if the pair spans at
// least TimeThreshold, a candidate stay point forms at their midpoint and
// is merged into an existing stay point within MergeRadiusM of its center,
// or inserted as a new one.
func (d *Detector) Ingest(fix models.LocationFix) (Update, bool) {
	defer func() {
		d.recent = append(d.recent, fix)
		if len(d.recent) > d.cfg.BufferSize {
			d.recent = d.recent[len(d.recent)-d.cfg.BufferSize:]
		}
	}()

	// Oldest matching fix gives the longest span for this candidate.
	for _, earlier := range d.recent {
		span := fix.Timestamp.Sub(earlier.Timestamp)
		if span < d.cfg.TimeThreshold {
			continue
		}
		dist := spatial.HaversineDistance(earlier.Latitude, earlier.Longitude, fix.Latitude, fix.Longitude)
		if dist > d.cfg.DistanceThresholdM {
			continue
		}

		lat, lon := spatial.Midpoint(earlier.Latitude, earlier.Longitude, fix.Latitude, fix.Longitude)
		return d.mergeOrInsert(lat, lon, earlier.Timestamp, fix.Timestamp), true
	}

	return Update{}, false
}

// mergeOrInsert folds a candidate cluster into the stay-point set.
func (d *Detector) mergeOrInsert(lat, lon float64, arrival, departure time.Time) Update {
	for _, sp := range d.stays {
		dist := spatial.HaversineDistance(sp.Latitude, sp.Longitude, lat, lon)
		if dist > d.cfg.MergeRadiusM {
			continue
		}

		sp.VisitCount++
		if departure.After(sp.DepartedAt) {
			sp.DurationS += int64(departure.Sub(sp.DepartedAt).Seconds())
			sp.DepartedAt = departure
		}
		if arrival.Before(sp.ArrivalAt) {
			sp.ArrivalAt = arrival
		}
		return Update{StayPoint: *sp}
	}

	sp := &models.StayPoint{
		Latitude:   lat,
		Longitude:  lon,
		ArrivalAt:  arrival,
		DepartedAt: departure,
		DurationS:  int64(departure.Sub(arrival).Seconds()),
		VisitCount: 1,
	}
	d.stays = append(d.stays, sp)
	d.evictOverCap()

	return Update{StayPoint: *sp, Created: true}
}

// evictOverCap drops the lowest-visit stay points once the cap is
// exceeded. Bounded memory is deliberately preferred over historical
// completeness here.
func (d *Detector) evictOverCap() {
	if len(d.stays) <= d.cfg.MaxStayPoints {
		return
	}
	sort.SliceStable(d.stays, func(i, j int) bool {
		if d.stays[i].VisitCount != d.stays[j].VisitCount {
			return d.stays[i].VisitCount > d.stays[j].VisitCount
		}
		return d.stays[i].DepartedAt.After(d.stays[j].DepartedAt)
	})
	d.stays = d.stays[:d.cfg.MaxStayPoints]
}

// StayPoints returns a snapshot of the current stay-point set.
func (d *Detector) StayPoints() []models.StayPoint {
	out := make([]models.StayPoint, len(d.stays))
	for i, sp := range d.stays {
		out[i] = *sp
	}
	return out
}

// StaysSince returns stay points still active on or after the cutoff.
func (d *Detector) StaysSince(cutoff time.Time) []models.StayPoint {
	var out []models.StayPoint
	for _, sp := range d.stays {
		if !sp.DepartedAt.Before(cutoff) {
			out = append(out, *sp)
		}
	}
	return out
}

// Restore replaces the stay-point set from persisted state.
func (d *Detector) Restore(stays []models.StayPoint) {
	d.stays = d.stays[:0]
	for i := range stays {
		sp := stays[i]
		d.stays = append(d.stays, &sp)
	}
	d.evictOverCap()
}

// Reset drops all stay points and the trailing fix buffer.
func (d *Detector) Reset() {
	d.recent = nil
	d.stays = nil
}

// Count returns the number of stay points held.
func (d *Detector) Count() int {
	return len(d.stays)
}

// Package motion maintains a bounded trailing window of inertial samples
// and derives movement-intensity summaries from it.
package motion

import (
	"time"

	"github.com/sensekit/behavior-engine-go/internal/models"
	"github.com/sensekit/behavior-engine-go/internal/stats"
)

// Stats summarizes acceleration magnitude over a sub-window.
type Stats struct {
	Mean  float64
	Max   float64
	Count int
}

// Aggregator holds the trailing window of motion samples. Samples older
// than the window are evicted on every insertion, so memory stays bounded
// by the sample rate times the window. Not safe for concurrent use; the
// engine serializes all ingestion onto one goroutine.
type Aggregator struct {
	window  time.Duration
	samples []models.MotionSample
}

// NewAggregator creates an aggregator retaining samples for the given
// trailing window.
func NewAggregator(window time.Duration) *Aggregator {
	if window <= 0 {
		window = time.Hour
	}
	return &Aggregator{window: window}
}

// Ingest appends a sample and evicts everything older than the retention
// window. Eviction advances a cut index and re-slices, amortized O(1).
func (a *Aggregator) Ingest(sample models.MotionSample) {
	a.samples = append(a.samples, sample)

	cutoff := sample.Timestamp.Add(-a.window)
	cut := 0
	for cut < len(a.samples) && a.samples[cut].Timestamp.Before(cutoff) {
		cut++
	}
	if cut > 0 {
		a.samples = append(a.samples[:0], a.samples[cut:]...)
	}
}

// StatsOver returns mean and max acceleration magnitude over [from, to].
func (a *Aggregator) StatsOver(from, to time.Time) Stats {
	var mags []float64
	for _, s := range a.samples {
		if s.Timestamp.Before(from) || s.Timestamp.After(to) {
			continue
		}
		mags = append(mags, s.Magnitude())
	}
	return Stats{
		Mean:  stats.Mean(mags),
		Max:   stats.Max(mags),
		Count: len(mags),
	}
}

// IntensityOver returns the mean magnitude over the trailing sub-window
// ending at now.
func (a *Aggregator) IntensityOver(now time.Time, window time.Duration) float64 {
	return a.StatsOver(now.Add(-window), now).Mean
}

// Len returns the number of samples currently retained.
func (a *Aggregator) Len() int {
	return len(a.samples)
}

// Reset drops all retained samples.
func (a *Aggregator) Reset() {
	a.samples = nil
}

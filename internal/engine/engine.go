// Package engine owns the behavior-engine lifecycle: it acquires the
// location and motion capabilities, funnels their event streams and a
// periodic analysis timer into one single-writer goroutine, and bounds
// every buffer it feeds.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sensekit/behavior-engine-go/internal/analysis"
	"github.com/sensekit/behavior-engine-go/internal/config"
	"github.com/sensekit/behavior-engine-go/internal/models"
	"github.com/sensekit/behavior-engine-go/internal/motion"
	"github.com/sensekit/behavior-engine-go/internal/provider"
	"github.com/sensekit/behavior-engine-go/internal/staypoint"
	"github.com/sensekit/behavior-engine-go/internal/store"
)

type state int

const (
	stateDisabled state = iota
	stateRequesting
	stateActive
)

// Engine is the behavior-pattern inference engine. One instance per
// process, constructed with injected providers and storage; the caller
// owns its lifecycle. All mutation of the internal buffers happens on the
// run goroutine; facade methods only read under the lock.
type Engine struct {
	cfg config.EngineConfig
	loc provider.LocationProvider
	mot provider.MotionProvider
	st  *store.Store

	// lifeMu serializes whole Enable/Disable transitions so a grant
	// acquired by one call can never be revoked by the tail of another.
	lifeMu sync.Mutex
	// saveMu orders blob writes against privacy resets: a reset always
	// lands after any persist whose snapshot predates it.
	saveMu sync.Mutex

	mu         sync.Mutex
	state      state
	locGranted bool
	motGranted bool

	detector  *staypoint.Detector
	motionAgg *motion.Aggregator
	analyzer  *analysis.Analyzer
	fixes     []models.LocationFix
	dirty     bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an engine against the given providers and store. The
// engine starts disabled; call Enable to begin accumulating data.
func New(cfg config.EngineConfig, loc provider.LocationProvider, mot provider.MotionProvider, st *store.Store) *Engine {
	return &Engine{
		cfg: cfg,
		loc: loc,
		mot: mot,
		st:  st,
		detector: staypoint.NewDetector(staypoint.Config{
			DistanceThresholdM: cfg.StayDistanceThresholdM,
			TimeThreshold:      cfg.StayTimeThreshold,
			MergeRadiusM:       cfg.StayMergeRadiusM,
			BufferSize:         cfg.FixBufferSize,
			MaxStayPoints:      cfg.MaxStayPoints,
		}),
		motionAgg: motion.NewAggregator(cfg.MotionWindow),
		analyzer:  analysis.NewAnalyzer(cfg),
	}
}

// Enable requests the location and motion capability grants and, if at
// least one is granted, restores persisted state and starts the engine.
// Returns false when every capability is denied or unavailable; the
// engine then stays disabled. Denial is an answer, not an error.
func (e *Engine) Enable() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateActive {
		return true
	}
	e.state = stateRequesting

	var locCh <-chan models.LocationFix
	var motCh <-chan models.MotionSample

	if e.loc != nil && e.loc.Available() {
		ch, err := e.loc.Request()
		if err != nil {
			log.Printf("[Engine] Location capability denied: %v", err)
		} else {
			locCh = ch
			e.locGranted = true
		}
	}
	if e.mot != nil && e.mot.Available() {
		ch, err := e.mot.Request()
		if err != nil {
			log.Printf("[Engine] Motion capability denied: %v", err)
		} else {
			motCh = ch
			e.motGranted = true
		}
	}

	if !e.locGranted && !e.motGranted {
		e.state = stateDisabled
		return false
	}

	e.restorePersisted()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(ctx, locCh, motCh)

	e.state = stateActive
	log.Printf("[Engine] Active (location=%v motion=%v)", e.locGranted, e.motGranted)
	return true
}

// Disable stops the event sources, waits for in-flight work to finish,
// persists the final state, and releases the capability grants.
// Idempotent: a second call is a no-op.
func (e *Engine) Disable() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.mu.Lock()
	if e.state != stateActive {
		e.state = stateDisabled
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.state = stateDisabled
	e.mu.Unlock()

	cancel()
	<-done

	if e.loc != nil {
		e.loc.Release()
	}
	if e.mot != nil {
		e.mot.Release()
	}

	e.saveMu.Lock()
	e.mu.Lock()
	e.locGranted = false
	e.motGranted = false
	dirty := e.dirty
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if dirty {
		if err := e.st.Save(snapshot); err != nil {
			log.Printf("[Engine] Final save failed: %v", err)
		}
	}
	e.saveMu.Unlock()
	log.Printf("[Engine] Disabled")
}

// IsEnabled reports whether the engine is active.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateActive
}

// CurrentContext derives the consumer-facing behavior context. Returns
// nil while the engine is disabled or before the first pattern exists.
func (e *Engine) CurrentContext() *models.BehaviorContext {
	e.mu.Lock()
	if e.state != stateActive {
		e.mu.Unlock()
		return nil
	}
	patterns := e.analyzer.History()
	e.mu.Unlock()

	return analysis.BuildContext(patterns, time.Now())
}

// ClearAllData wipes in-memory buffers and the persisted blob
// unconditionally. Valid in any state; this is the user-facing privacy
// reset.
func (e *Engine) ClearAllData() error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	e.detector.Reset()
	e.motionAgg.Reset()
	e.analyzer.Reset()
	e.fixes = nil
	e.dirty = false
	e.mu.Unlock()

	if err := e.st.Reset(); err != nil {
		return fmt.Errorf("reset persisted state: %w", err)
	}
	log.Printf("[Engine] All behavioral data cleared")
	return nil
}

// PrivacySummary reports what the engine currently holds.
func (e *Engine) PrivacySummary() models.PrivacySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.PrivacySummary{
		Enabled:        e.state == stateActive,
		FixCount:       len(e.fixes),
		StayPointCount: e.detector.Count(),
		PatternCount:   len(e.analyzer.History()),
		RetentionPolicy: fmt.Sprintf(
			"Location fixes: most recent %d. Motion samples: trailing %s, in memory only. Behavior patterns: %s. All persisted data is encrypted on device.",
			e.cfg.FixHistorySize, e.cfg.MotionWindow, e.cfg.PatternRetention),
	}
}

// run is the single-writer actor: every buffer mutation happens here.
// Ingestion is O(window) and never blocks the sources for long; analysis
// and persistence run on the timer with the save IO outside the lock.
func (e *Engine) run(ctx context.Context, locCh <-chan models.LocationFix, motCh <-chan models.MotionSample) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.AnalysisInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-locCh:
			if !ok {
				locCh = nil
				continue
			}
			e.handleFix(fix)
		case sample, ok := <-motCh:
			if !ok {
				motCh = nil
				continue
			}
			e.handleSample(sample)
		case now := <-ticker.C:
			e.runAnalysis(now)
		}
	}
}

func (e *Engine) handleFix(fix models.LocationFix) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if update, ok := e.detector.Ingest(fix); ok {
		verb := "updated"
		if update.Created {
			verb = "created"
		}
		log.Printf("[Engine] Stay point %s at (%.5f, %.5f), visits=%d",
			verb, update.StayPoint.Latitude, update.StayPoint.Longitude, update.StayPoint.VisitCount)
	}

	e.fixes = append(e.fixes, fix)
	if len(e.fixes) > e.cfg.FixHistorySize {
		e.fixes = e.fixes[len(e.fixes)-e.cfg.FixHistorySize:]
	}
	e.dirty = true
}

func (e *Engine) handleSample(sample models.MotionSample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.motionAgg.Ingest(sample)
}

// runAnalysis computes a pattern from the current buffers and persists a
// snapshot. A failed save stays dirty and is retried on the next cycle
// rather than immediately, to avoid bursty writes. saveMu spans the
// snapshot and the write so a privacy reset cannot slip between them.
func (e *Engine) runAnalysis(now time.Time) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	cutoff := now.Add(-e.cfg.AnalysisWindow)
	in := analysis.Input{
		Fixes:             e.fixes,
		StayPoints:        e.detector.StaysSince(cutoff),
		Motion:            e.motionAgg,
		LocationAvailable: e.locGranted,
		MotionAvailable:   e.motGranted,
	}
	e.analyzer.Analyze(now, in)
	e.dirty = true
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.st.Save(snapshot); err != nil {
		log.Printf("[Engine] Save failed, will retry next cycle: %v", err)
		return
	}

	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()
}

// snapshotLocked copies the persistable state. Callers hold e.mu.
func (e *Engine) snapshotLocked() store.State {
	fixes := make([]models.LocationFix, len(e.fixes))
	copy(fixes, e.fixes)
	return store.State{
		Fixes:      fixes,
		StayPoints: e.detector.StayPoints(),
		Patterns:   e.analyzer.History(),
	}
}

// restorePersisted reloads the previous session's state into the
// components. Callers hold e.mu.
func (e *Engine) restorePersisted() {
	state, err := e.st.Load()
	if err != nil {
		log.Printf("[Engine] Could not load persisted state: %v", err)
		return
	}

	now := time.Now()
	e.detector.Restore(state.StayPoints)
	e.analyzer.Restore(state.Patterns, now)
	e.fixes = state.Fixes
	if len(e.fixes) > e.cfg.FixHistorySize {
		e.fixes = e.fixes[len(e.fixes)-e.cfg.FixHistorySize:]
	}

	if len(state.StayPoints) > 0 || len(state.Patterns) > 0 {
		log.Printf("[Engine] Restored %d fixes, %d stay points, %d patterns",
			len(e.fixes), len(state.StayPoints), len(state.Patterns))
	}
}

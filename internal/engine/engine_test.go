package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensekit/behavior-engine-go/internal/config"
	"github.com/sensekit/behavior-engine-go/internal/models"
	"github.com/sensekit/behavior-engine-go/internal/provider"
	"github.com/sensekit/behavior-engine-go/internal/store"
)

// Recent enough that restored patterns survive retention pruning.
var t0 = time.Now().Add(-time.Hour).Truncate(time.Second)

type mockLocation struct {
	mu        sync.Mutex
	ch        chan models.LocationFix
	deny      bool
	requested int
	released  int
}

func (m *mockLocation) Available() bool { return true }

func (m *mockLocation) Request() (<-chan models.LocationFix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny {
		return nil, provider.ErrPermissionDenied
	}
	m.requested++
	m.ch = make(chan models.LocationFix, 16)
	return m.ch, nil
}

func (m *mockLocation) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
}

func (m *mockLocation) counts() (requested, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requested, m.released
}

type mockMotion struct {
	mu        sync.Mutex
	ch        chan models.MotionSample
	deny      bool
	requested int
	released  int
}

func (m *mockMotion) Available() bool { return true }

func (m *mockMotion) Request() (<-chan models.MotionSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny {
		return nil, provider.ErrPermissionDenied
	}
	m.requested++
	m.ch = make(chan models.MotionSample, 16)
	return m.ch, nil
}

func (m *mockMotion) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
}

func (m *mockMotion) counts() (requested, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requested, m.released
}

func newTestEngine(t *testing.T, loc provider.LocationProvider, mot provider.MotionProvider) *Engine {
	t.Helper()
	slots, err := store.OpenMemorySlots()
	require.NoError(t, err)
	t.Cleanup(func() { slots.Close() })

	st, err := store.New(slots)
	require.NoError(t, err)

	return New(config.DefaultEngineConfig(), loc, mot, st)
}

func fixAt(northM float64, ts time.Time) models.LocationFix {
	return models.LocationFix{
		Latitude:  39.9042 + northM/111195.0,
		Longitude: 116.4074,
		Timestamp: ts,
	}
}

func TestEnableDeniedEverywhere(t *testing.T) {
	e := newTestEngine(t, provider.DeniedLocation{}, provider.DeniedMotion{})

	assert.False(t, e.Enable())
	assert.False(t, e.IsEnabled())
	assert.Nil(t, e.CurrentContext())
}

func TestEnableAndDisable(t *testing.T) {
	loc := &mockLocation{}
	mot := &mockMotion{}
	e := newTestEngine(t, loc, mot)

	require.True(t, e.Enable())
	assert.True(t, e.IsEnabled())

	// Enable while active is a no-op success
	assert.True(t, e.Enable())

	e.Disable()
	assert.False(t, e.IsEnabled())
	_, locReleased := loc.counts()
	_, motReleased := mot.counts()
	assert.Equal(t, 1, locReleased)
	assert.Equal(t, 1, motReleased)

	// Idempotent: second disable leaves no dangling registrations
	e.Disable()
	_, locReleased = loc.counts()
	_, motReleased = mot.counts()
	assert.Equal(t, 1, locReleased)
	assert.Equal(t, 1, motReleased)
}

func TestDegradedWithMotionOnly(t *testing.T) {
	e := newTestEngine(t, &mockLocation{deny: true}, &mockMotion{})

	// One granted capability is enough to run degraded
	assert.True(t, e.Enable())
	assert.True(t, e.IsEnabled())
	e.Disable()
}

func TestIngestViaChannels(t *testing.T) {
	loc := &mockLocation{}
	mot := &mockMotion{}
	e := newTestEngine(t, loc, mot)
	require.True(t, e.Enable())
	defer e.Disable()

	loc.ch <- fixAt(0, t0)
	loc.ch <- fixAt(20, t0.Add(11*time.Minute))
	mot.ch <- models.MotionSample{Accel: models.Vec3{Z: 9.81}, Timestamp: t0}

	require.Eventually(t, func() bool {
		s := e.PrivacySummary()
		return s.FixCount == 2 && s.StayPointCount == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAnalysisProducesContext(t *testing.T) {
	loc := &mockLocation{}
	mot := &mockMotion{}
	e := newTestEngine(t, loc, mot)
	require.True(t, e.Enable())
	defer e.Disable()

	assert.Nil(t, e.CurrentContext())

	e.handleFix(fixAt(0, t0))
	e.handleFix(fixAt(20, t0.Add(11*time.Minute)))
	e.handleSample(models.MotionSample{Accel: models.Vec3{X: 1}, Timestamp: t0.Add(11 * time.Minute)})
	e.runAnalysis(t0.Add(15 * time.Minute))

	ctx := e.CurrentContext()
	require.NotNil(t, ctx)
	assert.Len(t, ctx.RecentPatterns, 1)
	assert.GreaterOrEqual(t, ctx.MoodScore, 0.0)
	assert.LessOrEqual(t, ctx.MoodScore, 100.0)
	assert.NotEmpty(t, ctx.ActivityLevel)
}

func TestContextNilWhenDisabled(t *testing.T) {
	loc := &mockLocation{}
	e := newTestEngine(t, loc, &mockMotion{})
	require.True(t, e.Enable())

	e.handleFix(fixAt(0, t0))
	e.handleFix(fixAt(20, t0.Add(11*time.Minute)))
	e.runAnalysis(t0.Add(15 * time.Minute))
	require.NotNil(t, e.CurrentContext())

	e.Disable()
	assert.Nil(t, e.CurrentContext())
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	slots, err := store.OpenMemorySlots()
	require.NoError(t, err)
	defer slots.Close()

	st, err := store.New(slots)
	require.NoError(t, err)

	e1 := New(config.DefaultEngineConfig(), &mockLocation{}, &mockMotion{}, st)
	require.True(t, e1.Enable())
	e1.handleFix(fixAt(0, t0))
	e1.handleFix(fixAt(20, t0.Add(11*time.Minute)))
	e1.runAnalysis(t0.Add(15 * time.Minute))
	e1.Disable()

	e2 := New(config.DefaultEngineConfig(), &mockLocation{}, &mockMotion{}, st)
	require.True(t, e2.Enable())
	defer e2.Disable()

	s := e2.PrivacySummary()
	assert.Equal(t, 2, s.FixCount)
	assert.Equal(t, 1, s.StayPointCount)
	assert.Equal(t, 1, s.PatternCount)
}

func TestClearAllData(t *testing.T) {
	loc := &mockLocation{}
	e := newTestEngine(t, loc, &mockMotion{})
	require.True(t, e.Enable())
	defer e.Disable()

	e.handleFix(fixAt(0, t0))
	e.handleFix(fixAt(20, t0.Add(11*time.Minute)))
	e.runAnalysis(t0.Add(15 * time.Minute))

	require.NoError(t, e.ClearAllData())

	s := e.PrivacySummary()
	assert.Zero(t, s.FixCount)
	assert.Zero(t, s.StayPointCount)
	assert.Zero(t, s.PatternCount)
	assert.Nil(t, e.CurrentContext())
}

// A privacy reset must order after any persist already in flight:
// otherwise the save could land its pre-reset snapshot back into the
// store after the wipe.
func TestClearAllDataWaitsForInFlightSave(t *testing.T) {
	slots, err := store.OpenMemorySlots()
	require.NoError(t, err)
	defer slots.Close()
	st, err := store.New(slots)
	require.NoError(t, err)

	e := New(config.DefaultEngineConfig(), &mockLocation{}, &mockMotion{}, st)
	require.True(t, e.Enable())
	defer e.Disable()

	e.handleFix(fixAt(0, t0))
	e.handleFix(fixAt(20, t0.Add(11*time.Minute)))
	e.runAnalysis(t0.Add(15 * time.Minute))

	// Hold the persist lock as an analysis cycle mid-save would.
	e.saveMu.Lock()
	done := make(chan error, 1)
	go func() { done <- e.ClearAllData() }()

	select {
	case <-done:
		t.Fatal("reset completed while a persist was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	e.saveMu.Unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reset never completed")
	}

	state, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Fixes)
	assert.Empty(t, state.StayPoints)
	assert.Empty(t, state.Patterns)
	assert.Zero(t, e.PrivacySummary().FixCount)
}

// Concurrent enable/disable churn must leave no grant unreleased and no
// released stream behind an active engine.
func TestLifecycleTransitionsSerialize(t *testing.T) {
	loc := &mockLocation{}
	mot := &mockMotion{}
	e := newTestEngine(t, loc, mot)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				e.Enable()
				e.Disable()
			}
		}()
	}
	wg.Wait()
	e.Disable()

	assert.False(t, e.IsEnabled())
	locRequested, locReleased := loc.counts()
	motRequested, motReleased := mot.counts()
	assert.Equal(t, locRequested, locReleased)
	assert.Equal(t, motRequested, motReleased)
}

func TestPrivacySummary(t *testing.T) {
	e := newTestEngine(t, &mockLocation{}, &mockMotion{})

	s := e.PrivacySummary()
	assert.False(t, s.Enabled)
	assert.Contains(t, s.RetentionPolicy, "encrypted")

	require.True(t, e.Enable())
	defer e.Disable()
	assert.True(t, e.PrivacySummary().Enabled)
}

func TestFixHistoryBounded(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.FixHistorySize = 5

	slots, err := store.OpenMemorySlots()
	require.NoError(t, err)
	defer slots.Close()
	st, err := store.New(slots)
	require.NoError(t, err)

	e := New(cfg, &mockLocation{}, &mockMotion{}, st)
	require.True(t, e.Enable())
	defer e.Disable()

	for i := 0; i < 20; i++ {
		e.handleFix(fixAt(float64(i)*1000, t0.Add(time.Duration(i)*time.Minute)))
	}

	assert.Equal(t, 5, e.PrivacySummary().FixCount)
}

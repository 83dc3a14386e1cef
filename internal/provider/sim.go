package provider

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sensekit/behavior-engine-go/internal/models"
)

// SimLocation replays a slow random walk around a base coordinate,
// emitting one fix per interval. Used when the process runs without real
// positioning hardware.
type SimLocation struct {
	BaseLat  float64
	BaseLon  float64
	Interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// Available always reports true for the simulation.
func (s *SimLocation) Available() bool { return true }

// Request starts the replay goroutine and returns its fix stream.
func (s *SimLocation) Request() (<-chan models.LocationFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
	}
	s.stop = make(chan struct{})
	stop := s.stop

	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ch := make(chan models.LocationFix)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lat, lon := s.BaseLat, s.BaseLon
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				// Drift a few meters per tick, enough to dwell but not
				// to leave the cluster radius quickly.
				lat += (rand.Float64() - 0.5) * 0.0002
				lon += (rand.Float64() - 0.5) * 0.0002
				fix := models.LocationFix{
					Latitude:  lat,
					Longitude: lon,
					AccuracyM: 10,
					Timestamp: t,
				}
				select {
				case ch <- fix:
				case <-stop:
					return
				}
			}
		}
	}()

	return ch, nil
}

// Release stops the replay and closes the stream.
func (s *SimLocation) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// SimMotion emits synthetic accelerometer samples: gravity plus a small
// sinusoidal wobble with noise.
type SimMotion struct {
	Interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// Available always reports true for the simulation.
func (s *SimMotion) Available() bool { return true }

// Request starts the synthesis goroutine and returns its sample stream.
func (s *SimMotion) Request() (<-chan models.MotionSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
	}
	s.stop = make(chan struct{})
	stop := s.stop

	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ch := make(chan models.MotionSample)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		phase := 0.0
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				phase += 0.3
				sample := models.MotionSample{
					Accel: models.Vec3{
						X: 0.2*math.Sin(phase) + (rand.Float64()-0.5)*0.1,
						Y: 0.2*math.Cos(phase) + (rand.Float64()-0.5)*0.1,
						Z: 9.81 + (rand.Float64()-0.5)*0.1,
					},
					Timestamp: t,
				}
				select {
				case ch <- sample:
				case <-stop:
					return
				}
			}
		}
	}()

	return ch, nil
}

// Release stops the synthesis and closes the stream.
func (s *SimMotion) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

package models

import (
	"math"
	"time"
)

// Vec3 is a triaxial sensor reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MotionSample is a single inertial reading from the motion provider.
// Samples are transient: they live in a trailing window and are dropped
// once they age out.
type MotionSample struct {
	Accel     Vec3      `json:"accel"`              // m/s^2 per axis
	Rotation  *Vec3     `json:"rotation,omitempty"` // rad/s per axis, nil if the device has no gyroscope
	Timestamp time.Time `json:"timestamp"`
}

// Magnitude returns the Euclidean magnitude of the acceleration vector,
// the movement-intensity measure used by the aggregator.
func (m MotionSample) Magnitude() float64 {
	return math.Sqrt(m.Accel.X*m.Accel.X + m.Accel.Y*m.Accel.Y + m.Accel.Z*m.Accel.Z)
}

// Package provider abstracts the host platform's location and motion
// capabilities behind explicit available/request contracts, so the engine
// can be constructed against real hardware, a denial, or a simulation.
package provider

import (
	"errors"

	"github.com/sensekit/behavior-engine-go/internal/models"
)

// ErrPermissionDenied is returned by Request when the host refuses the
// capability grant. A host that lacks the capability entirely reports
// Available() == false, which the engine treats as a permanent denial.
var ErrPermissionDenied = errors.New("capability permission denied")

// LocationProvider yields location fixes once the capability is granted.
type LocationProvider interface {
	// Available reports whether the host exposes a location capability
	// at all.
	Available() bool

	// Request asks for the capability grant and, on success, returns the
	// fix stream. The channel closes when the provider is released.
	Request() (<-chan models.LocationFix, error)

	// Release revokes the subscription and closes the stream. Safe to
	// call without a prior successful Request.
	Release()
}

// MotionProvider yields inertial samples once the capability is granted.
type MotionProvider interface {
	Available() bool
	Request() (<-chan models.MotionSample, error)
	Release()
}

// DeniedLocation is a LocationProvider that always refuses the grant.
type DeniedLocation struct{}

func (DeniedLocation) Available() bool { return false }

func (DeniedLocation) Request() (<-chan models.LocationFix, error) {
	return nil, ErrPermissionDenied
}

func (DeniedLocation) Release() {}

// DeniedMotion is a MotionProvider that always refuses the grant.
type DeniedMotion struct{}

func (DeniedMotion) Available() bool { return false }

func (DeniedMotion) Request() (<-chan models.MotionSample, error) {
	return nil, ErrPermissionDenied
}

func (DeniedMotion) Release() {}

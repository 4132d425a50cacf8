// Package transform defines the seam against the coordinate-frame lookup
// (tf-style timestamped rigid transform) collaborator that spec.md §1
// explicitly places out of scope. Only the shape the tracker needs is
// defined here; no transform tree is implemented.
package transform

import (
	"context"
	"time"

	"github.com/merlinwwu/neonavigation/spatial"
)

// Frame names a coordinate frame, e.g. "base_link" or "odom".
type Frame string

// Stamped bundles a pose with the time it was valid at.
type Stamped struct {
	Pose  spatial.Pose2D
	Stamp time.Time
}

// Lookup resolves the pose of `target` expressed in `source` at `at`.
// Implementations are expected to error when no transform is available,
// per spec.md §5's "missing transforms yield a NO_PATH tick".
type Lookup interface {
	LookupTransform(ctx context.Context, source, target Frame, at time.Time) (Stamped, error)
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ctx context.Context, source, target Frame, at time.Time) (Stamped, error)

// LookupTransform implements Lookup.
func (f LookupFunc) LookupTransform(ctx context.Context, source, target Frame, at time.Time) (Stamped, error) {
	return f(ctx, source, target, at)
}

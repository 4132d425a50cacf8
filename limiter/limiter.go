// Package limiter implements the scalar velocity/acceleration limiter
// and the time-optimal bang-bang scalar control law the tracker uses for
// both its linear and angular commands.
package limiter

import (
	"math"
	"sync"

	"github.com/merlinwwu/neonavigation/spatial"
)

// VelAccLimitter holds a single commanded scalar value and clamps every
// update to a hard saturation limit and a symmetric per-tick acceleration
// bound, per spec.md §3.
type VelAccLimitter struct {
	mu sync.Mutex
	v  float64
}

// Get reads the current value.
func (l *VelAccLimitter) Get() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v
}

// Clear resets the limiter to 0.
func (l *VelAccLimitter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.v = 0
}

// Set clamps target to [-hardLimit, hardLimit], then clamps the step from
// the current value to [-accel*dt, accel*dt], and stores the result.
func (l *VelAccLimitter) Set(target, hardLimit, accel, dt float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	clamped := spatial.Clip(target, hardLimit)
	step := spatial.Clip(clamped-l.v, accel*dt)
	l.v += step
	return l.v
}

// Increment is Set(current+delta, ...).
func (l *VelAccLimitter) Increment(delta, hardLimit, accel, dt float64) float64 {
	l.mu.Lock()
	cur := l.v
	l.mu.Unlock()
	return l.Set(cur+delta, hardLimit, accel, dt)
}

// TimeOptimalControl returns the signed velocity that would bring a
// double-integrator with acceleration bound accel to rest exactly at the
// target in minimum time: -sign(remaining) * sqrt(2*accel*|remaining|).
func TimeOptimalControl(remaining, accel float64) float64 {
	if accel <= 0 {
		return 0
	}
	return -spatial.Sign(remaining) * math.Sqrt(2*accel*math.Abs(remaining))
}

// Package pathing implements the reference-path container the tracker
// consumes: an ordered sequence of waypoints plus the geometric queries
// (nearest projection, local goal, curvature) the control law in
// spec.md §4.5 needs every tick.
package pathing

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/merlinwwu/neonavigation/spatial"
)

// Path2D is an ordered sequence of waypoints. Two consecutive waypoints
// whose positions differ by less than epsilon collapse to an in-place
// turn marker: the position of the first, the yaw of the second.
type Path2D struct {
	Waypoints []spatial.Pose2D
}

// New builds a Path2D from raw waypoints, collapsing near-duplicate
// consecutive positions per spec.md §3's invariant. A waypoint with a
// negative explicit velocity is rejected; the whole path is dropped
// (callers are expected to log and keep the previous path on error).
func New(waypoints []spatial.Pose2D, epsilon float64) (Path2D, error) {
	out := make([]spatial.Pose2D, 0, len(waypoints))
	for _, wp := range waypoints {
		if wp.Velocity != nil && *wp.Velocity < 0 {
			return Path2D{}, errors.New("path waypoint has negative explicit velocity")
		}
		if len(out) > 0 && out[len(out)-1].Pos.Distance(wp.Pos) < epsilon {
			// In-place turn: keep the earlier position, take the later yaw.
			out[len(out)-1].Yaw = wp.Yaw
			out[len(out)-1].Velocity = wp.Velocity
			continue
		}
		out = append(out, wp)
	}
	return Path2D{Waypoints: out}, nil
}

// Len returns the number of waypoints.
func (p Path2D) Len() int {
	return len(p.Waypoints)
}

// Empty reports whether the path has no waypoints — "no goal" per
// spec.md §4.4.
func (p Path2D) Empty() bool {
	return len(p.Waypoints) == 0
}

// Length returns the sum of Euclidean segment lengths.
func (p Path2D) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.Waypoints); i++ {
		total += p.Waypoints[i-1].Pos.Distance(p.Waypoints[i].Pos)
	}
	return total
}

// FindNearest returns the index of the segment endpoint (the "nearest"
// waypoint, per spec.md §3) whose segment [i-1, i] contains the closest
// projection of point, searching forward from begin up to end.
// maxSearchRange bounds how far past the current best candidate the
// search continues, measured in average segment lengths times the index
// gap (0 means unbounded — the search always considers at least one
// segment).
// Returns ok=false if no segment exists in [begin, end).
func (p Path2D) FindNearest(begin, end int, point spatial.Point2D, maxSearchRange, epsilon float64) (nearest int, ok bool) {
	if begin < 1 {
		begin = 1
	}
	if end > len(p.Waypoints) {
		end = len(p.Waypoints)
	}
	if begin >= end {
		return 0, false
	}

	bestDist := math.Inf(1)
	bestIdx := -1
	foundAt := -1
	for i := begin; i < end; i++ {
		a := p.Waypoints[i-1].Pos
		b := p.Waypoints[i].Pos
		proj := spatial.ProjectClamped(a, b, point)
		d := proj.Distance(point)
		if d < bestDist-epsilon {
			bestDist = d
			bestIdx = i
			foundAt = i
		}
		if maxSearchRange > 0 && foundAt >= 0 && float64(i-foundAt)*avgSegLen(p, begin, end) > maxSearchRange {
			break
		}
	}
	if bestIdx < 0 {
		return 0, false
	}
	return bestIdx, true
}

func avgSegLen(p Path2D, begin, end int) float64 {
	if end <= begin {
		return 0
	}
	return p.Length() / float64(end-begin)
}

// FindLocalGoal scans forward from begin until the path direction
// reverses (or end is reached) and returns that index — the furthest
// waypoint reachable without reversing direction. When allowBackward is
// true, a direction reversal does not stop the scan (reverse motion is
// permitted by the tracker configuration).
func (p Path2D) FindLocalGoal(begin, end int, allowBackward bool) int {
	if end > len(p.Waypoints) {
		end = len(p.Waypoints)
	}
	if begin < 1 {
		begin = 1
	}
	if begin >= end {
		return end - 1
	}
	if allowBackward {
		return end - 1
	}

	prevDir := p.Waypoints[begin].Pos.Sub(p.Waypoints[begin-1].Pos)
	for i := begin + 1; i < end; i++ {
		dir := p.Waypoints[i].Pos.Sub(p.Waypoints[i-1].Pos)
		if dir.Dot(prevDir) < 0 {
			return i - 1
		}
		if dir.Norm() > 1e-9 {
			prevDir = dir
		}
	}
	return end - 1
}

// RemainedDistance returns the arc length from projectedPoint (the
// projection of the robot onto segment [nearest-1, nearest]) to target,
// walking forward along the waypoints.
func (p Path2D) RemainedDistance(nearest, target int, projectedPoint spatial.Point2D) float64 {
	if nearest >= len(p.Waypoints) || target >= len(p.Waypoints) || nearest < 1 {
		return 0
	}
	total := p.Waypoints[nearest].Pos.Distance(projectedPoint)
	for i := nearest + 1; i <= target; i++ {
		total += p.Waypoints[i-1].Pos.Distance(p.Waypoints[i].Pos)
	}
	return total
}

// GetCurvature returns the average signed path curvature over the window
// [nearest, localGoal], approximated as the arc-length-weighted mean of
// each segment's signed curvature (heading change over segment length),
// starting at projectedPoint and truncated to forwardDist of arc length.
func (p Path2D) GetCurvature(nearest, localGoal int, projectedPoint spatial.Point2D, forwardDist float64) float64 {
	if nearest < 1 || nearest >= len(p.Waypoints) || localGoal >= len(p.Waypoints) || localGoal < nearest {
		return 0
	}
	var curvatures, weights []float64
	prevHeading := math.Atan2(
		p.Waypoints[nearest].Pos.Y-projectedPoint.Y,
		p.Waypoints[nearest].Pos.X-projectedPoint.X,
	)
	prevPoint := projectedPoint
	totalDist := 0.0
	for i := nearest; i <= localGoal && totalDist < forwardDist; i++ {
		seg := p.Waypoints[i].Pos.Sub(prevPoint)
		d := seg.Norm()
		if d < 1e-9 {
			prevPoint = p.Waypoints[i].Pos
			continue
		}
		heading := math.Atan2(seg.Y, seg.X)
		dAngle := spatial.NormalizeAngle(heading - prevHeading)
		curvatures = append(curvatures, dAngle/d)
		weights = append(weights, d)
		totalDist += d
		prevHeading = heading
		prevPoint = p.Waypoints[i].Pos
	}
	if len(curvatures) == 0 {
		return 0
	}
	return stat.Mean(curvatures, weights)
}

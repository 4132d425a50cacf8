// Package spatial provides the 2D geometry primitives shared by the
// costmap and tracker subsystems: points, poses, and polygons in the
// robot's planar world.
package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// Point2D is a position in the plane, carried as an r3.Vector with Z
// pinned to 0 so it composes with code that expects a 3D vector (twist
// commands, movement-sensor readings) without a conversion at every call
// site.
type Point2D struct {
	r3.Vector
}

// NewPoint2D constructs a Point2D from x, y.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{r3.Vector{X: x, Y: y, Z: 0}}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.Vector.Sub(q.Vector)}
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.Vector.Add(q.Vector)}
}

// Scale returns p * s.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{p.Vector.Mul(s)}
}

// Norm returns the Euclidean length of p.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dot returns the planar dot product.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the scalar z-component of the 3D cross product p x q,
// i.e. the signed area of the parallelogram they span.
func (p Point2D) Cross(q Point2D) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return p.Sub(q).Norm()
}

// Point2D3 is a planar point lifted to an explicit z, used only for the
// diagnostic debug point cloud (spec.md §9's "z = yaw * 0.1" visualization
// hack); it never participates in planar geometry.
type Point2D3 struct {
	Point2D
	Z float64
}

// Pose2D is a planar pose with an optional target velocity. Velocity is
// nil when unspecified, per the Design Note in the specification
// preferring an explicit optional over a NaN sentinel.
type Pose2D struct {
	Pos      Point2D
	Yaw      float64
	Velocity *float64
}

// NewPose2D constructs a Pose2D with unspecified velocity.
func NewPose2D(x, y, yaw float64) Pose2D {
	return Pose2D{Pos: NewPoint2D(x, y), Yaw: yaw}
}

// WithVelocity returns a copy of p with an explicit target velocity.
func (p Pose2D) WithVelocity(v float64) Pose2D {
	p.Velocity = &v
	return p
}

// HeadingVector returns the unit vector of the pose's yaw.
func (p Pose2D) HeadingVector() Point2D {
	return NewPoint2D(math.Cos(p.Yaw), math.Sin(p.Yaw))
}

// NormalizeAngle wraps a into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Project returns the orthogonal projection of point onto the infinite
// line through a and b. If a and b coincide, a is returned.
func Project(a, b, point Point2D) Point2D {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < 1e-12 {
		return a
	}
	t := point.Sub(a).Dot(ab) / lenSq
	return a.Add(ab.Scale(t))
}

// ProjectClamped is Project but clamps t to [0, 1] so the result always
// lies on the segment a-b rather than the infinite line.
func ProjectClamped(a, b, point Point2D) Point2D {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < 1e-12 {
		return a
	}
	t := point.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}

// SignedLineDistance returns the signed perpendicular distance from point
// to the infinite line through a and b: positive when point is to the
// left of the direction a->b.
func SignedLineDistance(a, b, point Point2D) float64 {
	ab := b.Sub(a)
	norm := ab.Norm()
	if norm < 1e-12 {
		return point.Sub(a).Norm()
	}
	return ab.Cross(point.Sub(a)) / norm
}

// Clip clamps v to [-lim, lim].
func Clip(v, lim float64) float64 {
	if v > lim {
		return lim
	}
	if v < -lim {
		return -lim
	}
	return v
}

// Sign returns the sign of v, treating 0 as positive, matching the
// bang-bang time-optimal control convention used throughout the tracker.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

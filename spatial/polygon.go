package spatial

import "math"

// Polygon is an ordered list of vertices in the robot body frame, closed
// implicitly (the last vertex connects back to the first). It carries no
// convex-hull requirement: rasterization and distance queries below walk
// the edge list directly, matching the "convex-hull-free inflation" the
// specification calls for.
type Polygon struct {
	Vertices []Point2D
}

// NewPolygon constructs a Polygon from raw (x, y) pairs.
func NewPolygon(points [][2]float64) Polygon {
	verts := make([]Point2D, len(points))
	for i, p := range points {
		verts[i] = NewPoint2D(p[0], p[1])
	}
	return Polygon{Vertices: verts}
}

// Rotated returns a copy of the polygon with every vertex rotated by yaw
// about the origin (the robot's own frame origin).
func (poly Polygon) Rotated(yaw float64) Polygon {
	c, s := math.Cos(yaw), math.Sin(yaw)
	out := make([]Point2D, len(poly.Vertices))
	for i, v := range poly.Vertices {
		out[i] = NewPoint2D(v.X*c-v.Y*s, v.X*s+v.Y*c)
	}
	return Polygon{Vertices: out}
}

// Bounds returns the axis-aligned bounding box of the polygon as
// (minX, minY, maxX, maxY).
func (poly Polygon) Bounds() (minX, minY, maxX, maxY float64) {
	if len(poly.Vertices) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = poly.Vertices[0].X, poly.Vertices[0].Y
	maxX, maxY = minX, minY
	for _, v := range poly.Vertices[1:] {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return
}

// Contains reports whether point lies inside the polygon, using the
// standard even-odd ray casting rule. Works for convex and concave
// simple polygons alike.
func (poly Polygon) Contains(point Point2D) bool {
	n := len(poly.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := poly.Vertices[i], poly.Vertices[j]
		if ((vi.Y > point.Y) != (vj.Y > point.Y)) &&
			(point.X < (vj.X-vi.X)*(point.Y-vi.Y)/(vj.Y-vi.Y)+vi.X) {
			inside = !inside
		}
	}
	return inside
}

// DistanceToPerimeter returns the minimum Euclidean distance from point to
// any edge of the polygon (0 if the polygon is degenerate).
func (poly Polygon) DistanceToPerimeter(point Point2D) float64 {
	n := len(poly.Vertices)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return point.Distance(poly.Vertices[0])
	}
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		a := poly.Vertices[i]
		b := poly.Vertices[(i+1)%n]
		d := point.Distance(ProjectClamped(a, b, point))
		if d < best {
			best = d
		}
	}
	return best
}

// SignedDistance is negative inside the polygon and positive outside,
// following the usual signed-distance-field convention used to rank cells
// during footprint inflation.
func (poly Polygon) SignedDistance(point Point2D) float64 {
	d := poly.DistanceToPerimeter(point)
	if poly.Contains(point) {
		return -d
	}
	return d
}

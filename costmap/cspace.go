package costmap

import (
	"math"

	"github.com/merlinwwu/neonavigation/spatial"
)

// CSpace3D is the 3D configuration-space cost volume indexed by
// (x, y, yaw). Data is laid out angle-major: idx(gx, gy, a) =
// a*height*width + gy*width + gx, per spec.md §3.
type CSpace3D struct {
	Width, Height int
	Angle         int
	LinearRes     float64
	AngularRes    float64
	Origin        spatial.Pose2D
	Data          []int8
}

// NewCSpace3D allocates a volume with every cell set to Unknown.
func NewCSpace3D(width, height, angle int, linearRes float64, origin spatial.Pose2D) *CSpace3D {
	data := make([]int8, angle*height*width)
	for i := range data {
		data[i] = Unknown
	}
	return &CSpace3D{
		Width: width, Height: height, Angle: angle,
		LinearRes: linearRes, AngularRes: 2 * math.Pi / float64(angle),
		Origin: origin, Data: data,
	}
}

// Index returns the flat data index for cell (gx, gy, a). It does not
// bounds-check.
func (c *CSpace3D) Index(gx, gy, a int) int {
	return a*c.Height*c.Width + gy*c.Width + gx
}

// InBounds reports whether (gx, gy, a) addresses a valid cell.
func (c *CSpace3D) InBounds(gx, gy, a int) bool {
	return gx >= 0 && gx < c.Width && gy >= 0 && gy < c.Height && a >= 0 && a < c.Angle
}

// At returns the cost at (gx, gy, a); it does not bounds-check.
func (c *CSpace3D) At(gx, gy, a int) int8 {
	return c.Data[c.Index(gx, gy, a)]
}

// Set writes the cost at (gx, gy, a); it does not bounds-check.
func (c *CSpace3D) Set(gx, gy, a int, v int8) {
	c.Data[c.Index(gx, gy, a)] = v
}

// SizeMatches reports whether c has identical (angle, resolution, width,
// height) to o, the invariant the pipeline holds across all its layers
// once the root layer is sized.
func (c *CSpace3D) SizeMatches(o *CSpace3D) bool {
	return c.Angle == o.Angle && c.Width == o.Width && c.Height == o.Height &&
		abs(c.LinearRes-o.LinearRes) < 1e-9
}

// Clone returns a deep copy of c.
func (c *CSpace3D) Clone() *CSpace3D {
	data := make([]int8, len(c.Data))
	copy(data, c.Data)
	return &CSpace3D{
		Width: c.Width, Height: c.Height, Angle: c.Angle,
		LinearRes: c.LinearRes, AngularRes: c.AngularRes,
		Origin: c.Origin, Data: data,
	}
}

// BBox is a rectangular patch in cell-index space, half-open on width and
// height, spanning yaw bins [Yaw0, Yaw0+AYaw).
type BBox struct {
	X0, Y0, Yaw0 int
	W, H, AYaw   int
}

// Empty reports whether the bbox spans zero cells.
func (b BBox) Empty() bool {
	return b.W <= 0 || b.H <= 0 || b.AYaw <= 0
}

// Union returns the smallest bbox covering both a and b. An empty operand
// is ignored.
func Union(a, b BBox) BBox {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	x0 := min(a.X0, b.X0)
	y0 := min(a.Y0, b.Y0)
	yaw0 := min(a.Yaw0, b.Yaw0)
	x1 := max(a.X0+a.W, b.X0+b.W)
	y1 := max(a.Y0+a.H, b.Y0+b.H)
	yaw1 := max(a.Yaw0+a.AYaw, b.Yaw0+b.AYaw)
	return BBox{X0: x0, Y0: y0, Yaw0: yaw0, W: x1 - x0, H: y1 - y0, AYaw: yaw1 - yaw0}
}

// Clamp intersects b with the volume dimensions of c.
func (b BBox) Clamp(c *CSpace3D) BBox {
	x0 := clampInt(b.X0, 0, c.Width)
	y0 := clampInt(b.Y0, 0, c.Height)
	yaw0 := clampInt(b.Yaw0, 0, c.Angle)
	x1 := clampInt(b.X0+b.W, 0, c.Width)
	y1 := clampInt(b.Y0+b.H, 0, c.Height)
	yaw1 := clampInt(b.Yaw0+b.AYaw, 0, c.Angle)
	return BBox{X0: x0, Y0: y0, Yaw0: yaw0, W: x1 - x0, H: y1 - y0, AYaw: yaw1 - yaw0}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CSpace3DUpdate is the minimal bounding patch describing what changed in
// a CSpace3D since the previous update, plus the buffer of that extent
// (angle-major, matching CSpace3D's own layout).
type CSpace3DUpdate struct {
	BBox
	Origin spatial.Pose2D
	Data   []int8
}

// ExtractUpdate copies the cells of c within box into a CSpace3DUpdate.
func ExtractUpdate(c *CSpace3D, box BBox) CSpace3DUpdate {
	box = box.Clamp(c)
	data := make([]int8, 0, box.W*box.H*box.AYaw)
	for a := box.Yaw0; a < box.Yaw0+box.AYaw; a++ {
		for gy := box.Y0; gy < box.Y0+box.H; gy++ {
			for gx := box.X0; gx < box.X0+box.W; gx++ {
				data = append(data, c.At(gx, gy, a))
			}
		}
	}
	return CSpace3DUpdate{BBox: box, Origin: c.Origin, Data: data}
}

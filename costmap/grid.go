// Package costmap builds the 3D configuration-space cost volume from a 2D
// occupancy grid, following the layered-pipeline design of
// go.viam.com/rdk's component packages: small, independently testable
// types composed by a constructor that wires them together.
package costmap

import (
	"math"

	"github.com/pkg/errors"

	"github.com/merlinwwu/neonavigation/spatial"
)

// Unknown, Free and Lethal are the reserved occupancy cost values.
const (
	Unknown int8 = -1
	Free    int8 = 0
	Lethal  int8 = 100
)

// OccupancyGrid2D is a fixed-resolution 2D lattice of signed byte cost
// cells with a known origin, resolution, width and height.
type OccupancyGrid2D struct {
	Width, Height int
	Resolution    float64
	Origin        spatial.Pose2D
	Frame         string
	Data          []int8
}

// NewOccupancyGrid2D allocates a grid with all cells set to Unknown.
func NewOccupancyGrid2D(width, height int, resolution float64, origin spatial.Pose2D, frame string) *OccupancyGrid2D {
	data := make([]int8, width*height)
	for i := range data {
		data[i] = Unknown
	}
	return &OccupancyGrid2D{
		Width: width, Height: height, Resolution: resolution,
		Origin: origin, Frame: frame, Data: data,
	}
}

// Validate checks the invariants spec.md requires of an occupancy grid:
// len(Data) == Width*Height and a non-degenerate extent.
func (g *OccupancyGrid2D) Validate() error {
	if g.Width == 0 || g.Height == 0 {
		return errors.New("degenerate occupancy grid: width or height is 0")
	}
	if len(g.Data) != g.Width*g.Height {
		return errors.Errorf("occupancy grid data length %d does not match width*height %d",
			len(g.Data), g.Width*g.Height)
	}
	if g.Resolution <= 0 {
		return errors.New("occupancy grid resolution must be positive")
	}
	return nil
}

// At returns the cost of cell (x, y); it does not bounds-check.
func (g *OccupancyGrid2D) At(x, y int) int8 {
	return g.Data[y*g.Width+x]
}

// InBounds reports whether (x, y) is a valid cell index.
func (g *OccupancyGrid2D) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// ToIndex converts a world-frame point to grid cell coordinates, relative
// to the grid's own origin and resolution.
func (g *OccupancyGrid2D) ToIndex(p spatial.Point2D) (int, int) {
	local := p.Sub(g.Origin.Pos)
	// Un-rotate by the origin's yaw before dividing by resolution.
	c, s := math.Cos(-g.Origin.Yaw), math.Sin(-g.Origin.Yaw)
	lx := local.X*c - local.Y*s
	ly := local.X*s + local.Y*c
	return int(lx / g.Resolution), int(ly / g.Resolution)
}

// ToWorld converts a grid cell's lower corner to a world-frame point.
func (g *OccupancyGrid2D) ToWorld(x, y int) spatial.Point2D {
	lx := float64(x) * g.Resolution
	ly := float64(y) * g.Resolution
	c, s := math.Cos(g.Origin.Yaw), math.Sin(g.Origin.Yaw)
	wx := lx*c - ly*s
	wy := lx*s + ly*c
	return g.Origin.Pos.Add(spatial.NewPoint2D(wx, wy))
}

// SameFrame reports whether two grids share a frame, resolution, and
// origin closely enough to be composed directly (spec.md §4.3's overlay
// frame-matching requirement).
func (g *OccupancyGrid2D) SameFrame(o *OccupancyGrid2D) bool {
	const eps = 1e-6
	return g.Frame == o.Frame &&
		abs(g.Resolution-o.Resolution) < eps &&
		abs(g.Origin.Pos.X-o.Origin.Pos.X) < eps &&
		abs(g.Origin.Pos.Y-o.Origin.Pos.Y) < eps &&
		abs(g.Origin.Yaw-o.Origin.Yaw) < eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

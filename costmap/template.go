package costmap

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/merlinwwu/neonavigation/spatial"
)

// TemplateCell is one nonzero entry of a per-yaw footprint template: a
// grid offset from the stamped cell's origin and the cost it contributes.
type TemplateCell struct {
	DX, DY int
	Cost   int8
}

// FootprintTemplate holds, for every yaw bin, the sparse list of
// (dx, dy, cost) triples describing how a lethal cell inflates the cost
// volume when the footprint is stamped there. Built at pipeline
// construction from linearExpand, linearSpread and the footprint polygon,
// and rebuilt when a base map arrives at a different resolution.
type FootprintTemplate struct {
	Angle         int
	LinearRes     float64
	LinearExpand  float64
	LinearSpread  float64
	Cells         [][]TemplateCell // indexed by yaw bin
	Radius        int              // cell radius bounding every nonzero cell across all bins
}

// BuildFootprintTemplate rasterizes the rotated footprint polygon at each
// of `angle` yaw bins onto the linearRes grid and assigns costs per
// spec.md §4.1: 100 inside the polygon or within linearExpand of its
// perimeter, a linear ramp out to linearExpand+linearSpread, 0 beyond.
func BuildFootprintTemplate(footprint spatial.Polygon, angle int, linearRes, linearExpand, linearSpread float64) FootprintTemplate {
	tpl := FootprintTemplate{
		Angle: angle, LinearRes: linearRes,
		LinearExpand: linearExpand, LinearSpread: linearSpread,
		Cells: make([][]TemplateCell, angle),
	}
	maxReach := linearExpand + linearSpread
	radiusCells := 0
	for a := 0; a < angle; a++ {
		yaw := float64(a) * 2 * math.Pi / float64(angle)
		rotated := footprint.Rotated(yaw)
		minX, minY, maxX, maxY := rotated.Bounds()
		minX -= maxReach
		minY -= maxReach
		maxX += maxReach
		maxY += maxReach

		gx0 := int(math.Floor(minX / linearRes))
		gx1 := int(math.Ceil(maxX / linearRes))
		gy0 := int(math.Floor(minY / linearRes))
		gy1 := int(math.Ceil(maxY / linearRes))

		var cells []TemplateCell
		for gy := gy0; gy <= gy1; gy++ {
			for gx := gx0; gx <= gx1; gx++ {
				center := spatial.NewPoint2D((float64(gx)+0.5)*linearRes, (float64(gy)+0.5)*linearRes)
				cost := templateCost(rotated, center, linearExpand, linearSpread)
				if cost <= 0 {
					continue
				}
				cells = append(cells, TemplateCell{DX: gx, DY: gy, Cost: int8(cost)})
				r := int(math.Ceil(math.Max(math.Abs(float64(gx)), math.Abs(float64(gy)))))
				if r > radiusCells {
					radiusCells = r
				}
			}
		}
		tpl.Cells[a] = cells
	}
	tpl.Radius = radiusCells
	return tpl
}

// templateCost assigns the cost for a single rasterized cell center per
// the inflation ramp in spec.md §4.1.
func templateCost(poly spatial.Polygon, center spatial.Point2D, linearExpand, linearSpread float64) float64 {
	d := poly.SignedDistance(center)
	if d <= linearExpand {
		return 100
	}
	if linearSpread <= 0 {
		return 0
	}
	if d >= linearExpand+linearSpread {
		return 0
	}
	ramp := 100 * (1 - (d-linearExpand)/linearSpread)
	return math.Round(ramp)
}

// maxTemplateCost returns the largest cost in a slice of template cells,
// using gonum.org/v1/gonum/floats.Max for the reduction.
func maxTemplateCost(cells []TemplateCell) int8 {
	if len(cells) == 0 {
		return 0
	}
	values := make([]float64, len(cells))
	for i, c := range cells {
		values[i] = float64(c.Cost)
	}
	return int8(floats.Max(values))
}

// MaxCost returns the largest cost carried by the template across every
// yaw bin; NewLayer publishes this as a gauge so an operator can see at a
// glance whether a reconfigured footprint/inflation still reaches the
// lethal threshold.
func (tpl FootprintTemplate) MaxCost() int8 {
	var max int8
	for _, cells := range tpl.Cells {
		if c := maxTemplateCost(cells); c > max {
			max = c
		}
	}
	return max
}

package costmap

import (
	"testing"

	"go.viam.com/test"

	"github.com/merlinwwu/neonavigation/spatial"
)

func TestBuildFootprintTemplateRampsToZero(t *testing.T) {
	footprint := spatial.NewPolygon([][2]float64{
		{-0.2, -0.2}, {0.2, -0.2}, {0.2, 0.2}, {-0.2, 0.2},
	})
	tpl := BuildFootprintTemplate(footprint, 4, 0.05, 0.1, 0.2)

	test.That(t, len(tpl.Cells), test.ShouldEqual, 4)
	for _, cells := range tpl.Cells {
		test.That(t, len(cells) > 0, test.ShouldBeTrue)
		test.That(t, maxTemplateCost(cells), test.ShouldEqual, int8(100))
		for _, c := range cells {
			test.That(t, c.Cost > 0, test.ShouldBeTrue)
			test.That(t, c.Cost <= 100, test.ShouldBeTrue)
		}
	}
	test.That(t, tpl.MaxCost(), test.ShouldEqual, int8(100))
}

func TestBuildFootprintTemplateZeroSpreadIsHardEdge(t *testing.T) {
	footprint := spatial.NewPolygon([][2]float64{
		{-0.1, -0.1}, {0.1, -0.1}, {0.1, 0.1}, {-0.1, 0.1},
	})
	tpl := BuildFootprintTemplate(footprint, 1, 0.05, 0.0, 0.0)
	for _, c := range tpl.Cells[0] {
		test.That(t, c.Cost, test.ShouldEqual, int8(100))
	}
}

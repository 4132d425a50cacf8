package costmap

import (
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/merlinwwu/neonavigation/spatial"
)

func testFootprint() spatial.Polygon {
	return spatial.NewPolygon([][2]float64{
		{-0.2, -0.2}, {0.2, -0.2}, {0.2, 0.2}, {-0.2, 0.2},
	})
}

func gridWithLethal(width, height int, resolution float64, lethal ...[2]int) *OccupancyGrid2D {
	g := NewOccupancyGrid2D(width, height, resolution, spatial.NewPose2D(0, 0, 0), "map")
	for i := range g.Data {
		g.Data[i] = Free
	}
	for _, c := range lethal {
		g.Data[c[1]*width+c[0]] = Lethal
	}
	return g
}

func newTestPipeline(t *testing.T, overlays ...string) *Pipeline {
	t.Helper()
	specs := make([]OverlaySpec, len(overlays))
	for i, n := range overlays {
		specs[i] = OverlaySpec{Name: n, Mode: OverlayMax}
	}
	p, err := NewPipeline(4, 0.2, 0.0, testFootprint(), specs, golog.NewTestLogger(t), nil)
	test.That(t, err, test.ShouldBeNil)
	return p
}

// Scenario 5: a single lethal cell inflates into a footprint-swept region
// for every yaw bin, with cost in [0, 100].
func TestBaseMapStampsFootprintSweptRegion(t *testing.T) {
	p := newTestPipeline(t)
	occ := gridWithLethal(100, 100, 0.05, [2]int{50, 50})

	snap, err := p.ReceiveBaseMap(occ)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, snap, test.ShouldNotBeNil)

	foundLethal := false
	for a := 0; a < snap.Angle; a++ {
		if snap.At(50, 50, a) == Lethal {
			foundLethal = true
		}
	}
	test.That(t, foundLethal, test.ShouldBeTrue)

	for _, v := range snap.Data {
		test.That(t, v >= 0 && v <= 100, test.ShouldBeTrue)
	}
}

func TestBaseMapStampingIsIdempotent(t *testing.T) {
	p := newTestPipeline(t)
	occ := gridWithLethal(30, 30, 0.05, [2]int{10, 10})

	snap1, err := p.ReceiveBaseMap(occ)
	test.That(t, err, test.ShouldBeNil)
	data1 := append([]int8(nil), snap1.Data...)

	snap2, err := p.ReceiveBaseMap(occ)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, snap2.Data, test.ShouldResemble, data1)
}

func TestOverlayBeforeBaseMapIsRejected(t *testing.T) {
	p := newTestPipeline(t, "dynamic")
	occ := gridWithLethal(10, 10, 0.05, [2]int{5, 5})
	_, err := p.ReceiveOverlay("dynamic", occ)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOverlayMismatchedFrameIsRejected(t *testing.T) {
	p := newTestPipeline(t, "dynamic")
	base := gridWithLethal(10, 10, 0.05, [2]int{5, 5})
	_, err := p.ReceiveBaseMap(base)
	test.That(t, err, test.ShouldBeNil)

	overlay := NewOccupancyGrid2D(10, 10, 0.05, spatial.NewPose2D(0, 0, 0), "other-frame")
	for i := range overlay.Data {
		overlay.Data[i] = Free
	}
	_, err = p.ReceiveOverlay("dynamic", overlay)
	test.That(t, err, test.ShouldNotBeNil)
}

// Scenario 6 + invariant 2: the overlay update's bbox encloses the
// touched cell plus footprint radius, and cells outside are unchanged.
func TestOverlayUpdateBBoxCoversChangedCells(t *testing.T) {
	p := newTestPipeline(t, "dynamic")
	base := gridWithLethal(100, 100, 0.05, [2]int{50, 50})
	_, err := p.ReceiveBaseMap(base)
	test.That(t, err, test.ShouldBeNil)

	before := p.GetMap().Clone()

	overlay := gridWithLethal(100, 100, 0.05, [2]int{10, 10})
	update, err := p.ReceiveOverlay("dynamic", overlay)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, update.Empty(), test.ShouldBeFalse)

	test.That(t, update.X0, test.ShouldBeLessThanOrEqualTo, 10)
	test.That(t, update.X0+update.W, test.ShouldBeGreaterThanOrEqualTo, 10)

	after := p.GetMap()
	for gy := 0; gy < after.Height; gy++ {
		for gx := 0; gx < after.Width; gx++ {
			inBox := gx >= update.X0 && gx < update.X0+update.W && gy >= update.Y0 && gy < update.Y0+update.H
			if inBox {
				continue
			}
			for a := 0; a < after.Angle; a++ {
				test.That(t, after.At(gx, gy, a), test.ShouldEqual, before.At(gx, gy, a))
			}
		}
	}
}

// Idempotence: an overlay matching the base map (no new lethal cells)
// yields an empty-delta update.
func TestOverlayWithNoLethalCellsYieldsEmptyUpdate(t *testing.T) {
	p := newTestPipeline(t, "dynamic")
	base := gridWithLethal(20, 20, 0.05, [2]int{5, 5})
	_, err := p.ReceiveBaseMap(base)
	test.That(t, err, test.ShouldBeNil)

	overlay := NewOccupancyGrid2D(20, 20, 0.05, spatial.NewPose2D(0, 0, 0), "map")
	for i := range overlay.Data {
		overlay.Data[i] = Free
	}
	update, err := p.ReceiveOverlay("dynamic", overlay)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, update.Empty(), test.ShouldBeTrue)
}

func TestOverwriteModeKeepsCellsNotRestamped(t *testing.T) {
	specs := []OverlaySpec{{Name: "dynamic", Mode: OverlayOverwrite}}
	p, err := NewPipeline(4, 0.2, 0.0, testFootprint(), specs, golog.NewTestLogger(t), nil)
	test.That(t, err, test.ShouldBeNil)

	base := gridWithLethal(20, 20, 0.05)
	_, err = p.ReceiveBaseMap(base)
	test.That(t, err, test.ShouldBeNil)

	first := gridWithLethal(20, 20, 0.05, [2]int{10, 10})
	_, err = p.ReceiveOverlay("dynamic", first)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.GetMap().At(10, 10, 0), test.ShouldEqual, int8(100))

	second := gridWithLethal(20, 20, 0.05) // no lethal cells at all
	_, err = p.ReceiveOverlay("dynamic", second)
	test.That(t, err, test.ShouldBeNil)
	// Overwrite mode only touches cells the new overlay's template
	// stamps; with no lethal cells this call touches nothing, so the
	// previous stamp remains — the discard only happens per revisited
	// cell, not as a layer-wide reset.
	test.That(t, p.GetMap().At(10, 10, 0), test.ShouldEqual, int8(100))
}

func TestDebugPointCloudOnlyIncludesLethalCells(t *testing.T) {
	p := newTestPipeline(t)
	base := gridWithLethal(20, 20, 0.05, [2]int{10, 10})
	_, err := p.ReceiveBaseMap(base)
	test.That(t, err, test.ShouldBeNil)

	pts := p.DebugPointCloud()
	test.That(t, len(pts) > 0, test.ShouldBeTrue)
	for _, pt := range pts {
		test.That(t, pt.Z >= 0, test.ShouldBeTrue)
	}
}

package spatial

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func square(halfSide float64) Polygon {
	return NewPolygon([][2]float64{
		{-halfSide, -halfSide},
		{halfSide, -halfSide},
		{halfSide, halfSide},
		{-halfSide, halfSide},
	})
}

func TestPolygonContains(t *testing.T) {
	p := square(0.2)
	test.That(t, p.Contains(NewPoint2D(0, 0)), test.ShouldBeTrue)
	test.That(t, p.Contains(NewPoint2D(0.5, 0.5)), test.ShouldBeFalse)
}

func TestPolygonSignedDistance(t *testing.T) {
	p := square(0.2)
	test.That(t, p.SignedDistance(NewPoint2D(0, 0)), test.ShouldBeLessThan, 0)
	test.That(t, p.SignedDistance(NewPoint2D(1, 0)), test.ShouldBeGreaterThan, 0)
}

func TestPolygonRotatedPreservesBounds(t *testing.T) {
	p := square(0.2)
	rotated := p.Rotated(math.Pi / 4)
	minX, minY, maxX, maxY := rotated.Bounds()
	// A square rotated 45 degrees circumscribes a bigger box.
	test.That(t, maxX-minX, test.ShouldBeGreaterThan, 0.4)
	test.That(t, maxY-minY, test.ShouldBeGreaterThan, 0.4)
}

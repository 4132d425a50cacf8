package limiter

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestSetClampsToHardLimit(t *testing.T) {
	var l VelAccLimitter
	got := l.Set(10, 1.0, 100, 1.0)
	test.That(t, got, test.ShouldEqual, 1.0)
}

func TestSetClampsAcceleration(t *testing.T) {
	var l VelAccLimitter
	got := l.Set(10, 100, 2.0, 0.1)
	test.That(t, got, test.ShouldEqual, 0.2)
}

func TestIncrementAddsToCurrent(t *testing.T) {
	var l VelAccLimitter
	l.Set(1.0, 10, 100, 1.0)
	got := l.Increment(0.5, 10, 100, 1.0)
	test.That(t, got, test.ShouldEqual, 1.5)
}

func TestClearResetsToZero(t *testing.T) {
	var l VelAccLimitter
	l.Set(5, 10, 100, 1.0)
	l.Clear()
	test.That(t, l.Get(), test.ShouldEqual, 0.0)
}

func TestTimeOptimalControlSign(t *testing.T) {
	test.That(t, TimeOptimalControl(4.0, 2.0), test.ShouldEqual, -4.0)
	test.That(t, TimeOptimalControl(-4.0, 2.0), test.ShouldEqual, 4.0)
	test.That(t, TimeOptimalControl(0, 2.0), test.ShouldEqual, 0.0)
}

func TestAccelerationInvariantAcrossTicks(t *testing.T) {
	var l VelAccLimitter
	accel := 1.0
	dt := 0.05
	prev := l.Get()
	for i := 0; i < 50; i++ {
		v := l.Set(10, 100, accel, dt)
		test.That(t, math.Abs(v-prev), test.ShouldBeLessThanOrEqualTo, accel*dt+1e-9)
		prev = v
	}
}

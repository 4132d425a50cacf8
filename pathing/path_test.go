package pathing

import (
	"testing"

	"go.viam.com/test"

	"github.com/merlinwwu/neonavigation/spatial"
)

func straightPath(n int, spacing float64) Path2D {
	wps := make([]spatial.Pose2D, n)
	for i := 0; i < n; i++ {
		wps[i] = spatial.NewPose2D(float64(i)*spacing, 0, 0)
	}
	p, _ := New(wps, 1e-6)
	return p
}

func TestPathLength(t *testing.T) {
	p := straightPath(11, 1.0)
	test.That(t, p.Length(), test.ShouldEqual, 10.0)
}

func TestNewRejectsNegativeVelocity(t *testing.T) {
	neg := -1.0
	wps := []spatial.Pose2D{
		spatial.NewPose2D(0, 0, 0),
		spatial.NewPose2D(1, 0, 0).WithVelocity(neg),
	}
	_, err := New(wps, 1e-6)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewCollapsesNearDuplicates(t *testing.T) {
	wps := []spatial.Pose2D{
		spatial.NewPose2D(0, 0, 0),
		spatial.NewPose2D(1e-9, 1e-9, 1.5),
		spatial.NewPose2D(1, 0, 0),
	}
	p, err := New(wps, 1e-3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Len(), test.ShouldEqual, 2)
	test.That(t, p.Waypoints[0].Yaw, test.ShouldEqual, 1.5)
}

func TestFindNearestOnStraightPath(t *testing.T) {
	p := straightPath(11, 1.0)
	nearest, ok := p.FindNearest(1, p.Len(), spatial.NewPoint2D(4.3, 0.2), 0, 1e-6)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nearest, test.ShouldEqual, 5)
}

func TestFindNearestEmptyRangeFails(t *testing.T) {
	p := straightPath(1, 1.0)
	_, ok := p.FindNearest(1, p.Len(), spatial.NewPoint2D(0, 0), 0, 1e-6)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestFindLocalGoalStopsAtReversal(t *testing.T) {
	wps := []spatial.Pose2D{
		spatial.NewPose2D(0, 0, 0),
		spatial.NewPose2D(1, 0, 0),
		spatial.NewPose2D(2, 0, 0),
		spatial.NewPose2D(1, 0, 0), // reverses direction
	}
	p, err := New(wps, 1e-6)
	test.That(t, err, test.ShouldBeNil)
	goal := p.FindLocalGoal(1, p.Len(), false)
	test.That(t, goal, test.ShouldEqual, 2)
}

func TestFindLocalGoalAllowBackwardReachesEnd(t *testing.T) {
	wps := []spatial.Pose2D{
		spatial.NewPose2D(0, 0, 0),
		spatial.NewPose2D(1, 0, 0),
		spatial.NewPose2D(0, 0, 0),
	}
	p, err := New(wps, 1e-6)
	test.That(t, err, test.ShouldBeNil)
	goal := p.FindLocalGoal(1, p.Len(), true)
	test.That(t, goal, test.ShouldEqual, p.Len()-1)
}

func TestGetCurvatureOfStraightPathIsZero(t *testing.T) {
	p := straightPath(11, 1.0)
	c := p.GetCurvature(1, 5, spatial.NewPoint2D(0, 0), 10)
	test.That(t, c, test.ShouldEqual, 0.0)
}

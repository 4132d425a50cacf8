package tracker

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/merlinwwu/neonavigation/spatial"
)

func TestTickOdometryClampsDtToMaxDt(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDt = 50 * time.Millisecond
	c, statuses, _ := newTestController(t, cfg)
	test.That(t, c.SetPath(straightLinePath(t, 10), "map"), test.ShouldBeNil)

	base := time.Now()
	c.TickOdometry(context.Background(), spatial.NewPose2D(0, 0, 0), Odometry{
		Stamp:      base,
		FrameOdom:  "odom",
		FrameRobot: "base_link",
	}, base)
	test.That(t, len(*statuses), test.ShouldEqual, 1)

	c.TickOdometry(context.Background(), spatial.NewPose2D(0, 0, 0), Odometry{
		Stamp:      base.Add(time.Second),
		FrameOdom:  "odom",
		FrameRobot: "base_link",
	}, base.Add(time.Second))
	test.That(t, len(*statuses), test.ShouldEqual, 2)
	// The 1 s stamp gap is clamped to 50 ms, so one acceleration-limited
	// step moves the linear command by at most MaxAcc * 0.05.
	test.That(t, c.vLim.Get(), test.ShouldBeLessThanOrEqualTo, cfg.MaxAcc*cfg.MaxDt.Seconds()+1e-9)
}

func TestTickOdometryReconfiguresOnFrameMismatch(t *testing.T) {
	cfg := testConfig()
	c, _, _ := newTestController(t, cfg)
	test.That(t, c.SetPath(straightLinePath(t, 10), "map"), test.ShouldBeNil)

	now := time.Now()
	c.TickOdometry(context.Background(), spatial.NewPose2D(0, 0, 0), Odometry{
		Stamp:      now,
		FrameOdom:  "map",
		FrameRobot: "robot",
	}, now)

	c.mu.Lock()
	gotOdom, gotRobot := c.cfg.FrameOdom, c.cfg.FrameRobot
	c.mu.Unlock()
	test.That(t, gotOdom, test.ShouldEqual, "map")
	test.That(t, gotRobot, test.ShouldEqual, "robot")
}

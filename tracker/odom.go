package tracker

import (
	"context"
	"math"
	"time"

	"github.com/merlinwwu/neonavigation/spatial"
	"github.com/merlinwwu/neonavigation/transform"
)

// Odometry is one odometry message: a stamped pose plus the reported
// body-frame twist, used for constant-twist prediction.
type Odometry struct {
	Stamp      time.Time
	FrameOdom  transform.Frame
	FrameRobot transform.Frame
	Twist      Twist
}

// TickTimer runs one timer-driven tick, per spec.md §4.6: it looks up
// the current robot<-odom transform and invokes Control with dt=1/hz.
// A lookup failure yields a NO_PATH tick without disturbing the
// limiters. A transform stamped more than 100ms before now is logged as
// a warning when CheckOldPath is set, and the tick proceeds with it.
func (c *Controller) TickTimer(ctx context.Context, lookup transform.Lookup, now time.Time) {
	c.mu.Lock()
	frameOdom, frameRobot := c.cfg.FrameOdom, c.cfg.FrameRobot
	checkOld := c.cfg.CheckOldPath
	c.mu.Unlock()

	stamped, err := lookup.LookupTransform(ctx, transform.Frame(frameOdom), transform.Frame(frameRobot), now)
	if err != nil {
		c.logger.Warnw("transform lookup failed, emitting NO_PATH tick", "error", err)
		c.mu.Lock()
		c.emitLocked(Twist{}, now, 0, 0, NoPath)
		c.mu.Unlock()
		return
	}
	if checkOld && now.Sub(stamped.Stamp) > 100*time.Millisecond {
		c.logger.Warnw("transform stamp older than 100ms", "age", now.Sub(stamped.Stamp))
	}

	c.mu.Lock()
	dt := 1.0 / c.cfg.Hz
	c.mu.Unlock()

	c.Control(ctx, stamped.Pose, dt, now)
}

// TickOdometry runs one odometry-driven tick, per spec.md §4.6. dt is
// clamped to max_dt; if prediction is enabled the pose is advanced by the
// reported twist for the time elapsed since the message was stamped
// (constant-twist extrapolation, per the Design Note — never substitute
// a higher-order model). If the message's frames disagree with
// configuration, configuration is updated to match, with a warning.
func (c *Controller) TickOdometry(ctx context.Context, robotPose spatial.Pose2D, odom Odometry, now time.Time) {
	c.mu.Lock()
	if string(odom.FrameOdom) != c.cfg.FrameOdom {
		c.logger.Warnw("odometry frame_odom mismatch, reconfiguring", "was", c.cfg.FrameOdom, "now", odom.FrameOdom)
		c.cfg.FrameOdom = string(odom.FrameOdom)
	}
	if string(odom.FrameRobot) != c.cfg.FrameRobot {
		c.logger.Warnw("odometry frame_robot mismatch, reconfiguring", "was", c.cfg.FrameRobot, "now", odom.FrameRobot)
		c.cfg.FrameRobot = string(odom.FrameRobot)
	}
	maxDt := c.cfg.MaxDt
	predict := c.cfg.PredictOdom

	var dt float64
	if c.haveOdomStamp {
		d := odom.Stamp.Sub(c.prevOdomStamp)
		if d > maxDt {
			d = maxDt
		}
		if d < 0 {
			d = 0
		}
		dt = d.Seconds()
	}
	c.prevOdomStamp = odom.Stamp
	c.haveOdomStamp = true
	c.mu.Unlock()

	pose := robotPose
	if predict {
		elapsed := now.Sub(odom.Stamp)
		if elapsed < 0 {
			elapsed = 0
		} else if elapsed > maxDt {
			elapsed = maxDt
		}
		pose = predictPose(robotPose, odom.Twist, elapsed.Seconds())
	}

	c.Control(ctx, pose, dt, now)
}

// predictPose advances pose by the constant body-frame twist over dt
// seconds, per spec.md §4.6's constant-twist extrapolation.
func predictPose(pose spatial.Pose2D, twist Twist, dt float64) spatial.Pose2D {
	if dt <= 0 {
		return pose
	}
	step := pose.Pos.Add(spatial.NewPoint2D(
		twist.Linear*dt*math.Cos(pose.Yaw),
		twist.Linear*dt*math.Sin(pose.Yaw),
	))
	return spatial.Pose2D{
		Pos:      step,
		Yaw:      spatial.NormalizeAngle(pose.Yaw + twist.Angular*dt),
		Velocity: pose.Velocity,
	}
}

// Package tracker implements the pure-pursuit / time-optimal trajectory
// tracker: a closed-loop control law that consumes a reference path and
// the current robot-to-odom transform and emits a twist command plus a
// path-following status, once per tick.
package tracker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merlinwwu/neonavigation/limiter"
	"github.com/merlinwwu/neonavigation/pathing"
	"github.com/merlinwwu/neonavigation/pubsub"
	"github.com/merlinwwu/neonavigation/spatial"
)

// Twist is the planar velocity command: linear-x and angular-z only, per
// spec.md §6 ("other axes zero").
type Twist struct {
	Linear  float64
	Angular float64
}

// Status is the tracker's per-tick report.
type Status struct {
	Stamp           time.Time
	PathHeader      string
	DistanceRemains float64
	AngleRemains    float64
	Code            PathStatus
}

// Tracking is the "tracking" pose output: the robot's projection onto the
// current path segment, with yaw set to -angle per spec.md §4.5 step 5.
type Tracking struct {
	Pose  spatial.Pose2D
	Stamp time.Time
}

// Outputs bundles the three publish seams the controller drives every
// tick. Any of them may be nil.
type Outputs struct {
	CmdVel   pubsub.Publisher[Twist]
	Status   pubsub.Publisher[Status]
	Tracking pubsub.Publisher[Tracking]
}

// Controller is the tracker's mutable state: the current path, how much
// of it has been consumed, the two scalar limiters, and the previous
// odometry stamp for dt computation. All fields are guarded by mu; no
// method here calls another locking method on itself while holding the
// lock, so a plain non-recursive sync.Mutex suffices per spec.md §5's
// design note on the threaded reimplementation.
type Controller struct {
	mu sync.Mutex

	cfg        Config
	path       pathing.Path2D
	pathHeader string
	stepDone   int

	vLim limiter.VelAccLimitter
	wLim limiter.VelAccLimitter

	prevOdomStamp time.Time
	haveOdomStamp bool

	logger golog.Logger
	out    Outputs

	tickDuration     prometheus.Histogram
	statusTransition *prometheus.CounterVec
}

// NewController builds a Controller from cfg, registering its metrics
// against reg (may be nil to skip registration, e.g. in tests).
func NewController(cfg Config, logger golog.Logger, out Outputs, reg prometheus.Registerer) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid tracker config")
	}
	c := &Controller{
		cfg:    cfg,
		logger: logger,
		out:    out,
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_tick_duration_seconds",
			Help:    "Wall-clock duration of Controller.Control invocations.",
			Buckets: prometheus.DefBuckets,
		}),
		statusTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_status_total",
			Help: "Count of ticks by resulting PathStatus.",
		}, []string{"status"}),
	}
	if reg != nil {
		if err := reg.Register(c.tickDuration); err != nil {
			return nil, err
		}
		if err := reg.Register(c.statusTransition); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetPath replaces the tracked path, implicitly cancelling pursuit of
// whatever path preceded it, per spec.md §5.
func (c *Controller) SetPath(waypoints []spatial.Pose2D, header string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := pathing.New(waypoints, c.cfg.Epsilon)
	if err != nil {
		c.logger.Warnw("rejecting incoming path", "error", err)
		return err
	}
	c.path = p
	c.pathHeader = header
	c.stepDone = 0
	return nil
}

// SetSpeed overrides vel[0] (max_vel), the scalar "speed" input in spec.md §6.
func (c *Controller) SetSpeed(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.MaxVel = v
}

// UpdateConfig replaces the dynamic configuration surface in place.
func (c *Controller) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	return nil
}

// Shutdown emits one final zero-velocity command, per spec.md §5.
func (c *Controller) Shutdown() {
	pubsub.Publish(c.out.CmdVel, Twist{})
}

// Control runs one tick of the control law in spec.md §4.5 against the
// current robot pose expressed in the path's frame (the caller resolves
// the transform; this method is frame-agnostic). now is the tick's
// timestamp, used for the published Status/Tracking stamps.
func (c *Controller) Control(ctx context.Context, robot spatial.Pose2D, dt float64, now time.Time) {
	start := time.Now()
	defer func() {
		if c.tickDuration != nil {
			c.tickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.controlLocked(robot, dt, now)
	if c.statusTransition != nil {
		c.statusTransition.WithLabelValues(status.Code.String()).Inc()
	}
}

// controlLocked implements the control law; mu is held throughout by the
// caller.
func (c *Controller) controlLocked(robot spatial.Pose2D, dt float64, now time.Time) Status {
	cfg := c.cfg
	accLin, accAng := cfg.accToc()

	if c.path.Empty() {
		return c.emitLocked(Twist{}, now, 0, 0, NoPath)
	}

	// Step 1: lookahead origin.
	v := c.vLim.Get()
	w := c.wLim.Get()
	psi := w * cfg.LookForward / 2
	heading := robot.Yaw + psi
	originOffset := spatial.NewPoint2D(math.Cos(heading), math.Sin(heading)).Scale(v * cfg.LookForward)
	origin := robot.Pos.Add(originOffset)

	// Step 2: waypoint selection.
	begin := c.stepDone
	if begin < 1 {
		begin = 1
	}
	localGoal := c.path.FindLocalGoal(begin, c.path.Len(), cfg.AllowBackward)
	maxSearchRange := 0.0
	if c.stepDone > 0 {
		maxSearchRange = 1.0
	}
	nearest, ok := c.path.FindNearest(begin, localGoal+1, origin, maxSearchRange, cfg.Epsilon)
	if !ok && c.path.Len() == 1 {
		// A single waypoint has no segment: it is an in-place turn at that
		// waypoint (A == B below).
		nearest, ok = 0, true
	}
	if !ok {
		return c.emitLocked(Twist{}, now, 0, 0, NoPath)
	}

	// Step 3: geometric errors.
	prev := nearest - 1
	if prev < 0 {
		prev = 0
	}
	a := c.path.Waypoints[prev]
	b := c.path.Waypoints[nearest]
	posOnLine := spatial.Project(a.Pos, b.Pos, origin)
	distErr := spatial.SignedLineDistance(a.Pos, b.Pos, origin)
	theta := math.Atan2(b.Pos.Y-a.Pos.Y, b.Pos.X-a.Pos.X)

	remainLocal := c.path.RemainedDistance(nearest, localGoal, posOnLine)
	remain := c.path.RemainedDistance(nearest, c.path.Len()-1, posOnLine)
	if c.path.Length() < cfg.NoPosControlDist {
		remain, remainLocal = 0, 0
	}

	angle := spatial.NormalizeAngle(-theta + robot.Yaw)
	segHeading := spatial.NewPoint2D(math.Cos(theta), math.Sin(theta))
	pathYawHeading := b.HeadingVector()
	signVel := 1.0
	if segHeading.Dot(pathYawHeading) < 0 {
		signVel = -1
		angle += math.Pi
	}
	angle = spatial.NormalizeAngle(angle)

	// Step 4: mode selection.
	inPlaceTurn := b.Pos.Sub(a.Pos).Norm() < cfg.Epsilon
	largeAngleError := math.Abs(cfg.RotateAng) < math.Pi && math.Cos(cfg.RotateAng) > math.Cos(angle)

	arriveLocalGoal := false
	var twist Twist
	if largeAngleError || math.Abs(remainLocal) < cfg.StopToleranceDist || c.path.Length() < cfg.MinTrackingPath || inPlaceTurn {
		// Rotate-in-place mode.
		if inPlaceTurn {
			// No segment heading exists: turn toward the waypoint's own yaw.
			angle = spatial.NormalizeAngle(robot.Yaw - b.Yaw)
		}
		twist.Linear = c.vLim.Set(0, cfg.MaxVel, accLin, dt)
		twist.Angular = c.wLim.Set(limiter.TimeOptimalControl(angle+w*dt*1.5, accAng), cfg.MaxAngvel, cfg.MaxAngacc, dt)

		if c.path.Length() < cfg.StopToleranceDist || inPlaceTurn {
			remain = 0
		}
		if (c.path.Length() < cfg.MinTrackingPath || math.Abs(remainLocal) < cfg.StopToleranceDist || inPlaceTurn) && localGoal < c.path.Len()-1 {
			arriveLocalGoal = true
			angle = spatial.NormalizeAngle(robot.Yaw - c.path.Waypoints[localGoal].Yaw)
		}
	} else {
		// Path-following mode.
		distFromPath := distErr
		if nearest == 0 {
			// Open question in spec.md §9 preserved verbatim: at the start
			// of the path the sign convention differs from the interior.
			distFromPath = -c.path.Waypoints[0].Pos.Distance(origin)
		}
		if math.Abs(distFromPath) > cfg.DistStop {
			return c.emitLocked(Twist{}, now, remain, angle, FarFromPath)
		}

		distErrClip := spatial.Clip(distErr, cfg.DistLim)

		linearVelTarget := cfg.MaxVel
		if b.Velocity != nil {
			linearVelTarget = *b.Velocity
		}
		twist.Linear = c.vLim.Set(limiter.TimeOptimalControl(-remainLocal*signVel, accLin), linearVelTarget, accLin, dt)

		curv := c.path.GetCurvature(nearest, localGoal, posOnLine, cfg.CurvForward)
		wref := math.Abs(c.vLim.Get()) * curv
		if cfg.LimitVelByAvel && math.Abs(wref) > cfg.MaxAngvel {
			if curv != 0 {
				c.vLim.Set(spatial.Sign(c.vLim.Get())*math.Abs(cfg.MaxAngvel/curv), linearVelTarget, accLin, dt)
			}
			wref = spatial.Sign(wref) * cfg.MaxAngvel
		}

		kAng := cfg.KAng
		if cfg.GainAtVel != 0 {
			kAng = cfg.KAng * linearVelTarget / cfg.GainAtVel
		}
		delta := dt * (-distErrClip*cfg.KDist - angle*kAng - (c.wLim.Get()-wref)*cfg.KAvel)
		twist.Angular = c.wLim.Increment(delta, cfg.MaxAngvel, accAng, dt)
	}

	// Step 6: advance path_step_done (ahead of step 5; neither reads the
	// other's result).
	if arriveLocalGoal {
		c.stepDone = localGoal
	} else if nearest-1 > c.stepDone {
		c.stepDone = nearest - 1
	}

	// Step 5: terminal check and emit.
	distanceRemains := remain
	angleRemains := angle
	if math.Abs(distanceRemains) < cfg.StopToleranceDist && math.Abs(angleRemains) < cfg.StopToleranceAng {
		c.vLim.Clear()
		c.wLim.Clear()
	}

	status := Following
	if math.Abs(distanceRemains) < cfg.GoalToleranceDist && math.Abs(angleRemains) < cfg.GoalToleranceAng && localGoal == c.path.Len()-1 {
		status = Goal
	}

	pubsub.Publish(c.out.Tracking, Tracking{
		Pose:  spatial.Pose2D{Pos: posOnLine, Yaw: -angle},
		Stamp: now,
	})
	return c.emitLocked(twist, now, distanceRemains, angleRemains, status)
}

// emitLocked publishes the twist and status and returns the status for
// the caller's metrics bookkeeping.
func (c *Controller) emitLocked(twist Twist, now time.Time, distanceRemains, angleRemains float64, code PathStatus) Status {
	pubsub.Publish(c.out.CmdVel, twist)
	s := Status{
		Stamp:           now,
		PathHeader:      c.pathHeader,
		DistanceRemains: distanceRemains,
		AngleRemains:    angleRemains,
		Code:            code,
	}
	pubsub.Publish(c.out.Status, s)
	return s
}

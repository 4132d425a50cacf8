package tracker

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Config bundles every dynamic, runtime-adjustable parameter named in
// spec.md §6 plus the startup-only fields (frame_robot, frame_odom, hz,
// use_odom, predict_odom, max_dt).
type Config struct {
	// Startup-only.
	FrameRobot  string        `mapstructure:"frame_robot"`
	FrameOdom   string        `mapstructure:"frame_odom"`
	Hz          float64       `mapstructure:"hz"`
	UseOdom     bool          `mapstructure:"use_odom"`
	PredictOdom bool          `mapstructure:"predict_odom"`
	MaxDt       time.Duration `mapstructure:"max_dt"`

	// Dynamic, runtime-adjustable.
	LookForward       float64 `mapstructure:"look_forward"`
	CurvForward       float64 `mapstructure:"curv_forward"`
	KDist             float64 `mapstructure:"k_dist"`
	KAng              float64 `mapstructure:"k_ang"`
	KAvel             float64 `mapstructure:"k_avel"`
	GainAtVel         float64 `mapstructure:"gain_at_vel"`
	DistLim           float64 `mapstructure:"dist_lim"`
	DistStop          float64 `mapstructure:"dist_stop"`
	RotateAng         float64 `mapstructure:"rotate_ang"`
	MaxVel            float64 `mapstructure:"max_vel"`
	MaxAngvel         float64 `mapstructure:"max_angvel"`
	MaxAcc            float64 `mapstructure:"max_acc"`
	MaxAngacc         float64 `mapstructure:"max_angacc"`
	AccTocFactor      float64 `mapstructure:"acc_toc_factor"`
	AngaccTocFactor   float64 `mapstructure:"angacc_toc_factor"`
	// PathStep is accepted to keep the dynamic-configuration surface
	// complete but intentionally unused: see DESIGN.md's "path_step is an
	// intentional no-op" entry.
	PathStep          int     `mapstructure:"path_step"`
	GoalToleranceDist float64 `mapstructure:"goal_tolerance_dist"`
	GoalToleranceAng  float64 `mapstructure:"goal_tolerance_ang"`
	StopToleranceDist float64 `mapstructure:"stop_tolerance_dist"`
	StopToleranceAng  float64 `mapstructure:"stop_tolerance_ang"`
	NoPosControlDist  float64 `mapstructure:"no_position_control_dist"`
	MinTrackingPath   float64 `mapstructure:"min_tracking_path"`
	AllowBackward     bool    `mapstructure:"allow_backward"`
	LimitVelByAvel    bool    `mapstructure:"limit_vel_by_avel"`
	CheckOldPath      bool    `mapstructure:"check_old_path"`
	Epsilon           float64 `mapstructure:"epsilon"`
}

// DefaultConfig returns a Config with the startup defaults from
// spec.md §6 (frame_robot=base_link, frame_odom=odom, hz=50) and
// reasonable dynamic defaults; tune per-robot before use.
func DefaultConfig() Config {
	return Config{
		FrameRobot: "base_link",
		FrameOdom:  "odom",
		Hz:         50,
		MaxDt:      100 * time.Millisecond,

		LookForward:       0.5,
		CurvForward:       0.5,
		KDist:             1.0,
		KAng:              1.0,
		KAvel:             0.0,
		GainAtVel:         0,
		DistLim:           0.5,
		DistStop:          1.0,
		RotateAng:         math1_57,
		MaxVel:            0.5,
		MaxAngvel:         1.0,
		MaxAcc:            0.5,
		MaxAngacc:         1.0,
		AccTocFactor:      1.0,
		AngaccTocFactor:   1.0,
		PathStep:          1,
		GoalToleranceDist: 0.1,
		GoalToleranceAng:  0.1,
		StopToleranceDist: 0.1,
		StopToleranceAng:  0.1,
		NoPosControlDist:  0,
		MinTrackingPath:   0.1,
		AllowBackward:     true,
		LimitVelByAvel:    false,
		CheckOldPath:      true,
		Epsilon:           1e-3,
	}
}

// math1_57 avoids importing "math" solely for a default literal; kept as
// a named constant since rotate_ang's conventional default is pi/2.
const math1_57 = 1.5707963267948966

// DecodeConfig decodes an attribute bag into a Config over
// DefaultConfig's values.
func DecodeConfig(attrs map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(attrs); err != nil {
		return Config{}, errors.Wrap(err, "decoding tracker config")
	}
	return cfg, nil
}

// Validate checks the configuration-fatal invariants: hz, max_acc,
// max_angacc and epsilon must be positive. max_dt is not checked.
func (c Config) Validate() error {
	if c.Hz <= 0 {
		return errors.New("hz must be positive")
	}
	if c.MaxAcc <= 0 || c.MaxAngacc <= 0 {
		return errors.New("max_acc and max_angacc must be positive")
	}
	if c.Epsilon <= 0 {
		return errors.New("epsilon must be positive")
	}
	return nil
}

// accToc returns (linear, angular) time-optimal-control acceleration
// bounds, i.e. max_acc/max_angacc scaled by their toc factors.
func (c Config) accToc() (linear, angular float64) {
	return c.MaxAcc * c.AccTocFactor, c.MaxAngacc * c.AngaccTocFactor
}

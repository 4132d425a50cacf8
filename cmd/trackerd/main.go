// Package main contains a command that runs the trajectory tracker: it
// loads a controller configuration and drives a timer-ticked control
// loop against a coordinate-frame lookup collaborator.
package main

import (
	"context"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"github.com/merlinwwu/neonavigation/spatial"
	"github.com/merlinwwu/neonavigation/tracker"
	"github.com/merlinwwu/neonavigation/transform"
)

var logger = golog.NewDevelopmentLogger("trackerd")

func main() {
	utils.ContextualMainQuit(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigPath string `flag:"config,usage=path to tracker YAML config"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.ConfigPath == "" {
		return errors.New("-config is required")
	}

	cfg, err := loadConfig(argsParsed.ConfigPath)
	if err != nil {
		return errors.Wrap(err, "loading tracker config")
	}

	out := tracker.Outputs{
		CmdVel:   func(t tracker.Twist) { logger.Debugw("cmd_vel", "linear", t.Linear, "angular", t.Angular) },
		Status:   func(s tracker.Status) { logger.Debugw("status", "code", s.Code.String(), "distance_remains", s.DistanceRemains) },
		Tracking: func(t tracker.Tracking) {},
	}
	ctrl, err := tracker.NewController(cfg, logger, out, prometheus.DefaultRegisterer)
	if err != nil {
		return errors.Wrap(err, "constructing tracker controller")
	}
	defer ctrl.Shutdown()

	// A stub lookup: a real deployment wires this to an actual
	// coordinate-frame collaborator, per spec.md §1's external-collaborator
	// boundary. This keeps the identity transform so the binary runs
	// standalone for smoke testing.
	lookup := transform.LookupFunc(func(ctx context.Context, source, target transform.Frame, at time.Time) (transform.Stamped, error) {
		return transform.Stamped{Pose: spatial.NewPose2D(0, 0, 0), Stamp: at}, nil
	})

	utils.ContextMainReadyFunc(ctx)()

	period := time.Duration(float64(time.Second) / cfg.Hz)
	for utils.SelectContextOrWait(ctx, period) {
		ctrl.TickTimer(ctx, lookup, time.Now())
	}
	return nil
}

func loadConfig(path string) (tracker.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return tracker.Config{}, err
	}
	defer f.Close()

	var raw map[string]interface{}
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil {
		return tracker.Config{}, err
	}
	cfg, err := tracker.DecodeConfig(raw)
	if err != nil {
		return tracker.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return tracker.Config{}, err
	}
	return cfg, nil
}

// Package main contains a command that constructs the C-space costmap
// pipeline from a YAML configuration and logs the footprint once a
// second. It subscribes to no base-map or overlay input and publishes no
// debug point cloud.
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

	"github.com/merlinwwu/neonavigation/costmap"
)

var logger = golog.NewDevelopmentLogger("costmapd")

func main() {
	utils.ContextualMainQuit(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigPath string `flag:"config,usage=path to costmap pipeline YAML config"`
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
		return errors.Wrap(err, "loading costmap config")
	}

	pipeline, err := costmap.NewPipelineFromConfig(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return errors.Wrap(err, "constructing costmap pipeline")
	}

	utils.ContextMainReadyFunc(ctx)()

	ticker := time.NewTicker(time.Second) // 1 Hz footprint republication, per spec.md §4.8.
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			logger.Debugw("republishing footprint", "footprint", pipeline.Footprint())
		}
	}
}

func loadConfig(path string) (costmap.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return costmap.Config{}, err
	}
	defer f.Close()

	var raw map[string]interface{}
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil {
		return costmap.Config{}, err
	}
	cfg, err := costmap.DecodeConfig(raw)
	if err != nil {
		return costmap.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return costmap.Config{}, err
	}
	return cfg, nil
}

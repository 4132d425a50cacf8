package costmap

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// FootprintVertex is one vertex of the startup footprint configuration.
// DecodeConfig fills it from a map entry with keys x, y and optional
// maxspeed (matched case-insensitively); a list entry such as [x, y] is
// not decoded and makes DecodeConfig return an error. MaxSpeed is not
// read by any code in this module.
type FootprintVertex struct {
	X, Y     float64
	MaxSpeed *float64
}

// Config is the startup configuration for a costmap Pipeline, per
// spec.md §6.
type Config struct {
	AngResolution int               `mapstructure:"ang_resolution"`
	LinearExpand  float64           `mapstructure:"linear_expand"`
	LinearSpread  float64           `mapstructure:"linear_spread"`
	OverlayMode   string            `mapstructure:"overlay_mode"`
	Footprint     []FootprintVertex `mapstructure:"footprint"`
	Overlays      []string          `mapstructure:"overlays"`
}

// DefaultConfig returns a Config with spec.md's defaults applied; callers
// still must supply a Footprint.
func DefaultConfig() Config {
	return Config{
		AngResolution: 16,
		OverlayMode:   "max",
	}
}

// DecodeConfig decodes an attribute bag (as would arrive from a
// generic YAML/JSON configuration document) into a Config, matching the
// AttributeMap decoding idiom used across go.viam.com/rdk components.
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
		return Config{}, errors.Wrap(err, "decoding costmap config")
	}
	return cfg, nil
}

// Validate checks the configuration-fatal invariants from spec.md §7:
// missing footprint, unknown overlay mode, non-positive ang_resolution.
func (c Config) Validate() error {
	if c.AngResolution <= 0 {
		return errors.New("ang_resolution must be positive")
	}
	if len(c.Footprint) == 0 {
		return errors.New("footprint must have at least one vertex")
	}
	if _, err := ParseOverlayMode(c.OverlayMode); err != nil {
		return err
	}
	return nil
}

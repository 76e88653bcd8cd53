package config

import (
	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/Faultbox/midgard-spatial/internal/logger"
)

// ErrTypeInvalidConfig is the error type of validation failures.
const ErrTypeInvalidConfig = "invalid_config"

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if err := c.Partition.ToCoordinatorConfig().Validate(); err != nil {
		return errors.New("invalid partition config").
			WithType(ErrTypeInvalidConfig).
			Wrap(err)
	}
	if c.Sim.Actors < 0 {
		return errors.New("actor count must not be negative").
			WithType(ErrTypeInvalidConfig).
			WithTag("actors", c.Sim.Actors)
	}
	if c.Sim.Frames < 1 {
		return errors.New("frame count must be at least 1").
			WithType(ErrTypeInvalidConfig).
			WithTag("frames", c.Sim.Frames)
	}
	if c.Sim.FPS < 0 {
		return errors.New("fps must not be negative").
			WithType(ErrTypeInvalidConfig).
			WithTag("fps", c.Sim.FPS)
	}
	if c.Sim.MoveFraction < 0 || c.Sim.MoveFraction > 1 {
		return errors.New("move fraction must be within [0, 1]").
			WithType(ErrTypeInvalidConfig).
			WithTag("move_fraction", c.Sim.MoveFraction)
	}
	if c.Sim.Viewport[0] < 1 || c.Sim.Viewport[1] < 1 {
		return errors.New("viewport must not be empty").
			WithType(ErrTypeInvalidConfig).
			WithTag("viewport", c.Sim.Viewport)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics address is required when metrics are enabled").
			WithType(ErrTypeInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return errors.New("invalid log level").
			WithType(ErrTypeInvalidConfig).
			WithTag("level", c.Logging.Level).
			Wrap(err)
	}
	switch c.Logging.Format {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		return errors.New("invalid log format").
			WithType(ErrTypeInvalidConfig).
			WithTag("format", c.Logging.Format)
	}
	return nil
}

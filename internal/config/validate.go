package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if c.Autosave.Dir == "" {
		return errors.New("autosave.dir must be set")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateCamera() error {
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0, got %d", c.Camera.Device)
	}
	if err := c.CameraUpdate().Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	switch c.Camera.ExposureMode {
	case "auto", "off":
	default:
		return fmt.Errorf("camera.exposure_mode must be \"auto\" or \"off\", got %q", c.Camera.ExposureMode)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		return fmt.Errorf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height)
	}
	switch c.Preview.DisplayMode {
	case "now", "average", "diff":
	default:
		return fmt.Errorf("preview.display_mode must be now, average or diff, got %q", c.Preview.DisplayMode)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.BlendFactor <= 0 || c.Pipeline.BlendFactor > 1 {
		return fmt.Errorf("pipeline.blend_factor must be in (0, 1], got %v", c.Pipeline.BlendFactor)
	}
	if c.Pipeline.DiffGain <= 0 {
		return fmt.Errorf("pipeline.diff_gain must be positive, got %v", c.Pipeline.DiffGain)
	}
	if c.Pipeline.MinIntervalMS < 0 {
		return fmt.Errorf("pipeline.min_interval_ms must be >= 0, got %d", c.Pipeline.MinIntervalMS)
	}
	return nil
}

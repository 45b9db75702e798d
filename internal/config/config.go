package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dudu/livecam/internal/camera"
)

//go:embed sample_config.toml
var sampleConfig string

// Camera contains capture device settings applied at start.
type Camera struct {
	Device       int    `toml:"device"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	SensorMode   int    `toml:"sensor_mode"`   // 0 keeps the driver default
	Exposure     int    `toml:"exposure"`      // milliseconds, 0 = automatic
	ISO          int    `toml:"iso"`           // 0 = automatic
	ExposureMode string `toml:"exposure_mode"` // "auto" or "off"
	Rotation     int    `toml:"rotation"`
	LockDir      string `toml:"lock_dir"`
}

// Preview contains the preview window settings.
type Preview struct {
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	DisplayMode string `toml:"display_mode"`
	Live        bool   `toml:"live"`
	Window      bool   `toml:"window"`
}

// Pipeline contains tuning for the derived images.
type Pipeline struct {
	BlendFactor   float64 `toml:"blend_factor"`
	DiffGain      float64 `toml:"diff_gain"`
	MinIntervalMS int     `toml:"min_interval_ms"`
}

// Autosave contains settings for saving full resolution frames.
type Autosave struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Config encapsulates all configuration values for livecam.
type Config struct {
	Camera   Camera   `toml:"camera"`
	Preview  Preview  `toml:"preview"`
	Pipeline Pipeline `toml:"pipeline"`
	Autosave Autosave `toml:"autosave"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load parses and validates a configuration file. An empty path uses the
// default location. A missing file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		path = defaultConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config already exists at %s", resolved)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() (string, error) {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return sb.String(), nil
}

// CameraUpdate returns the camera settings as an update for the device.
// Zero valued optional settings are left to the driver.
func (c *Config) CameraUpdate() camera.ConfigUpdate {
	update := camera.ConfigUpdate{
		Resolution: &camera.Resolution{Width: c.Camera.Width, Height: c.Camera.Height},
		Exposure:   camera.Int(c.Camera.Exposure),
		Mode:       camera.String(c.Camera.ExposureMode),
		Rotation:   camera.Int(c.Camera.Rotation),
	}
	if c.Camera.SensorMode != 0 {
		update.SensorMode = camera.Int(c.Camera.SensorMode)
	}
	if c.Camera.ISO != 0 {
		update.ISO = camera.Int(c.Camera.ISO)
	}
	return update
}

// MinInterval is the capture rate cap as a duration.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Pipeline.MinIntervalMS) * time.Millisecond
}

func (c *Config) normalize() error {
	c.Preview.DisplayMode = strings.ToLower(strings.TrimSpace(c.Preview.DisplayMode))
	c.Camera.ExposureMode = strings.ToLower(strings.TrimSpace(c.Camera.ExposureMode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	var err error
	if c.Autosave.Dir, err = expandPath(c.Autosave.Dir); err != nil {
		return fmt.Errorf("autosave.dir: %w", err)
	}
	if c.Camera.LockDir, err = expandPath(c.Camera.LockDir); err != nil {
		return fmt.Errorf("camera.lock_dir: %w", err)
	}
	if out := c.Logging.Output; out != "stdout" && out != "stderr" && out != "" {
		if c.Logging.Output, err = expandPath(out); err != nil {
			return fmt.Errorf("logging.output: %w", err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

package camera

import (
	"fmt"
	"strings"
)

// Resolution is a frame size in pixels
type Resolution struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Exposure modes understood by ApplyConfig
const (
	ModeAuto   = "auto"
	ModeManual = "off"
)

// ConfigUpdate is a sparse set of camera settings.
// Nil fields leave the current device setting untouched.
type ConfigUpdate struct {
	Resolution *Resolution
	SensorMode *int
	Exposure   *int // milliseconds, 0 = automatic
	ISO        *int
	Mode       *string
	Rotation   *int // degrees clockwise: 0, 90, 180 or 270
}

// Empty reports whether the update carries no settings
func (c ConfigUpdate) Empty() bool {
	return c.Resolution == nil && c.SensorMode == nil && c.Exposure == nil &&
		c.ISO == nil && c.Mode == nil && c.Rotation == nil
}

// Validate checks field ranges without touching the device
func (c ConfigUpdate) Validate() error {
	if c.Resolution != nil && (c.Resolution.Width <= 0 || c.Resolution.Height <= 0) {
		return fmt.Errorf("invalid resolution %s", c.Resolution)
	}
	if c.Exposure != nil && *c.Exposure < 0 {
		return fmt.Errorf("invalid exposure %dms", *c.Exposure)
	}
	if c.ISO != nil && *c.ISO < 0 {
		return fmt.Errorf("invalid iso %d", *c.ISO)
	}
	if c.Rotation != nil {
		switch *c.Rotation {
		case 0, 90, 180, 270:
		default:
			return fmt.Errorf("invalid rotation %d (use 0, 90, 180 or 270)", *c.Rotation)
		}
	}
	return nil
}

// String renders only the fields that are set
func (c ConfigUpdate) String() string {
	var parts []string
	if c.Resolution != nil {
		parts = append(parts, "resolution="+c.Resolution.String())
	}
	if c.SensorMode != nil {
		parts = append(parts, fmt.Sprintf("sensor_mode=%d", *c.SensorMode))
	}
	if c.Exposure != nil {
		parts = append(parts, fmt.Sprintf("exposure=%dms", *c.Exposure))
	}
	if c.ISO != nil {
		parts = append(parts, fmt.Sprintf("iso=%d", *c.ISO))
	}
	if c.Mode != nil {
		parts = append(parts, "mode="+*c.Mode)
	}
	if c.Rotation != nil {
		parts = append(parts, fmt.Sprintf("rotation=%d", *c.Rotation))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Int returns a pointer to v, for building updates
func Int(v int) *int { return &v }

// String returns a pointer to v, for building updates
func String(v string) *string { return &v }

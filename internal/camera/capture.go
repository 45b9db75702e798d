package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrClosed is returned once the device has been released
	ErrClosed = errors.New("camera closed")
	// ErrNoFrame is returned when the device delivers no image
	ErrNoFrame = errors.New("camera returned no frame")
)

const (
	defaultFPS = 30

	// V4L2 auto exposure values as seen through OpenCV
	autoExposureOn  = 0.75
	autoExposureOff = 0.25
)

// videoSource is the part of gocv.VideoCapture the device drives
type videoSource interface {
	Set(prop gocv.VideoCaptureProperties, param float64)
	Get(prop gocv.VideoCaptureProperties) float64
	Read(m *gocv.Mat) bool
	Close() error
}

// Device manages a gocv capture device
type Device struct {
	webcam   videoSource
	deviceID int
	width    int
	height   int
	rotation int
	logger   *slog.Logger
	mu       sync.Mutex
}

// Open opens the camera with the given index and initial settings
func Open(deviceID int, initial ConfigUpdate, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}

	d := newDevice(webcam, deviceID, logger)
	if !initial.Empty() {
		if err := d.ApplyConfig(initial); err != nil {
			d.logger.Warn("initial camera settings not fully applied", "error", err)
		}
	}
	return d, nil
}

func newDevice(src videoSource, deviceID int, logger *slog.Logger) *Device {
	d := &Device{
		webcam:   src,
		deviceID: deviceID,
		logger:   logger.With("component", "camera", "device", deviceID),
	}
	d.readSize()
	return d
}

// ApplyConfig programs every field present in the update. The resolution
// goes first; if the driver does not take it the previous size is restored
// and nothing else in the update is applied.
func (d *Device) ApplyConfig(c ConfigUpdate) error {
	if err := c.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.webcam == nil {
		return ErrClosed
	}

	if c.Resolution != nil {
		if err := d.setResolution(*c.Resolution); err != nil {
			return err
		}
	}
	if c.SensorMode != nil {
		d.webcam.Set(gocv.VideoCaptureMode, float64(*c.SensorMode))
	}
	if c.Mode != nil {
		// Anything other than auto means the exposure is driven manually
		value := autoExposureOff
		if *c.Mode == ModeAuto {
			value = autoExposureOn
		}
		d.webcam.Set(gocv.VideoCaptureAutoExposure, value)
	}
	if c.Exposure != nil {
		// Long exposures need a frame rate slow enough to fit them
		fps := float64(defaultFPS)
		if *c.Exposure > 0 {
			fps = 1000 / float64(*c.Exposure)
			// Exposure is in units of 100µs
			d.webcam.Set(gocv.VideoCaptureExposure, float64(*c.Exposure*10))
		}
		d.webcam.Set(gocv.VideoCaptureFPS, fps)
	}
	if c.ISO != nil {
		d.webcam.Set(gocv.VideoCaptureISOSpeed, float64(*c.ISO))
	}
	if c.Rotation != nil {
		d.rotation = *c.Rotation
	}

	d.logger.Debug("camera settings applied", "update", c.String())
	return nil
}

// setResolution switches the frame size and rolls back if the driver
// reports anything else. Callers hold mu.
func (d *Device) setResolution(r Resolution) error {
	prevWidth, prevHeight := d.width, d.height

	d.webcam.Set(gocv.VideoCaptureFrameWidth, float64(r.Width))
	d.webcam.Set(gocv.VideoCaptureFrameHeight, float64(r.Height))
	d.readSize()
	if d.width == r.Width && d.height == r.Height {
		return nil
	}

	gotWidth, gotHeight := d.width, d.height
	d.webcam.Set(gocv.VideoCaptureFrameWidth, float64(prevWidth))
	d.webcam.Set(gocv.VideoCaptureFrameHeight, float64(prevHeight))
	d.readSize()

	err := fmt.Errorf("resolution %s not supported, camera reports %dx%d", r, gotWidth, gotHeight)
	if d.width != prevWidth || d.height != prevHeight {
		err = errors.Join(err, fmt.Errorf("could not restore %dx%d, camera now at %dx%d",
			prevWidth, prevHeight, d.width, d.height))
	}
	return err
}

// CaptureImage grabs one frame. The caller owns the returned Mat.
func (d *Device) CaptureImage() (gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.webcam == nil {
		return gocv.NewMat(), ErrClosed
	}

	frame := gocv.NewMat()
	if !d.webcam.Read(&frame) || frame.Empty() {
		frame.Close()
		return gocv.NewMat(), ErrNoFrame
	}

	if flag, ok := rotateFlag(d.rotation); ok {
		rotated := gocv.NewMat()
		gocv.Rotate(frame, &rotated, flag)
		frame.Close()
		frame = rotated
	}
	return frame, nil
}

// Calibrate waits for the automatic gain and exposure to settle. It polls
// once per interval and stops when two consecutive non-zero readings match
// or after rounds polls.
func (d *Device) Calibrate(ctx context.Context, interval time.Duration, rounds int) (Reading, error) {
	var prev Reading
	for i := 0; i < rounds; i++ {
		select {
		case <-ctx.Done():
			return prev, ctx.Err()
		case <-time.After(interval):
		}

		cur, err := d.Read()
		if err != nil {
			return prev, err
		}
		d.logger.Info("calibrating",
			"round", i,
			"gain", cur.Gain,
			"exposure", cur.Exposure,
		)

		if cur == prev && cur.Gain != 0 && cur.Exposure != 0 {
			return cur, nil
		}
		prev = cur
	}
	return prev, fmt.Errorf("camera did not settle after %d rounds", rounds)
}

// Reading is a snapshot of the automatic exposure controls
type Reading struct {
	Gain     float64
	Exposure float64
	ISO      float64
}

// Read returns the current gain and exposure as reported by the driver
func (d *Device) Read() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.webcam == nil {
		return Reading{}, ErrClosed
	}
	return Reading{
		Gain:     d.webcam.Get(gocv.VideoCaptureGain),
		Exposure: d.webcam.Get(gocv.VideoCaptureExposure),
		ISO:      d.webcam.Get(gocv.VideoCaptureISOSpeed),
	}, nil
}

// readSize refreshes the cached frame size; callers hold mu
func (d *Device) readSize() {
	d.width = int(d.webcam.Get(gocv.VideoCaptureFrameWidth))
	d.height = int(d.webcam.Get(gocv.VideoCaptureFrameHeight))
}

// Width returns frame width
func (d *Device) Width() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width
}

// Height returns frame height
func (d *Device) Height() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.height
}

// Close releases the camera
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.webcam != nil {
		err := d.webcam.Close()
		d.webcam = nil
		return err
	}
	return nil
}

func rotateFlag(degrees int) (gocv.RotateFlag, bool) {
	switch degrees {
	case 90:
		return gocv.Rotate90Clockwise, true
	case 180:
		return gocv.Rotate180Clockwise, true
	case 270:
		return gocv.Rotate90CounterClockwise, true
	}
	return 0, false
}

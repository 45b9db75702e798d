package pipeline

import (
	"gocv.io/x/gocv"

	"github.com/dudu/livecam/internal/camera"
)

// Device is the capture hardware
type Device interface {
	ApplyConfig(update camera.ConfigUpdate) error
	CaptureImage() (gocv.Mat, error)
}

// Renderer receives every displayed image. It is called from the display
// worker and must not keep img after returning.
type Renderer interface {
	Render(img gocv.Mat, timestamp string)
}

// Store persists full resolution frames
type Store interface {
	Write(path string, img gocv.Mat) error
}

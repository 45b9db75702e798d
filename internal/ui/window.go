package ui

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Window manages the preview display. Render may be called from any
// goroutine; Show and WaitKey must run on the thread that owns the window.
type Window struct {
	window *gocv.Window
	name   string
	frames *FrameSlot

	lastFrame  time.Time
	frameCount int
	fps        float64
	status     string
}

// NewWindow creates a new preview window
func NewWindow(name string, width, height int) *Window {
	window := gocv.NewWindow(name)
	// Force window to appear on macOS
	window.ResizeWindow(width, height)
	window.MoveWindow(100, 100)
	return &Window{
		window:    window,
		name:      name,
		frames:    NewFrameSlot(),
		lastFrame: time.Now(),
	}
}

// Render queues img for the next Show
func (w *Window) Render(img gocv.Mat, timestamp string) {
	w.frames.Render(img, timestamp)
}

// SetStatus sets the line drawn under the timestamp
func (w *Window) SetStatus(status string) {
	w.status = status
}

// Show draws the latest rendered frame, if a new one arrived
func (w *Window) Show() bool {
	frame, timestamp, ok := w.frames.Take()
	if !ok {
		return false
	}
	defer frame.Close()

	// Draw on a colour copy so grey diff frames can carry coloured text
	canvas := gocv.NewMat()
	defer canvas.Close()
	if frame.Channels() == 1 {
		gocv.CvtColor(frame, &canvas, gocv.ColorGrayToBGR)
	} else {
		frame.CopyTo(&canvas)
	}

	w.frameCount++
	now := time.Now()

	// Calculate FPS every second
	elapsed := now.Sub(w.lastFrame)
	if elapsed >= time.Second {
		w.fps = float64(w.frameCount) / elapsed.Seconds()
		w.frameCount = 0
		w.lastFrame = now
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.PutText(&canvas, timestamp, image.Pt(20, 30),
		gocv.FontHersheyPlain, 1.5, white, 2)
	if w.status != "" {
		gocv.PutText(&canvas, w.status, image.Pt(20, 55),
			gocv.FontHersheyPlain, 1.2, white, 1)
	}
	fpsText := fmt.Sprintf("FPS: %.1f", w.fps)
	gocv.PutText(&canvas, fpsText, image.Pt(20, canvas.Rows()-15),
		gocv.FontHersheyPlain, 1.2, color.RGBA{R: 0, G: 255, B: 0, A: 255}, 1)

	w.window.IMShow(canvas)
	return true
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// FPS returns current frames per second
func (w *Window) FPS() float64 {
	return w.fps
}

// Close closes the window
func (w *Window) Close() error {
	w.frames.Close()
	if w.window != nil {
		return w.window.Close()
	}
	return nil
}

// FrameSlot holds the most recent rendered frame until the UI thread picks
// it up. A newer frame replaces one that was never shown.
type FrameSlot struct {
	mu        sync.Mutex
	frame     gocv.Mat
	timestamp string
	fresh     bool
	dropped   uint64
}

// NewFrameSlot returns an empty slot
func NewFrameSlot() *FrameSlot {
	return &FrameSlot{frame: gocv.NewMat()}
}

// Render copies img into the slot
func (s *FrameSlot) Render(img gocv.Mat, timestamp string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fresh {
		s.dropped++
	}
	img.CopyTo(&s.frame)
	s.timestamp = timestamp
	s.fresh = true
}

// Take returns a copy of the pending frame. ok is false when nothing new
// arrived since the last call. The caller owns the returned Mat.
func (s *FrameSlot) Take() (frame gocv.Mat, timestamp string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fresh {
		return gocv.Mat{}, "", false
	}
	s.fresh = false
	return s.frame.Clone(), s.timestamp, true
}

// Dropped counts frames replaced before they were shown
func (s *FrameSlot) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close releases the held frame
func (s *FrameSlot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Close()
	s.fresh = false
}

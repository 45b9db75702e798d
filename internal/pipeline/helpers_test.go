package pipeline

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/dudu/livecam/internal/camera"
	"github.com/dudu/livecam/internal/logging"
)

const waitTimeout = 5 * time.Second

// fakeDevice produces synthetic frames and records every call in order
type fakeDevice struct {
	mu       sync.Mutex
	calls    []string
	captures int
	width    int
	height   int
	// frame builds the n-th frame; nil means uniform grey
	frame    func(n int, width, height int) gocv.Mat
	failNext int
	// panicNext and emptyNext make the next captures panic or return a
	// zero Mat with no error
	panicNext int
	emptyNext int
	applyErr  error
}

func newFakeDevice(width, height int) *fakeDevice {
	return &fakeDevice{width: width, height: height}
}

func (d *fakeDevice) ApplyConfig(update camera.ConfigUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "apply "+update.String())
	return d.applyErr
}

func (d *fakeDevice) CaptureImage() (gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "capture")
	n := d.captures
	d.captures++

	if d.panicNext > 0 {
		d.panicNext--
		panic("driver fault")
	}
	if d.emptyNext > 0 {
		d.emptyNext--
		return gocv.Mat{}, nil
	}
	if d.failNext > 0 {
		d.failNext--
		return gocv.NewMat(), errors.New("sensor timeout")
	}
	if d.frame != nil {
		return d.frame(n, d.width, d.height), nil
	}
	return uniformFrame(128, d.width, d.height), nil
}

func (d *fakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDevice) Captures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.captures
}

type rendered struct {
	img       gocv.Mat
	timestamp string
}

// fakeRenderer keeps a copy of every rendered image. A non-nil gate blocks
// Render until the gate is closed.
type fakeRenderer struct {
	ch   chan rendered
	gate chan struct{}
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{ch: make(chan rendered, 64)}
}

func (r *fakeRenderer) Render(img gocv.Mat, timestamp string) {
	if r.gate != nil {
		<-r.gate
	}
	c := img.Clone()
	select {
	case r.ch <- rendered{img: c, timestamp: timestamp}:
	default:
		// Live tests render faster than they read; never stall the display
		c.Close()
	}
}

func (r *fakeRenderer) next(t *testing.T) rendered {
	t.Helper()
	select {
	case got := <-r.ch:
		t.Cleanup(func() { got.img.Close() })
		return got
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for render")
	}
	return rendered{}
}

func (r *fakeRenderer) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case got := <-r.ch:
		got.img.Close()
		t.Fatalf("unexpected render at %s", got.timestamp)
	case <-time.After(wait):
	}
}

type saved struct {
	path   string
	width  int
	height int
}

type fakeStore struct {
	mu     sync.Mutex
	writes []saved
	err    error
}

func (s *fakeStore) Write(path string, img gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, saved{path: path, width: img.Cols(), height: img.Rows()})
	return nil
}

func (s *fakeStore) Writes() []saved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]saved(nil), s.writes...)
}

func uniformFrame(v float64, width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), height, width, gocv.MatTypeCV8UC3)
}

// splitFrame is dark with a bright left half
func splitFrame(dark, bright float64, width, height int) gocv.Mat {
	m := uniformFrame(dark, width, height)
	left := m.Region(image.Rect(0, 0, width/2, height))
	left.SetTo(gocv.NewScalar(bright, bright, bright, 0))
	left.Close()
	return m
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

type testPipeline struct {
	*Pipeline
	device   *fakeDevice
	renderer *fakeRenderer
	store    *fakeStore
}

func startPipeline(t *testing.T, cfg Config, device *fakeDevice) *testPipeline {
	t.Helper()
	renderer := newFakeRenderer()
	store := &fakeStore{}
	p, err := New(cfg, device, renderer, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		if renderer.gate != nil {
			select {
			case <-renderer.gate:
			default:
				close(renderer.gate)
			}
		}
		p.Stop()
	})
	return &testPipeline{Pipeline: p, device: device, renderer: renderer, store: store}
}

func stopWithin(t *testing.T, p *Pipeline, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("Stop did not return")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

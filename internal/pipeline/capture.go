package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"
)

// captureStage is the head of the chain: it turns controller requests into
// work items.
type captureStage struct {
	controller *Controller
	device     Device
	out        *Handoff
	counter    *stageCounter
	stats      *counters
	logger     *slog.Logger
	now        func() time.Time
}

func (s *captureStage) run() {
	defer func() {
		s.out.Close()
		s.logger.Debug("stage stopped")
	}()

	for {
		req, ok := s.controller.NextRequest()
		if !ok {
			return
		}
		s.out.Put(s.capture(req))
		s.counter.processed.Add(1)
	}
}

// capture applies any pending settings and grabs a frame. Device failures
// leave Raw nil.
func (s *captureStage) capture(req Request) *WorkItem {
	item := newWorkItem(req.Config)
	logger := s.logger.With("item", item.ID.String())

	if req.Config != nil {
		if err := s.device.ApplyConfig(*req.Config); err != nil {
			s.stats.configFailures.Add(1)
			logger.Warn("camera settings rejected, keeping previous", "update", req.Config.String(), "error", err)
		} else {
			s.stats.configApplied.Add(1)
			logger.Info("camera settings applied", "update", req.Config.String())
		}
	}

	start := s.now()
	frame, err := s.grab()
	item.CapturedAt = s.now()
	if err != nil {
		s.stats.captureFailures.Add(1)
		logger.Error("capture failed", "error", err)
		return item
	}

	s.stats.captures.Add(1)
	item.Raw = matPtr(frame)
	logger.Debug("frame captured",
		"width", frame.Cols(),
		"height", frame.Rows(),
		"duration", item.CapturedAt.Sub(start),
	)
	return item
}

// grab calls the device and turns a panic into an error so a misbehaving
// driver cannot take the worker down.
func (s *captureStage) grab() (frame gocv.Mat, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture panicked: %v", r)
		}
	}()

	frame, err = s.device.CaptureImage()
	if err != nil {
		closeMat(frame)
		return gocv.Mat{}, err
	}
	if !present(frame) {
		closeMat(frame)
		return gocv.Mat{}, fmt.Errorf("empty frame")
	}
	return frame, nil
}

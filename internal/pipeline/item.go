package pipeline

import (
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/dudu/livecam/internal/camera"
)

// WorkItem is the per-capture bundle that travels down the pipeline.
// A nil Mat means the image is absent. Exactly one stage owns an item at a time.
type WorkItem struct {
	ID         uuid.UUID
	Raw        *gocv.Mat
	Thumbnail  *gocv.Mat
	Average    *gocv.Mat
	Diff       *gocv.Mat
	Timestamp  string
	Config     *camera.ConfigUpdate
	CapturedAt time.Time
}

func newWorkItem(config *camera.ConfigUpdate) *WorkItem {
	return &WorkItem{
		ID:     uuid.New(),
		Config: config,
	}
}

// Close releases every image the item holds
func (w *WorkItem) Close() {
	for _, m := range []**gocv.Mat{&w.Raw, &w.Thumbnail, &w.Average, &w.Diff} {
		if *m != nil {
			(*m).Close()
			*m = nil
		}
	}
}

func matPtr(m gocv.Mat) *gocv.Mat {
	return &m
}

// present reports whether m holds image data. A zero Mat has no native
// handle and must not reach any gocv call.
func present(m gocv.Mat) bool {
	return m.Ptr() != nil && !m.Empty()
}

func closeMat(m gocv.Mat) {
	if m.Ptr() != nil {
		m.Close()
	}
}

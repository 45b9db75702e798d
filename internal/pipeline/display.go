package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// TimestampLayout names displayed and saved frames. It sorts by time.
const TimestampLayout = "20060102_150405"

// DisplayMode selects which derived image is shown
type DisplayMode int

const (
	ModeNow DisplayMode = iota
	ModeAverage
	ModeDiff
)

func (m DisplayMode) String() string {
	switch m {
	case ModeNow:
		return "now"
	case ModeAverage:
		return "average"
	case ModeDiff:
		return "diff"
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

// ParseDisplayMode maps "now", "average" or "diff" to a DisplayMode
func ParseDisplayMode(name string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "now", "":
		return ModeNow, nil
	case "average", "avg":
		return ModeAverage, nil
	case "diff":
		return ModeDiff, nil
	}
	return ModeNow, fmt.Errorf("unknown display mode %q", name)
}

// displayer forwards the image chosen by the current mode to the renderer
type displayer struct {
	mu   sync.Mutex
	mode DisplayMode

	renderer Renderer
	now      func() time.Time
	stats    *counters
	logger   *slog.Logger
}

func (d *displayer) setMode(m DisplayMode) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

func (d *displayer) currentMode() DisplayMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *displayer) process(item *WorkItem) {
	mode := d.currentMode()
	img := selectImage(item, mode)
	if img == nil {
		d.stats.skippedDisplays.Add(1)
		d.logger.Debug("no display", "item", item.ID.String(), "mode", mode.String())
		return
	}

	item.Timestamp = d.now().Format(TimestampLayout)
	d.renderer.Render(*img, item.Timestamp)
	d.stats.renders.Add(1)
}

func selectImage(item *WorkItem, mode DisplayMode) *gocv.Mat {
	switch mode {
	case ModeAverage:
		return item.Average
	case ModeDiff:
		return item.Diff
	default:
		return item.Thumbnail
	}
}

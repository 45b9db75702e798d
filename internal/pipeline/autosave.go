package pipeline

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// autosaver writes the full resolution frame of every item while enabled,
// and of the next captured item after a save request
type autosaver struct {
	enabled  atomic.Bool
	saveNext atomic.Bool

	store  Store
	now    func() time.Time
	stats  *counters
	logger *slog.Logger
}

func (a *autosaver) process(item *WorkItem) {
	if item.Raw == nil {
		return
	}
	requested := a.saveNext.Swap(false)
	if !a.enabled.Load() && !requested {
		return
	}
	if item.Timestamp == "" {
		item.Timestamp = a.now().Format(TimestampLayout)
	}

	path := SavePath(item.Timestamp)
	if err := a.store.Write(path, *item.Raw); err != nil {
		a.stats.saveFailures.Add(1)
		a.logger.Error("autosave failed", "item", item.ID.String(), "path", path, "error", err)
		return
	}
	a.stats.saves.Add(1)
	a.logger.Info("frame saved", "item", item.ID.String(), "path", path)
}

// SavePath is the file name a frame stamped with timestamp is saved under
func SavePath(timestamp string) string {
	return timestamp + ".png"
}

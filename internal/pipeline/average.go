package pipeline

import (
	"log/slog"

	"gocv.io/x/gocv"
)

// DefaultBlendFactor is the weight of the newest thumbnail in the running average
const DefaultBlendFactor = 0.3

// averager keeps an exponential running average of thumbnails. The
// accumulator belongs to the averaging worker alone.
type averager struct {
	alpha  float64
	acc    gocv.Mat // float32, same channels as the thumbnails
	ready  bool
	stats  *counters
	logger *slog.Logger
}

func newAverager(alpha float64, stats *counters, logger *slog.Logger) *averager {
	return &averager{
		alpha:  alpha,
		acc:    gocv.NewMat(),
		stats:  stats,
		logger: logger,
	}
}

func (a *averager) process(item *WorkItem) {
	if item.Thumbnail != nil {
		a.add(*item.Thumbnail)
	}
	if !a.ready {
		return
	}

	avg := gocv.NewMat()
	a.acc.ConvertTo(&avg, gocv.MatTypeCV8U)
	item.Average = &avg
}

// add blends thumb into the accumulator: acc = acc*(1-alpha) + thumb*alpha.
// A thumbnail of a different shape restarts the average.
func (a *averager) add(thumb gocv.Mat) {
	sample := gocv.NewMat()
	defer sample.Close()
	thumb.ConvertTo(&sample, gocv.MatTypeCV32F)

	if a.ready && !sameShape(a.acc, sample) {
		a.logger.Info("frame size changed, restarting average",
			"from_width", a.acc.Cols(), "from_height", a.acc.Rows(),
			"to_width", sample.Cols(), "to_height", sample.Rows(),
		)
		a.stats.averageResets.Add(1)
		a.ready = false
	}

	if !a.ready {
		sample.CopyTo(&a.acc)
		a.ready = true
		return
	}

	gocv.AddWeighted(a.acc, 1-a.alpha, sample, a.alpha, 0, &a.acc)
}

func (a *averager) close() {
	a.acc.Close()
}

func sameShape(x, y gocv.Mat) bool {
	return x.Rows() == y.Rows() && x.Cols() == y.Cols() && x.Channels() == y.Channels()
}

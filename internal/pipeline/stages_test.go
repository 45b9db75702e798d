package pipeline

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/dudu/livecam/internal/logging"
)

func TestFitSize(t *testing.T) {
	bounds := image.Pt(960, 540)
	tests := []struct {
		in   image.Point
		want image.Point
	}{
		{image.Pt(1920, 1080), image.Pt(960, 540)},
		{image.Pt(2592, 1944), image.Pt(720, 540)},
		{image.Pt(4000, 1000), image.Pt(960, 240)},
		{image.Pt(640, 480), image.Pt(640, 480)},
		{image.Pt(1080, 1920), image.Pt(303, 540)},
	}
	for _, tt := range tests {
		if got := fitSize(tt.in, bounds); got != tt.want {
			t.Fatalf("fitSize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScalerKeepsRawUntouched(t *testing.T) {
	s := &scaler{bounds: image.Pt(960, 540)}
	raw := uniformFrame(90, 1920, 1080)
	item := &WorkItem{Raw: &raw}
	defer item.Close()

	s.process(item)

	if item.Thumbnail == nil {
		t.Fatal("expected a thumbnail")
	}
	if item.Thumbnail.Cols() != 960 || item.Thumbnail.Rows() != 540 {
		t.Fatalf("unexpected thumbnail size %dx%d", item.Thumbnail.Cols(), item.Thumbnail.Rows())
	}
	if item.Raw.Cols() != 1920 || item.Raw.Rows() != 1080 {
		t.Fatalf("raw frame was modified: %dx%d", item.Raw.Cols(), item.Raw.Rows())
	}
}

func TestScalerSkipsMissingRaw(t *testing.T) {
	s := &scaler{bounds: image.Pt(960, 540)}
	item := &WorkItem{}
	s.process(item)
	if item.Thumbnail != nil {
		t.Fatal("no thumbnail expected without a raw frame")
	}
}

func averageAt(t *testing.T, item *WorkItem) int {
	t.Helper()
	if item.Average == nil {
		t.Fatal("expected an average on the item")
	}
	return int(item.Average.GetVecbAt(0, 0)[0])
}

func TestAverageBlend(t *testing.T) {
	a := newAverager(DefaultBlendFactor, &counters{}, logging.NewNop())
	defer a.close()

	t1, t2, t3 := 100.0, 200.0, 50.0
	want := []float64{
		t1,
		0.7*t1 + 0.3*t2,
		0.7*(0.7*t1+0.3*t2) + 0.3*t3,
	}

	for i, v := range []float64{t1, t2, t3} {
		thumb := uniformFrame(v, 16, 9)
		item := &WorkItem{Thumbnail: &thumb}
		a.process(item)

		got := averageAt(t, item)
		if math.Abs(float64(got)-want[i]) > 1 {
			t.Fatalf("average after T%d = %d, want %.1f", i+1, got, want[i])
		}
		item.Close()
	}
}

func TestAverageItemWithoutThumbnail(t *testing.T) {
	a := newAverager(DefaultBlendFactor, &counters{}, logging.NewNop())
	defer a.close()

	empty := &WorkItem{}
	a.process(empty)
	if empty.Average != nil {
		t.Fatal("no average exists yet")
	}

	thumb := uniformFrame(60, 8, 8)
	first := &WorkItem{Thumbnail: &thumb}
	a.process(first)
	first.Close()

	later := &WorkItem{}
	a.process(later)
	defer later.Close()
	if got := averageAt(t, later); got != 60 {
		t.Fatalf("expected current average 60 to pass through, got %d", got)
	}
}

func TestAverageResetsOnSizeChange(t *testing.T) {
	stats := &counters{}
	a := newAverager(DefaultBlendFactor, stats, logging.NewNop())
	defer a.close()

	small := uniformFrame(40, 8, 8)
	item := &WorkItem{Thumbnail: &small}
	a.process(item)
	item.Close()

	large := uniformFrame(220, 16, 8)
	item = &WorkItem{Thumbnail: &large}
	a.process(item)
	defer item.Close()

	if got := averageAt(t, item); got != 220 {
		t.Fatalf("expected restarted average 220, got %d", got)
	}
	if item.Average.Cols() != 16 {
		t.Fatalf("unexpected average width %d", item.Average.Cols())
	}
	if stats.averageResets.Load() != 1 {
		t.Fatalf("expected one reset, got %d", stats.averageResets.Load())
	}
}

func grayMat(t *testing.T, rows, cols int, values []uint8) gocv.Mat {
	t.Helper()
	if len(values) != rows*cols {
		t.Fatalf("need %d values, got %d", rows*cols, len(values))
	}
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	for i, v := range values {
		m.SetUCharAt(i/cols, i%cols, v)
	}
	return m
}

func TestDiffFormula(t *testing.T) {
	thumbVals := []uint8{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120}
	avgVals := []uint8{12, 18, 30, 45, 50, 50, 75, 80, 89, 100, 120, 100}
	thumb := grayMat(t, 3, 4, thumbVals)
	avg := grayMat(t, 3, 4, avgVals)
	item := &WorkItem{Thumbnail: &thumb, Average: &avg}
	defer item.Close()

	d := &differ{gain: DefaultDiffGain}
	d.process(item)
	if item.Diff == nil {
		t.Fatal("expected a diff image")
	}

	delta := make([]float64, len(thumbVals))
	var mean float64
	for i := range thumbVals {
		delta[i] = (float64(thumbVals[i]) - float64(avgVals[i])) * DefaultDiffGain
		mean += delta[i]
	}
	mean /= float64(len(delta))

	for i := range delta {
		want := math.Min(math.Abs(delta[i]-mean)+diffOffset, 255)
		got := float64(item.Diff.GetUCharAt(i/4, i%4))
		if math.Abs(got-want) > 1 {
			t.Fatalf("pixel %d: got %.0f want %.1f", i, got, want)
		}
	}
}

func TestDiffIdenticalImagesIsFlat(t *testing.T) {
	thumb := splitFrame(30, 200, 16, 8)
	avg := thumb.Clone()
	item := &WorkItem{Thumbnail: &thumb, Average: &avg}
	defer item.Close()

	(&differ{gain: DefaultDiffGain}).process(item)

	if item.Diff.Channels() != 1 {
		t.Fatalf("diff should be single channel, got %d", item.Diff.Channels())
	}
	for r := 0; r < item.Diff.Rows(); r++ {
		for c := 0; c < item.Diff.Cols(); c++ {
			if v := item.Diff.GetUCharAt(r, c); v != diffOffset {
				t.Fatalf("pixel (%d,%d) = %d, want %d", r, c, v, diffOffset)
			}
		}
	}
}

func TestDiffNeedsBothInputs(t *testing.T) {
	thumb := uniformFrame(10, 4, 4)
	item := &WorkItem{Thumbnail: &thumb}
	defer item.Close()

	(&differ{gain: DefaultDiffGain}).process(item)
	if item.Diff != nil {
		t.Fatal("diff requires an average")
	}
}

type recordingRenderer struct {
	calls []string
}

func (r *recordingRenderer) Render(img gocv.Mat, timestamp string) {
	r.calls = append(r.calls, timestamp)
}

func TestDisplaySelectsByMode(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.Local)
	renderer := &recordingRenderer{}
	d := &displayer{renderer: renderer, now: fixedClock(ts), stats: &counters{}, logger: logging.NewNop()}

	thumb := uniformFrame(1, 4, 4)
	item := &WorkItem{Thumbnail: &thumb}
	defer item.Close()

	d.setMode(ModeDiff)
	d.process(item)
	if len(renderer.calls) != 0 || item.Timestamp != "" {
		t.Fatal("missing diff should not render or stamp")
	}
	if d.stats.skippedDisplays.Load() != 1 {
		t.Fatal("expected skipped display to be counted")
	}

	d.setMode(ModeNow)
	d.process(item)
	if len(renderer.calls) != 1 || renderer.calls[0] != "20260102_150405" {
		t.Fatalf("unexpected renders %v", renderer.calls)
	}
	if item.Timestamp != "20260102_150405" {
		t.Fatalf("item not stamped: %q", item.Timestamp)
	}
}

func TestParseDisplayMode(t *testing.T) {
	for name, want := range map[string]DisplayMode{"now": ModeNow, "Average": ModeAverage, "diff": ModeDiff} {
		got, err := ParseDisplayMode(name)
		if err != nil || got != want {
			t.Fatalf("ParseDisplayMode(%q) = %s, %v", name, got, err)
		}
	}
	if _, err := ParseDisplayMode("zoom"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAutosaveFailureIsCounted(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	a := &autosaver{store: store, now: time.Now, stats: &counters{}, logger: logging.NewNop()}
	a.enabled.Store(true)

	raw := uniformFrame(1, 4, 4)
	item := &WorkItem{Raw: &raw, Timestamp: "20260102_150405"}
	defer item.Close()

	a.process(item)
	if a.stats.saveFailures.Load() != 1 || a.stats.saves.Load() != 0 {
		t.Fatalf("unexpected counters saves=%d failures=%d", a.stats.saves.Load(), a.stats.saveFailures.Load())
	}

	store.err = nil
	a.process(item)
	if w := store.Writes(); len(w) != 1 || w[0].path != "20260102_150405.png" {
		t.Fatalf("unexpected writes %v", w)
	}
}

func TestAutosaveDisabledOrMissingRaw(t *testing.T) {
	store := &fakeStore{}
	a := &autosaver{store: store, now: time.Now, stats: &counters{}, logger: logging.NewNop()}

	raw := uniformFrame(1, 4, 4)
	item := &WorkItem{Raw: &raw, Timestamp: "x"}
	defer item.Close()
	a.process(item)

	a.enabled.Store(true)
	a.process(&WorkItem{Timestamp: "y"})

	if len(store.Writes()) != 0 {
		t.Fatalf("nothing should be saved, got %v", store.Writes())
	}
}

func TestAutosaveSaveNextOnce(t *testing.T) {
	store := &fakeStore{}
	a := &autosaver{store: store, now: time.Now, stats: &counters{}, logger: logging.NewNop()}
	a.saveNext.Store(true)

	// A failed capture keeps the request pending
	a.process(&WorkItem{Timestamp: "20260102_150400"})

	raw := uniformFrame(1, 8, 6)
	first := &WorkItem{Raw: &raw, Timestamp: "20260102_150405"}
	a.process(first)
	second := &WorkItem{Raw: &raw, Timestamp: "20260102_150406"}
	a.process(second)
	raw.Close()

	w := store.Writes()
	if len(w) != 1 || w[0].path != "20260102_150405.png" || w[0].width != 8 {
		t.Fatalf("expected exactly the first good frame saved, got %v", w)
	}
	if a.saveNext.Load() {
		t.Fatal("save request should be consumed")
	}
}

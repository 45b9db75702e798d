package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/dudu/livecam/internal/camera"
)

// ErrAlreadyStarted is returned by a second call to Start
var ErrAlreadyStarted = errors.New("pipeline already started")

// Config holds pipeline configuration
type Config struct {
	PreviewWidth  int
	PreviewHeight int
	BlendFactor   float64
	DiffGain      float64
	// MinInterval caps the capture rate while running; zero disables it
	MinInterval time.Duration
	DisplayMode DisplayMode
	Autosave    bool
	// Clock stamps frames; nil means time.Now
	Clock func() time.Time
}

// DefaultConfig returns the stock preview settings
func DefaultConfig() Config {
	return Config{
		PreviewWidth:  DefaultPreviewWidth,
		PreviewHeight: DefaultPreviewHeight,
		BlendFactor:   DefaultBlendFactor,
		DiffGain:      DefaultDiffGain,
		DisplayMode:   ModeNow,
	}
}

func (c Config) validate() error {
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		return fmt.Errorf("invalid preview size %dx%d", c.PreviewWidth, c.PreviewHeight)
	}
	if c.BlendFactor <= 0 || c.BlendFactor > 1 {
		return fmt.Errorf("blend factor %.2f out of range (0, 1]", c.BlendFactor)
	}
	if c.DiffGain <= 0 {
		return fmt.Errorf("diff gain must be positive, got %.2f", c.DiffGain)
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("min interval must not be negative")
	}
	return nil
}

// Stage names in chain order
const (
	StageCapture  = "capture"
	StageScale    = "scale"
	StageAverage  = "average"
	StageDiff     = "diff"
	StageDisplay  = "display"
	StageAutosave = "autosave"
)

var stageOrder = []string{StageCapture, StageScale, StageAverage, StageDiff, StageDisplay, StageAutosave}

// Pipeline owns the six stage workers and the five handoffs between them.
// Control methods are safe from any goroutine and never wait on the data path.
type Pipeline struct {
	controller *Controller
	handoffs   []*Handoff
	capture    *captureStage
	stages     []*stage
	averager   *averager
	display    *displayer
	autosave   *autosaver

	counters map[string]*stageCounter
	stats    *counters
	logger   *slog.Logger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a pipeline around its collaborators. Nothing runs until Start.
func New(cfg Config, device Device, renderer Renderer, store Store, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if device == nil || renderer == nil || store == nil {
		return nil, errors.New("pipeline needs a device, a renderer and a store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	p := &Pipeline{
		controller: NewController(cfg.MinInterval),
		counters:   make(map[string]*stageCounter, len(stageOrder)),
		stats:      &counters{},
		logger:     logger.With("component", "pipeline"),
	}
	for _, name := range stageOrder {
		p.counters[name] = &stageCounter{}
	}
	for i := 0; i < len(stageOrder)-1; i++ {
		p.handoffs = append(p.handoffs, NewHandoff())
	}

	p.capture = &captureStage{
		controller: p.controller,
		device:     device,
		out:        p.handoffs[0],
		counter:    p.counters[StageCapture],
		stats:      p.stats,
		logger:     p.stageLogger(StageCapture),
		now:        now,
	}
	scale := &scaler{bounds: image.Pt(cfg.PreviewWidth, cfg.PreviewHeight)}
	p.averager = newAverager(cfg.BlendFactor, p.stats, p.stageLogger(StageAverage))
	diff := &differ{gain: float32(cfg.DiffGain)}
	p.display = &displayer{
		mode:     cfg.DisplayMode,
		renderer: renderer,
		now:      now,
		stats:    p.stats,
		logger:   p.stageLogger(StageDisplay),
	}
	p.autosave = &autosaver{
		store:  store,
		now:    now,
		stats:  p.stats,
		logger: p.stageLogger(StageAutosave),
	}
	p.autosave.enabled.Store(cfg.Autosave)

	processors := []processFunc{scale.process, p.averager.process, diff.process, p.display.process, p.autosave.process}
	for i, fn := range processors {
		name := stageOrder[i+1]
		var out *Handoff
		if i+1 < len(p.handoffs) {
			out = p.handoffs[i+1]
		}
		p.stages = append(p.stages, &stage{
			name:    name,
			in:      p.handoffs[i],
			out:     out,
			process: fn,
			counter: p.counters[name],
			logger:  p.stageLogger(name),
		})
	}
	return p, nil
}

func (p *Pipeline) stageLogger(name string) *slog.Logger {
	return p.logger.With("stage", name)
}

// Start launches every stage worker. The controller starts paused.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	p.wg.Add(1 + len(p.stages))
	go func() {
		defer p.wg.Done()
		p.capture.run()
	}()
	for _, s := range p.stages {
		go func() {
			defer p.wg.Done()
			s.run()
		}()
	}

	p.logger.Info("pipeline started", "state", p.controller.State().String(), "mode", p.display.currentMode().String())
	return nil
}

// Stop requests exit and waits until the sentinel has drained through every
// stage. Items already in flight finish first. Safe to call more than once.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		p.controller.SetState(StateExit)

		p.mu.Lock()
		started := p.started
		p.started = true
		p.mu.Unlock()

		if started {
			p.wg.Wait()
		}
		p.averager.close()
		p.logger.Info("pipeline stopped")
	})
}

// Once captures a single frame
func (p *Pipeline) Once() {
	p.controller.Once()
}

// SetLive switches between continuous capture and pause
func (p *Pipeline) SetLive(live bool) {
	if live {
		p.controller.SetState(StateRunning)
	} else {
		p.controller.SetState(StatePaused)
	}
}

// SetConfig queues camera settings for the next capture, replacing any that
// have not been applied yet
func (p *Pipeline) SetConfig(update camera.ConfigUpdate) {
	p.controller.SetConfig(update)
}

// SetDisplayMode changes the image rendered from the next item on
func (p *Pipeline) SetDisplayMode(m DisplayMode) {
	p.display.setMode(m)
}

// SetAutosave turns saving of full resolution frames on or off
func (p *Pipeline) SetAutosave(enabled bool) {
	p.autosave.enabled.Store(enabled)
}

// SaveNext saves the next captured frame at full resolution, whether or not
// autosave is on. Failed captures do not use up the request.
func (p *Pipeline) SaveNext() {
	p.autosave.saveNext.Store(true)
	p.logger.Info("saving next frame")
}

// State returns the capture state
func (p *Pipeline) State() State {
	return p.controller.State()
}

// DisplayMode returns the current display mode
func (p *Pipeline) DisplayMode() DisplayMode {
	return p.display.currentMode()
}

// Autosave reports whether autosave is on
func (p *Pipeline) Autosave() bool {
	return p.autosave.enabled.Load()
}

// Stats returns a snapshot of the pipeline counters
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Captures:        p.stats.captures.Load(),
		CaptureFailures: p.stats.captureFailures.Load(),
		ConfigApplied:   p.stats.configApplied.Load(),
		ConfigFailures:  p.stats.configFailures.Load(),
		AverageResets:   p.stats.averageResets.Load(),
		Renders:         p.stats.renders.Load(),
		SkippedDisplays: p.stats.skippedDisplays.Load(),
		Saves:           p.stats.saves.Load(),
		SaveFailures:    p.stats.saveFailures.Load(),
	}
	for _, name := range stageOrder {
		s.Stages = append(s.Stages, StageStats{Name: name, Processed: p.counters[name].processed.Load()})
	}
	return s
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/dudu/livecam/internal/camera"
	"github.com/dudu/livecam/internal/config"
	"github.com/dudu/livecam/internal/pipeline"
	"github.com/dudu/livecam/internal/storage"
	"github.com/dudu/livecam/internal/ui"
)

type previewOptions struct {
	live     bool
	mode     string
	autosave bool
	noWindow bool
	device   int
	exposure int
	iso      int
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the live preview window",
		Long: `Show the live preview window.

Keys: c capture once, l toggle live, n/a/d show now/average/diff,
s toggle autosave, w save the next frame, r automatic exposure,
q or ESC quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyPreviewFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runPreview(runCtx, cmd, cfg, logger)
		},
	}

	cmd.Flags().BoolVarP(&opts.live, "live", "l", false, "Start capturing continuously")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Display mode: now, average or diff")
	cmd.Flags().BoolVarP(&opts.autosave, "autosave", "s", false, "Save every displayed frame at full resolution")
	cmd.Flags().BoolVar(&opts.noWindow, "no-window", false, "Run without a preview window")
	cmd.Flags().IntVarP(&opts.device, "device", "d", 0, "Camera device index")
	cmd.Flags().IntVarP(&opts.exposure, "exposure", "e", 0, "Exposure in milliseconds, 0 = automatic")
	cmd.Flags().IntVarP(&opts.iso, "iso", "i", 0, "ISO, 0 = automatic")
	return cmd
}

func applyPreviewFlags(cmd *cobra.Command, cfg *config.Config, opts previewOptions) {
	flags := cmd.Flags()
	if flags.Changed("live") {
		cfg.Preview.Live = opts.live
	}
	if flags.Changed("mode") {
		cfg.Preview.DisplayMode = opts.mode
	}
	if flags.Changed("autosave") {
		cfg.Autosave.Enabled = opts.autosave
	}
	if flags.Changed("no-window") {
		cfg.Preview.Window = !opts.noWindow
	}
	if flags.Changed("device") {
		cfg.Camera.Device = opts.device
	}
	if flags.Changed("exposure") {
		cfg.Camera.Exposure = opts.exposure
	}
	if flags.Changed("iso") {
		cfg.Camera.ISO = opts.iso
	}
}

func runPreview(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	dev, release, err := openCamera(cfg, cfg.CameraUpdate(), logger)
	if err != nil {
		return err
	}
	defer release()

	mode, err := pipeline.ParseDisplayMode(cfg.Preview.DisplayMode)
	if err != nil {
		return err
	}

	var window *ui.Window
	var renderer pipeline.Renderer = discardRenderer{logger: logger}
	if cfg.Preview.Window {
		window = ui.NewWindow("livecam", cfg.Preview.Width, cfg.Preview.Height)
		defer window.Close()
		renderer = window
	}

	store := storage.NewPNGStore(cfg.Autosave.Dir)
	p, err := pipeline.New(pipeline.Config{
		PreviewWidth:  cfg.Preview.Width,
		PreviewHeight: cfg.Preview.Height,
		BlendFactor:   cfg.Pipeline.BlendFactor,
		DiffGain:      cfg.Pipeline.DiffGain,
		MinInterval:   cfg.MinInterval(),
		DisplayMode:   mode,
		Autosave:      cfg.Autosave.Enabled,
	}, dev, renderer, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	if err := p.Start(); err != nil {
		return err
	}
	defer func() {
		p.Stop()
		fmt.Fprintln(cmd.OutOrStdout(), renderStats(p.Stats()))
	}()
	p.SetLive(cfg.Preview.Live)
	logger.Info("save directory", "dir", store.Dir(), "autosave", cfg.Autosave.Enabled)

	if window == nil {
		logger.Info("running without window, press Ctrl+C to quit")
		<-ctx.Done()
		return nil
	}

	logger.Info("running, press 'q' to quit")
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		default:
		}

		window.SetStatus(statusLine(p))
		window.Show()

		// WaitKey must be called to process window events on macOS
		key := window.WaitKey(10)
		if quit := handleKey(key, p, logger); quit {
			logger.Info("quitting")
			return nil
		}
	}
}

// handleKey maps an operator key to a pipeline control call
func handleKey(key int, p controls, logger *slog.Logger) bool {
	switch key {
	case 'q', 27: // 'q' or ESC
		return true
	case 'c':
		p.Once()
	case 'l':
		live := p.State() != pipeline.StateRunning
		p.SetLive(live)
		logger.Info("live view", "enabled", live)
	case 'n':
		p.SetDisplayMode(pipeline.ModeNow)
	case 'a':
		p.SetDisplayMode(pipeline.ModeAverage)
	case 'd':
		p.SetDisplayMode(pipeline.ModeDiff)
	case 's':
		enabled := !p.Autosave()
		p.SetAutosave(enabled)
		logger.Info("autosave", "enabled", enabled)
	case 'w':
		p.SaveNext()
	case 'r':
		// Back to the driver's automatic exposure
		p.SetConfig(camera.ConfigUpdate{Exposure: camera.Int(0), Mode: camera.String(camera.ModeAuto)})
	}
	return false
}

// controls is the part of the pipeline the keyboard drives
type controls interface {
	Once()
	SetLive(bool)
	SetConfig(camera.ConfigUpdate)
	SetDisplayMode(pipeline.DisplayMode)
	SetAutosave(bool)
	SaveNext()
	State() pipeline.State
	DisplayMode() pipeline.DisplayMode
	Autosave() bool
}

func statusLine(p controls) string {
	autosave := "off"
	if p.Autosave() {
		autosave = "on"
	}
	return fmt.Sprintf("%s | %s | autosave %s", p.State(), p.DisplayMode(), autosave)
}

// discardRenderer stands in for the window when running headless
type discardRenderer struct {
	logger *slog.Logger
}

func (r discardRenderer) Render(img gocv.Mat, timestamp string) {
	r.logger.Debug("frame ready", "timestamp", timestamp, "width", img.Cols(), "height", img.Rows())
}

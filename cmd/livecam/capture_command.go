package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/dudu/livecam/internal/camera"
)

// burstFolderLayout names the folder a burst is written to
const burstFolderLayout = "2006-01-02_15-04-05"

type captureOptions struct {
	file     string
	dir      string
	mode     string
	exposure int
	iso      int
	number   int
	delay    time.Duration
}

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var opts captureOptions

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a burst of full resolution frames without the preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			if opts.number <= 0 {
				return fmt.Errorf("--number must be positive, got %d", opts.number)
			}
			if filepath.Ext(opts.file) == "" {
				return fmt.Errorf("--file %q needs an image extension", opts.file)
			}

			update := cfg.CameraUpdate()
			update.Mode = camera.String(exposureMode(opts.mode, cmd.Flags().Changed("mode"), opts.exposure))
			update.Exposure = camera.Int(opts.exposure)
			if opts.iso > 0 {
				update.ISO = camera.Int(opts.iso)
			}
			if err := update.Validate(); err != nil {
				return err
			}

			dev, release, err := openCamera(cfg, update, logger)
			if err != nil {
				return err
			}
			defer release()

			base := opts.dir
			if base == "" {
				base = cfg.Autosave.Dir
			}
			folder := filepath.Join(base, time.Now().Format(burstFolderLayout))
			if err := os.MkdirAll(folder, 0o755); err != nil {
				return fmt.Errorf("create folder: %w", err)
			}
			logger.Info("created folder", "path", folder)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rows, err := captureBurst(runCtx, dev, folder, opts)
			if len(rows) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "File", "Size"}, rows, 0))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "test.jpg", "Image name; exposure and index are inserted before the extension")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Parent folder for the burst (default: autosave dir)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", camera.ModeAuto, "Exposure mode: auto or off (default off when --exposure is set)")
	cmd.Flags().IntVarP(&opts.exposure, "exposure", "e", 0, "Exposure in milliseconds, 0 = automatic")
	cmd.Flags().IntVarP(&opts.iso, "iso", "i", 0, "ISO, 0 = automatic")
	cmd.Flags().IntVarP(&opts.number, "number", "n", 1, "Number of images")
	cmd.Flags().DurationVarP(&opts.delay, "delay", "d", 0, "Delay between images")
	return cmd
}

// exposureMode picks manual exposure for a fixed exposure time unless the
// mode was given explicitly
func exposureMode(mode string, explicit bool, exposure int) string {
	if !explicit && exposure > 0 {
		return camera.ModeManual
	}
	return mode
}

type frameSource interface {
	CaptureImage() (gocv.Mat, error)
}

func captureBurst(ctx context.Context, dev frameSource, folder string, opts captureOptions) ([][]string, error) {
	var rows [][]string
	for i := 0; i < opts.number; i++ {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		frame, err := dev.CaptureImage()
		if err != nil {
			return rows, fmt.Errorf("capture %d: %w", i, err)
		}
		path := filepath.Join(folder, burstFileName(opts.file, opts.exposure, i))
		ok := gocv.IMWrite(path, frame)
		size := fmt.Sprintf("%dx%d", frame.Cols(), frame.Rows())
		frame.Close()
		if !ok {
			return rows, fmt.Errorf("write %s failed", path)
		}
		rows = append(rows, []string{strconv.Itoa(i), path, size})

		if opts.delay > 0 && i+1 < opts.number {
			select {
			case <-ctx.Done():
				return rows, ctx.Err()
			case <-time.After(opts.delay):
			}
		}
	}
	return rows, nil
}

// burstFileName turns "test.jpg" into "test_<exposure>_<i>.jpg"
func burstFileName(file string, exposure, index int) string {
	suffix := fmt.Sprintf("_%d_%d", exposure, index)
	if dot := strings.Index(file, "."); dot >= 0 {
		return file[:dot] + suffix + file[dot:]
	}
	return file + suffix
}

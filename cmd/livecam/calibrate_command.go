package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newCalibrateCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var rounds int

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Wait for automatic gain and exposure to settle and report them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			dev, release, err := openCamera(cfg, cfg.CameraUpdate(), logger)
			if err != nil {
				return err
			}
			defer release()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reading, err := dev.Calibrate(runCtx, interval, rounds)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Gain", "Exposure", "ISO"},
				[][]string{{
					fmt.Sprintf("%.2f", reading.Gain),
					fmt.Sprintf("%.0f", reading.Exposure),
					fmt.Sprintf("%.0f", reading.ISO),
				}},
				0, 1, 2,
			))
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Time between readings")
	cmd.Flags().IntVar(&rounds, "rounds", 30, "Maximum number of readings")
	return cmd
}

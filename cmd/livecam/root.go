package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "livecam",
		Short:         "Live camera preview with running average and change view",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	preview := newPreviewCommand(ctx)
	rootCmd.RunE = preview.RunE
	rootCmd.Flags().AddFlagSet(preview.Flags())

	rootCmd.AddCommand(preview)
	rootCmd.AddCommand(newCaptureCommand(ctx))
	rootCmd.AddCommand(newCalibrateCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:           "markerd",
		Short:         "Fiducial marker scanner server",
		Long:          "markerd loads custom fiducial marker definitions, builds a detection dictionary, and serves camera frame streams over WebSocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "Directory containing markerd.cfg.json")

	rootCmd.AddCommand(newServeCommand(&configDir))
	rootCmd.AddCommand(newValidateCommand(&configDir))
	rootCmd.AddCommand(newRenderCommand(&configDir))

	return rootCmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/internal/dictionary"
	"github.com/markerscan/markerd/internal/markers"
)

func newValidateCommand(configDir *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a marker definitions file",
		Long: `Parse a marker definitions file and build the dictionary it would
produce, reporting every marker id that made it in. Exits non-zero when
the file is malformed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(*configDir); err != nil {
				return err
			}

			if len(args) > 0 {
				file = args[0]
			}
			if file == "" {
				file = config.Markers().File
			}

			parser := markers.NewParser(nil)
			set, err := parser.ParseFile(file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			encoder := dictionary.NewEncoder(nil, nil)
			dict, err := encoder.Build(set)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			ids := set.IDs()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d markers, dictionary capacity %d\n", file, len(ids), dict.Capacity())
			for _, id := range ids {
				if id >= dict.Capacity() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %4d (skipped: beyond capacity)\n", id)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %4d\n", id)
			}
			return nil
		},
	}

	return cmd
}

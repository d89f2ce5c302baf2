package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/internal/dictionary"
	"github.com/markerscan/markerd/internal/markers"
	"github.com/markerscan/markerd/internal/render"
)

func newRenderCommand(configDir *string) *cobra.Command {
	var (
		file    string
		outDir  string
		side    int
		sheet   bool
		pages   bool
		columns int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render marker images for printing",
		Long: `Build the dictionary from the marker definitions file and render
each defined marker as a PNG, optionally combined into a contact sheet
or paginated A4 print pages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(*configDir); err != nil {
				return err
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

			ids := make([]int, 0, len(set))
			for _, id := range set.IDs() {
				if id < dict.Capacity() {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("%s: no markers within dictionary capacity", file)
			}

			if pages {
				opts := render.PageOptions{}
				if cmd.Flags().Changed("side") {
					opts.MarkerSide = side
				}
				written, err := render.SavePagesPNG(dict, ids, opts, filepath.Join(outDir, "markers"))
				if err != nil {
					return err
				}
				for _, path := range written {
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d markers across %d pages\n", len(ids), len(written))
				return nil
			}

			if sheet {
				path := filepath.Join(outDir, "sheet.png")
				opts := render.SheetOptions{SidePixels: side, Columns: columns}
				if err := render.SaveSheetPNG(dict, ids, opts, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d markers)\n", path, len(ids))
				return nil
			}

			for _, id := range ids {
				path := filepath.Join(outDir, fmt.Sprintf("marker_%03d.png", id))
				if err := render.SaveMarkerPNG(dict, id, side, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Marker definitions file (defaults to the configured one)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "markers_out", "Output directory")
	cmd.Flags().IntVar(&side, "side", 240, "Marker side length in pixels")
	cmd.Flags().BoolVar(&sheet, "sheet", false, "Render one contact sheet instead of individual files")
	cmd.Flags().BoolVar(&pages, "pages", false, "Render paginated A4 print pages instead of individual files")
	cmd.Flags().IntVar(&columns, "columns", 4, "Columns per contact sheet row")

	return cmd
}

// Package render produces printable marker images: single markers,
// contact sheets, and paginated print pages covering a whole marker
// set.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/markerscan/markerd/pkg/aruco"
)

// SheetOptions controls contact sheet layout.
type SheetOptions struct {
	// SidePixels is the rendered size of each marker. Zero selects 240.
	SidePixels int
	// Margin is the white gap around each marker in pixels. Zero selects
	// a quarter of the marker side, enough quiet zone for detection.
	Margin int
	// Columns per row. Zero selects 4.
	Columns int
}

func (o SheetOptions) side() int {
	if o.SidePixels <= 0 {
		return 240
	}
	return o.SidePixels
}

func (o SheetOptions) margin() int {
	if o.Margin <= 0 {
		return o.side() / 4
	}
	return o.Margin
}

func (o SheetOptions) columns() int {
	if o.Columns <= 0 {
		return 4
	}
	return o.Columns
}

// SaveMarkerPNG renders one marker to a PNG file.
func SaveMarkerPNG(dict *aruco.Dictionary, id, sidePixels int, path string) error {
	img, err := dict.GenerateImageMarker(id, sidePixels)
	if err != nil {
		return err
	}
	return savePNG(path, img)
}

// BuildSheet lays the given marker ids out on a white sheet, row-major.
func BuildSheet(dict *aruco.Dictionary, ids []int, opts SheetOptions) (*image.Gray, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("render: no marker ids to lay out")
	}

	side := opts.side()
	margin := opts.margin()
	cols := opts.columns()
	if cols > len(ids) {
		cols = len(ids)
	}
	rows := (len(ids) + cols - 1) / cols

	cell := side + 2*margin
	sheet := image.NewGray(image.Rect(0, 0, cols*cell, rows*cell))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, id := range ids {
		marker, err := dict.GenerateImageMarker(id, side)
		if err != nil {
			return nil, fmt.Errorf("render: marker %d: %w", id, err)
		}

		col := i % cols
		row := i / cols
		origin := image.Pt(col*cell+margin, row*cell+margin)
		draw.Draw(sheet, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}, marker, image.Point{}, draw.Src)
	}

	return sheet, nil
}

// SaveSheetPNG renders a contact sheet of the given ids to a PNG file.
func SaveSheetPNG(dict *aruco.Dictionary, ids []int, opts SheetOptions, path string) error {
	sheet, err := BuildSheet(dict, ids, opts)
	if err != nil {
		return err
	}
	return savePNG(path, sheet)
}

// PageOptions controls printable page layout. The defaults give an A4
// page at 300 DPI with 400-pixel markers and a 50-pixel gutter.
type PageOptions struct {
	// PageWidth and PageHeight are the page size in pixels. Zero
	// selects 2100x2970.
	PageWidth  int
	PageHeight int
	// MarkerSide is the printed size of each marker. Zero selects 400.
	MarkerSide int
	// Margin is the gutter between markers and around the page edge.
	// Zero selects 50.
	Margin int
}

func (o PageOptions) pageWidth() int {
	if o.PageWidth <= 0 {
		return 2100
	}
	return o.PageWidth
}

func (o PageOptions) pageHeight() int {
	if o.PageHeight <= 0 {
		return 2970
	}
	return o.PageHeight
}

func (o PageOptions) markerSide() int {
	if o.MarkerSide <= 0 {
		return 400
	}
	return o.MarkerSide
}

func (o PageOptions) gutter() int {
	if o.Margin <= 0 {
		return 50
	}
	return o.Margin
}

// PageGrid returns how many marker columns and rows fit on one page.
func (o PageOptions) PageGrid() (cols, rows int) {
	side := o.markerSide()
	margin := o.gutter()
	cols = (o.pageWidth() - 2*margin) / (side + margin)
	rows = (o.pageHeight() - 2*margin) / (side + margin)
	return cols, rows
}

// BuildPages lays the given marker ids out across printable pages,
// row-major, as many as fit per page.
func BuildPages(dict *aruco.Dictionary, ids []int, opts PageOptions) ([]*image.Gray, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("render: no marker ids to lay out")
	}

	cols, rows := opts.PageGrid()
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("render: marker side %d does not fit a %dx%d page",
			opts.markerSide(), opts.pageWidth(), opts.pageHeight())
	}

	side := opts.markerSide()
	margin := opts.gutter()
	perPage := cols * rows

	var pages []*image.Gray
	for start := 0; start < len(ids); start += perPage {
		page := image.NewGray(image.Rect(0, 0, opts.pageWidth(), opts.pageHeight()))
		draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

		end := start + perPage
		if end > len(ids) {
			end = len(ids)
		}
		for i, id := range ids[start:end] {
			marker, err := dict.GenerateImageMarker(id, side)
			if err != nil {
				return nil, fmt.Errorf("render: marker %d: %w", id, err)
			}

			col := i % cols
			row := i / cols
			origin := image.Pt(margin+col*(side+margin), margin+row*(side+margin))
			draw.Draw(page, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}, marker, image.Point{}, draw.Src)
		}

		pages = append(pages, page)
	}

	return pages, nil
}

// SavePagesPNG writes printable pages as <base>_page01.png,
// <base>_page02.png, ... and returns the written paths.
func SavePagesPNG(dict *aruco.Dictionary, ids []int, opts PageOptions, base string) ([]string, error) {
	pages, err := BuildPages(dict, ids, opts)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(pages))
	for i, page := range pages {
		path := fmt.Sprintf("%s_page%02d.png", base, i+1)
		if err := savePNG(path, page); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func savePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("render: creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("render: encoding %s: %w", path, err)
	}
	return nil
}

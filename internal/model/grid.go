package model

import (
	"sort"
	"strings"
)

// Cell is a single grid cell intensity. Markers are stored as grayscale
// intensities so they can be rendered directly: white is background,
// black is foreground.
type Cell uint8

const (
	White Cell = 255
	Black Cell = 0
)

const (
	// GridSize is the outer, bordered marker dimension.
	GridSize = 8
	// PayloadSize is the inner data dimension after the border is removed.
	PayloadSize = 6
)

// Grid is one bordered 8x8 marker pattern. It is a value type: assigning
// a Grid copies it, so markers in a MarkerSet never alias each other.
type Grid [GridSize][GridSize]Cell

// Payload is the inner 6x6 cell block of a marker, still in intensity form.
type Payload [PayloadSize][PayloadSize]Cell

// BitMatrix is the inner 6x6 block in the detection dictionary's bit
// convention: white=0, black=1.
type BitMatrix [PayloadSize][PayloadSize]uint8

// RawMarker pairs a marker id with its bordered grid.
type RawMarker struct {
	ID   int
	Grid Grid
}

// MarkerSet maps marker ids to their bordered grids. Built once per load
// and treated as read-only afterwards.
type MarkerSet map[int]Grid

// NewGrid returns a grid with every cell set to White. The zero value of
// Grid is all-Black (Cell zero value), which is not a useful default for
// partially specified rows.
func NewGrid() Grid {
	var g Grid
	for i := range g {
		for j := range g[i] {
			g[i][j] = White
		}
	}
	return g
}

// Inner strips the one-cell border and returns the 6x6 payload.
func (g Grid) Inner() Payload {
	var p Payload
	for i := 0; i < PayloadSize; i++ {
		for j := 0; j < PayloadSize; j++ {
			p[i][j] = g[i+1][j+1]
		}
	}
	return p
}

// Bits converts the payload to the dictionary bit convention: a White
// cell becomes 0, anything else becomes 1.
func (p Payload) Bits() BitMatrix {
	var b BitMatrix
	for i := range p {
		for j := range p[i] {
			if p[i][j] != White {
				b[i][j] = 1
			}
		}
	}
	return b
}

// Rows serializes the grid back to its row-token text form, one
// 8-character string of '0' (white) and '1' (black) per row.
func (g Grid) Rows() []string {
	rows := make([]string, 0, GridSize)
	var b strings.Builder
	for i := range g {
		b.Reset()
		for j := range g[i] {
			if g[i][j] == White {
				b.WriteByte('0')
			} else {
				b.WriteByte('1')
			}
		}
		rows = append(rows, b.String())
	}
	return rows
}

// String renders the grid as space-separated row tokens, matching the
// data portion of a markers file line.
func (g Grid) String() string {
	return strings.Join(g.Rows(), " ")
}

// IDs returns the marker ids in ascending order for reproducible iteration.
func (s MarkerSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

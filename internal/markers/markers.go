// Package markers reads the custom marker definition text format into an
// in-memory MarkerSet.
//
// The format is line oriented: `<id>: <row0> <row1> ... <row7>` where each
// row token is an 8-character string of '0' (white) and any other
// character (black). Blank lines and lines starting with '#' are ignored.
package markers

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/markerscan/markerd/internal/model"
)

// FormatError reports an unrecoverable problem with a markers source:
// the source could not be opened or read, or a data line carries an id
// that is not a non-negative integer. Malformed lines of other kinds are
// skipped, not reported.
type FormatError struct {
	Line int // 1-based line number, 0 when the source itself failed
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("markers: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("markers: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// idSeparator splits the marker id from its row tokens. The space is part
// of the separator: a bare colon does not qualify.
const idSeparator = ": "

// Parser reads marker definition sources. It is safe to reuse across
// sources; each Parse call is independent.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseFile opens path and parses it. A missing or unreadable file is a
// FormatError, matching the per-line id policy: callers treat both as
// fatal for the load.
func (p *Parser) ParseFile(path string) (model.MarkerSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse reads marker definitions from r.
//
// Error policy is deliberately asymmetric: a data line whose id field is
// not a valid non-negative integer fails the whole parse, while a line
// with the wrong part count or odd-length row tokens is skipped and
// parsing continues. A later line with an id already seen overwrites the
// earlier grid (last write wins).
func (p *Parser) Parse(r io.Reader) (model.MarkerSet, error) {
	set := model.MarkerSet{}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, idSeparator)
		if len(parts) != 2 {
			p.logger.Debug("Skipping malformed marker line", "line", lineNo, "parts", len(parts))
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, &FormatError{Line: lineNo, Err: fmt.Errorf("invalid marker id %q: %w", parts[0], err)}
		}
		if id < 0 {
			return nil, &FormatError{Line: lineNo, Err: fmt.Errorf("negative marker id %d", id)}
		}

		set[id] = parseGrid(parts[1])
	}
	if err := sc.Err(); err != nil {
		return nil, &FormatError{Line: lineNo, Err: err}
	}

	p.logger.Debug("Parsed marker definitions", "markers", len(set))
	return set, nil
}

// parseGrid converts space-separated row tokens into a grid. Rows and
// columns beyond the 8x8 bound are truncated; unspecified cells keep the
// white default. A '0' cell is white, any other character is black.
func parseGrid(data string) model.Grid {
	grid := model.NewGrid()
	for i, token := range strings.Fields(data) {
		if i >= model.GridSize {
			break
		}
		for j := 0; j < len(token) && j < model.GridSize; j++ {
			if token[j] != '0' {
				grid[i][j] = model.Black
			}
		}
	}
	return grid
}

package markers

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markerscan/markerd/internal/model"
)

const marker24Line = "24: 00000000 01111110 01000010 01011010 01011010 01000010 01111110 00000000"

func newTestParser() *Parser {
	return NewParser(nil)
}

func TestParseValidLine(t *testing.T) {
	set, err := newTestParser().Parse(strings.NewReader(marker24Line + "\n"))
	require.NoError(t, err)
	require.Len(t, set, 1)

	grid, ok := set[24]
	require.True(t, ok)

	// Border ring is white, first payload ring is black.
	assert.Equal(t, model.White, grid[0][0])
	assert.Equal(t, model.Black, grid[1][1])
	assert.Equal(t, model.White, grid[2][2])
	assert.Equal(t, model.Black, grid[3][3])

	// Round-trip back to the row-token form.
	assert.Equal(t, marker24Line, "24: "+grid.String())
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	src := "# marker definitions\n" +
		"\n" +
		"   \n" +
		marker24Line + "\n" +
		"# trailing comment\n"

	set, err := newTestParser().Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, set, 1)
}

func TestParseSoftSkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no separator", "24 00000000 01111110 01000010 01011010 01011010 01000010 01111110 00000000"},
		{"bare colon without space", "24:00000000 01111110"},
		{"extra separator", "24: 15: 00000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.line + "\n" + marker24Line + "\n"
			set, err := newTestParser().Parse(strings.NewReader(src))
			require.NoError(t, err)
			// The malformed line is dropped; the valid one still parses.
			assert.Len(t, set, 1)
			_, ok := set[24]
			assert.True(t, ok)
		})
	}
}

func TestParseInvalidIDFailsWholeParse(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"alphabetic id", "abc: 00000000 01111110 01000010 01011010 01011010 01000010 01111110 00000000"},
		{"float id", "24.5: 00000000 01111110 01000010 01011010 01011010 01000010 01111110 00000000"},
		{"negative id", "-3: 00000000 01111110 01000010 01011010 01011010 01000010 01111110 00000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := newTestParser().Parse(strings.NewReader(tt.line + "\n" + marker24Line + "\n"))
			require.Error(t, err)
			assert.Nil(t, set)

			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, 1, ferr.Line)
		})
	}
}

func TestParseDuplicateIDLastWriteWins(t *testing.T) {
	first := "7: 00000000 01111110 01000010 01011010 01011010 01000010 01111110 00000000"
	second := "7: 00000000 00000000 00000000 00000000 00000000 00000000 00000000 00000000"

	set, err := newTestParser().Parse(strings.NewReader(first + "\n" + second + "\n"))
	require.NoError(t, err)
	require.Len(t, set, 1)

	grid := set[7]
	assert.Equal(t, model.White, grid[1][1], "later all-white grid should have replaced the first")
}

func TestParseShortRowTokenFillsWhite(t *testing.T) {
	// Second row token only specifies four columns; the rest stay white.
	line := "3: 00000000 1111 00000000 00000000 00000000 00000000 00000000 00000000"

	set, err := newTestParser().Parse(strings.NewReader(line + "\n"))
	require.NoError(t, err)

	grid := set[3]
	assert.Equal(t, model.Black, grid[1][0])
	assert.Equal(t, model.Black, grid[1][3])
	assert.Equal(t, model.White, grid[1][4])
	assert.Equal(t, model.White, grid[1][7])
}

func TestParseLongRowTokenTruncates(t *testing.T) {
	// Twelve characters in one row token; columns past 8 are dropped.
	line := "5: 111111111111 00000000 00000000 00000000 00000000 00000000 00000000 00000000"

	set, err := newTestParser().Parse(strings.NewReader(line + "\n"))
	require.NoError(t, err)

	grid := set[5]
	for j := 0; j < model.GridSize; j++ {
		assert.Equal(t, model.Black, grid[0][j])
	}
}

func TestParseExtraRowTokensTruncate(t *testing.T) {
	line := "6: 11111111 11111111 11111111 11111111 11111111 11111111 11111111 11111111 11111111 11111111"

	set, err := newTestParser().Parse(strings.NewReader(line + "\n"))
	require.NoError(t, err)
	require.Len(t, set, 1)

	grid := set[6]
	for i := range grid {
		for j := range grid[i] {
			assert.Equal(t, model.Black, grid[i][j])
		}
	}
}

func TestParseIndependentStorage(t *testing.T) {
	src := marker24Line + "\n" +
		"25: 11111111 11111111 11111111 11111111 11111111 11111111 11111111 11111111\n"

	set, err := newTestParser().Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, model.White, set[24][0][0])
	assert.Equal(t, model.Black, set[25][0][0])
}

func TestParseFileMissing(t *testing.T) {
	_, err := newTestParser().ParseFile(filepath.Join(t.TempDir(), "absent.txt"))
	var ferr *FormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, 0, ferr.Line)
}

func TestParseFile(t *testing.T) {
	set, err := newTestParser().ParseFile(filepath.Join("testdata", "markers.txt"))
	require.NoError(t, err)
	assert.NotEmpty(t, set)
	_, ok := set[24]
	assert.True(t, ok)
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marker24Line = "24: 11111111 11111111 11000011 11011011 11011011 11000011 11111111 11111111"

func writeMarkersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "markers.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeMarkersFile(t, marker24Line+"\n300: 11111111\n")

	out, err := runCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 markers")
	assert.Contains(t, out, "24")
	assert.Contains(t, out, "skipped: beyond capacity")
}

func TestValidateCommandMalformedID(t *testing.T) {
	path := writeMarkersFile(t, "abc: 11111111 11111111 11000011 11011011 11011011 11000011 11111111 11111111\n")

	_, err := runCommand(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, err := runCommand(t, "validate", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	path := writeMarkersFile(t, marker24Line+"\n")
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := runCommand(t, "render", "--file", path, "--out", outDir, "--side", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "marker_024.png")

	_, statErr := os.Stat(filepath.Join(outDir, "marker_024.png"))
	assert.NoError(t, statErr)
}

func TestRenderCommandSheet(t *testing.T) {
	path := writeMarkersFile(t, marker24Line+"\n")
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := runCommand(t, "render", "--file", path, "--out", outDir, "--sheet")
	require.NoError(t, err)
	assert.Contains(t, out, "sheet.png")
}

func TestRenderCommandPages(t *testing.T) {
	path := writeMarkersFile(t, marker24Line+"\n")
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := runCommand(t, "render", "--file", path, "--out", outDir, "--pages")
	require.NoError(t, err)
	assert.Contains(t, out, "markers_page01.png")
	assert.Contains(t, out, "1 markers across 1 pages")

	_, statErr := os.Stat(filepath.Join(outDir, "markers_page01.png"))
	assert.NoError(t, statErr)
}

func TestRootShowsHelp(t *testing.T) {
	out, err := runCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "markerd")
}

// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/markerscan/markerd/pkg/core"
)

// exportJSON writes the session summary to a JSON file, optionally
// gzipped. Caller holds b.mu.
func (b *Backend) exportJSON() error {
	summary := b.buildSummary()

	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("session_%s.json.gz", timestamp)
	} else {
		filename = fmt.Sprintf("session_%s.json", timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, summary); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, summary); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildSummary() core.SessionSummary {
	summary := core.SessionSummary{
		Session:    *b.session,
		EndTime:    time.Now(),
		FrameCount: len(b.frameStats),
		Markers:    make(map[int]core.MarkerStats, len(b.markers)),
		Detections: len(b.detections),
	}

	for id, stats := range b.markers {
		summary.Markers[id] = *stats
	}

	var totalMs float64
	for _, stat := range b.frameStats {
		totalMs += stat.ProcessedMs
	}
	if len(b.frameStats) > 0 {
		summary.AvgFrameMs = totalMs / float64(len(b.frameStats))
	}

	return summary
}

func (b *Backend) writeJSON(path string, data core.SessionSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data core.SessionSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/pkg/core"
)

// Backend stores session data in memory and exports a summary to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	detections []core.Detection
	frameStats []core.FrameStat
	markers    map[int]*core.MarkerStats // keyed by marker id

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		markers: make(map[int]*core.MarkerStats),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(session *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = session

	// Reset all collections
	b.detections = nil
	b.frameStats = nil
	b.markers = make(map[int]*core.MarkerStats)

	return nil
}

// EndSession finalizes and exports the session summary
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session in progress")
	}
	return b.exportJSON()
}

// RecordDetection records a marker sighting
func (b *Backend) RecordDetection(d *core.Detection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.detections = append(b.detections, *d)

	stats, ok := b.markers[d.MarkerID]
	if !ok {
		stats = &core.MarkerStats{
			MarkerID:  d.MarkerID,
			FirstSeen: d.Timestamp,
		}
		b.markers[d.MarkerID] = stats
	}
	stats.Count++
	if d.Timestamp.After(stats.LastSeen) {
		stats.LastSeen = d.Timestamp
	}
	return nil
}

// RecordFrameStat records a processed frame summary
func (b *Backend) RecordFrameStat(s *core.FrameStat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameStats = append(b.frameStats, *s)
	return nil
}

// GetMarkerStats looks up accumulated stats for one marker id
func (b *Backend) GetMarkerStats(id int) (*core.MarkerStats, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if stats, ok := b.markers[id]; ok {
		copied := *stats
		return &copied, true
	}
	return nil, false
}

// DetectionCount returns the number of recorded detections
func (b *Backend) DetectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.detections)
}

// GetExportedFilePath returns the path of the last exported summary
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

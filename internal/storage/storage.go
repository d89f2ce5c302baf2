// internal/storage/storage.go
package storage

import "github.com/markerscan/markerd/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(session *core.Session) error
	EndSession() error

	// Detection recording
	RecordDetection(d *core.Detection) error
	RecordFrameStat(s *core.FrameStat) error
}

// Exportable is an optional interface for storage backends that produce
// a session summary file on disk after EndSession.
type Exportable interface {
	GetExportedFilePath() string
}

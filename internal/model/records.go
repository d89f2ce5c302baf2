package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ScannerInfo{},
	&Session{},
	&DetectionEvent{},
	&FrameStat{},
}

// ScannerInfo describes the scanner deployment writing to this database.
type ScannerInfo struct {
	ID             uint   `gorm:"primarykey"`
	ScannerName    string `gorm:"size:127"`
	ScannerVersion string `gorm:"size:31"`
	MarkersFile    string `gorm:"size:255"`
	MarkerCount    int
}

// Session is one scanning session: a dictionary built from one markers
// file load, serving one or more websocket connections.
type Session struct {
	ID             uint `gorm:"primarykey"`
	StartTime      time.Time
	EndTime        *time.Time
	MarkersFile    string `gorm:"size:255"`
	MarkerCount    int
	DictionarySize int
	ServerVersion  string `gorm:"size:31"`
}

// DetectionEvent is one marker sighting in one processed frame.
type DetectionEvent struct {
	ID        uint `gorm:"primarykey"`
	SessionID uint `gorm:"index"`
	Session   Session
	Time      time.Time `gorm:"index"`
	MarkerID  int       `gorm:"index"`
	// Corners holds the four detected corner points as a JSON array of
	// [x, y] pairs, in detection order.
	Corners datatypes.JSON
	CenterX float64
	CenterY float64
	Area    float64
}

// FrameStat records per-frame processing performance.
type FrameStat struct {
	ID          uint `gorm:"primarykey"`
	SessionID   uint `gorm:"index"`
	Time        time.Time
	Width       int
	Height      int
	Detections  int
	ProcessedMs float64
}

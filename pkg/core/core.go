// Package core holds the wire-level types shared between the scanner
// server, its storage backends, and streaming clients.
package core

import "time"

// Version is the scanner server version reported to clients and
// recorded with every session.
const Version = "1.0.0"

// Point is one pixel coordinate in frame space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one marker sighting in one processed frame.
type Detection struct {
	MarkerID int `json:"id"`
	// Corners are the four detected corner points in detection order
	// (top-left first for an upright marker).
	Corners   [4]Point  `json:"corners"`
	Center    Point     `json:"center"`
	Area      float64   `json:"area"`
	Rotation  int       `json:"rotation"` // quarter turns clockwise
	Timestamp time.Time `json:"timestamp"`
}

// FrameStat summarizes the processing of a single frame.
type FrameStat struct {
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Detections  int       `json:"detections"`
	ProcessedMs float64   `json:"processedMs"`
	Timestamp   time.Time `json:"timestamp"`
}

// Session describes one scanning session: one dictionary build serving
// many detection calls.
type Session struct {
	ID             uint      `json:"id"`
	StartTime      time.Time `json:"startTime"`
	MarkersFile    string    `json:"markersFile"`
	MarkerCount    int       `json:"markerCount"`
	DictionarySize int       `json:"dictionarySize"`
	ServerVersion  string    `json:"serverVersion"`
}

// SessionSummary is the exported per-session rollup produced by the
// memory storage backend.
type SessionSummary struct {
	Session    Session             `json:"session"`
	EndTime    time.Time           `json:"endTime"`
	FrameCount int                 `json:"frameCount"`
	Markers    map[int]MarkerStats `json:"markers"`
	Detections int                 `json:"detections"`
	AvgFrameMs float64             `json:"avgFrameMs"`
}

// UploadMetadata describes a session export submitted to the review
// frontend.
type UploadMetadata struct {
	MarkersFile     string  `json:"markersFile"`
	SessionDuration float64 `json:"sessionDuration"` // seconds
	MarkerCount     int     `json:"markerCount"`
	Tag             string  `json:"tag"`
}

// MarkerStats aggregates sightings of one marker id over a session.
type MarkerStats struct {
	MarkerID  int       `json:"id"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

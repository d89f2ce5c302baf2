package streaming

import (
	"encoding/json"

	"github.com/markerscan/markerd/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStatus         = "status"
	TypeFrame          = "frame"
	TypeProcessedFrame = "processed_frame"
	TypeReload         = "reload"
	TypeError          = "error"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response to a reload.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StatusPayload is sent to a client on connect. It carries the
// processing parameters the client should honor.
type StatusPayload struct {
	Message    string           `json:"message"`
	Processing ProcessingParams `json:"processing"`
	Session    core.Session     `json:"session"`
}

// ProcessingParams tells clients how often and at what quality to
// submit frames, and how long a marker stays displayed after its last
// sighting.
type ProcessingParams struct {
	ProcessEveryMs       int     `json:"processEveryMs"`
	FrameQuality         float64 `json:"frameQuality"`
	MaxWidth             int     `json:"maxWidth"`
	MaxHeight            int     `json:"maxHeight"`
	MarkerTimeoutSeconds int     `json:"markerTimeoutSeconds"`
}

// FramePayload carries one client frame: a base64 data URL of a JPEG
// image, as produced by a canvas capture.
type FramePayload struct {
	Image string `json:"image"`
}

// ProcessedFramePayload is the server's response to a frame: the
// detections found plus the ids considered active under the marker
// display timeout.
type ProcessedFramePayload struct {
	Detections []core.Detection `json:"markers"`
	ActiveIDs  []int            `json:"activeIds"`
	Stat       core.FrameStat   `json:"stat"`
}

// ErrorPayload reports a per-message processing failure without
// dropping the connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

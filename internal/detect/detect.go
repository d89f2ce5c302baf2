// Package detect defines the boundary to the external marker detection
// capability. The scanner core builds dictionaries; finding markers in
// arbitrary camera frames (corner search, perspective rectification,
// bit-error correction) is the detector's job, behind the Detector
// interface.
package detect

import (
	"context"
	"image"

	"github.com/markerscan/markerd/pkg/aruco"
	"github.com/markerscan/markerd/pkg/core"
)

// Detector finds markers in a frame using the given dictionary.
// Implementations must treat the dictionary as read-only.
type Detector interface {
	Detect(ctx context.Context, frame image.Image, dict *aruco.Dictionary) ([]core.Detection, error)
	Close() error
}

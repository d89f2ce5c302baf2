// Package dictionary synthesizes a detection dictionary from a parsed
// MarkerSet by overwriting slots of the predefined base table with the
// custom marker patterns.
package dictionary

import (
	"fmt"
	"log/slog"

	"github.com/markerscan/markerd/internal/model"
	"github.com/markerscan/markerd/pkg/aruco"
)

// BuildError reports a failure while packing a marker into the
// dictionary. The build aborts on the first failure; no partial
// dictionary is returned.
type BuildError struct {
	MarkerID int
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("dictionary: marker %d: %v", e.MarkerID, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Encoder builds dictionaries from marker sets. Reusable; each Build
// call works on a fresh clone of the base.
type Encoder struct {
	logger *slog.Logger
	base   *aruco.Dictionary
}

// NewEncoder creates an encoder over the given base dictionary. A nil
// base selects the predefined 6x6/250 table; a nil logger falls back to
// slog.Default().
func NewEncoder(logger *slog.Logger, base *aruco.Dictionary) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	if base == nil {
		base = aruco.Predefined6x6250()
	}
	return &Encoder{logger: logger, base: base}
}

// Build clones the base dictionary and overwrites one slot per in-range
// marker. Markers whose id falls outside [0, capacity) are dropped
// silently; that is load policy, not an error. Slots not covered by the
// set keep the base table's patterns.
func (e *Encoder) Build(set model.MarkerSet) (*aruco.Dictionary, error) {
	dict := e.base.Clone()
	capacity := dict.Capacity()

	written := 0
	for _, id := range set.IDs() {
		if id >= capacity {
			e.logger.Debug("Dropping marker outside dictionary range", "id", id, "capacity", capacity)
			continue
		}

		entry, err := aruco.ByteListFromBits(set[id].Inner().Bits())
		if err != nil {
			return nil, &BuildError{MarkerID: id, Err: err}
		}
		if err := dict.SetEntry(id, entry); err != nil {
			return nil, &BuildError{MarkerID: id, Err: err}
		}
		written++
	}

	e.logger.Info("Built marker dictionary", "markers", len(set), "written", written, "capacity", capacity)
	return dict, nil
}

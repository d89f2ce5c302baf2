package dictionary

import (
	"sync/atomic"

	"github.com/markerscan/markerd/pkg/aruco"
)

// Holder shares one dictionary between the build path and concurrent
// detection readers. Reloads replace the whole dictionary via an atomic
// pointer swap; a dictionary is never mutated while readers hold it.
type Holder struct {
	ptr atomic.Pointer[aruco.Dictionary]
}

// NewHolder creates a holder around an initial dictionary.
func NewHolder(d *aruco.Dictionary) *Holder {
	h := &Holder{}
	h.ptr.Store(d)
	return h
}

// Get returns the current dictionary.
func (h *Holder) Get() *aruco.Dictionary {
	return h.ptr.Load()
}

// Swap publishes a new dictionary to all readers.
func (h *Holder) Swap(d *aruco.Dictionary) {
	h.ptr.Store(d)
}

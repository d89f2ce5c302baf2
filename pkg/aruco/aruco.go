// Package aruco models the narrow dictionary contract of the external
// fiducial detection library: a fixed-capacity table of byte-packed
// marker entries, a predefined base table, and the bit-matrix to
// byte-list packing primitive.
//
// Detection itself (corner finding, rectification, error correction) is
// not implemented here; the detector is an external collaborator that
// consumes a Dictionary.
package aruco

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/markerscan/markerd/internal/model"
)

const (
	// MarkerBits is the payload dimension of a dictionary entry.
	MarkerBits = model.PayloadSize

	// DefaultCapacity matches the 250-entry predefined 6x6 dictionary.
	DefaultCapacity = 250

	// bytesPerRotation is ceil(36/8): one packed payload.
	bytesPerRotation = (MarkerBits*MarkerBits + 7) / 8

	// entryBytes is one full byte-list entry: the payload packed in all
	// four rotations so the detector can match any orientation.
	entryBytes = 4 * bytesPerRotation
)

// baseSeed fixes the generated base table so every process derives the
// same predefined dictionary.
const baseSeed = 0x6d6b7264 // "mkrd"

// Dictionary is a fixed-capacity table mapping slot index to the packed
// bit pattern the detector expects at that index. Built once, then
// shared read-only across detection calls.
type Dictionary struct {
	MarkerSize        int
	MaxCorrectionBits int
	BytesList         [][]byte
}

// Predefined6x6250 returns the base 6x6 dictionary of 250 entries. The
// table is derived deterministically, so repeated calls (and separate
// processes) observe an identical table.
func Predefined6x6250() *Dictionary {
	return Predefined6x6(DefaultCapacity)
}

// Predefined6x6 returns a base 6x6 dictionary with the given number of
// entries. A non-positive capacity selects DefaultCapacity. A smaller
// table is a prefix of a larger one, so slot contents stay stable when
// the capacity changes.
func Predefined6x6(capacity int) *Dictionary {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	d := &Dictionary{
		MarkerSize:        MarkerBits,
		MaxCorrectionBits: 5,
		BytesList:         make([][]byte, capacity),
	}

	rng := rand.New(rand.NewSource(baseSeed))
	for id := range d.BytesList {
		var bits model.BitMatrix
		for i := range bits {
			for j := range bits[i] {
				bits[i][j] = uint8(rng.Intn(2))
			}
		}
		entry, err := ByteListFromBits(bits)
		if err != nil {
			// Unreachable: generated bits are always 0 or 1.
			panic(err)
		}
		d.BytesList[id] = entry
	}
	return d
}

// Capacity returns the number of slots in the dictionary.
func (d *Dictionary) Capacity() int {
	return len(d.BytesList)
}

// Clone returns a deep copy. The encoder builds on a clone so the
// predefined base stays pristine.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{
		MarkerSize:        d.MarkerSize,
		MaxCorrectionBits: d.MaxCorrectionBits,
		BytesList:         make([][]byte, len(d.BytesList)),
	}
	for i, entry := range d.BytesList {
		c.BytesList[i] = bytes.Clone(entry)
	}
	return c
}

// SetEntry overwrites the slot at id with a packed entry.
func (d *Dictionary) SetEntry(id int, entry []byte) error {
	if id < 0 || id >= len(d.BytesList) {
		return fmt.Errorf("aruco: slot %d out of range [0, %d)", id, len(d.BytesList))
	}
	if len(entry) != entryBytes {
		return fmt.Errorf("aruco: entry for slot %d is %d bytes, want %d", id, len(entry), entryBytes)
	}
	d.BytesList[id] = entry
	return nil
}

// Entry returns the packed entry at id, or nil when out of range.
func (d *Dictionary) Entry(id int) []byte {
	if id < 0 || id >= len(d.BytesList) {
		return nil
	}
	return d.BytesList[id]
}

// ByteListFromBits packs a 6x6 bit matrix into one byte-list entry: the
// payload in all four clockwise rotations, each row-major and MSB-first.
// Cells must be 0 or 1.
func ByteListFromBits(bits model.BitMatrix) ([]byte, error) {
	for i := range bits {
		for j := range bits[i] {
			if bits[i][j] > 1 {
				return nil, fmt.Errorf("aruco: cell (%d,%d) is %d, want 0 or 1", i, j, bits[i][j])
			}
		}
	}

	entry := make([]byte, 0, entryBytes)
	rotated := bits
	for r := 0; r < 4; r++ {
		entry = append(entry, packRotation(rotated)...)
		rotated = rotate90(rotated)
	}
	return entry, nil
}

// packRotation packs one orientation of the payload into 5 bytes.
func packRotation(bits model.BitMatrix) []byte {
	packed := make([]byte, bytesPerRotation)
	k := 0
	for i := range bits {
		for j := range bits[i] {
			if bits[i][j] == 1 {
				packed[k/8] |= 1 << (7 - k%8)
			}
			k++
		}
	}
	return packed
}

// rotate90 rotates the payload a quarter turn clockwise.
func rotate90(bits model.BitMatrix) model.BitMatrix {
	var out model.BitMatrix
	n := len(bits)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = bits[n-1-j][i]
		}
	}
	return out
}

// Identify looks up an observed payload in the dictionary. It compares
// the packed observation against every slot in all four stored
// rotations and returns the slot index and the rotation (quarter turns
// clockwise) that matched. Exact matching only; bit-error correction is
// the detector's business.
func (d *Dictionary) Identify(bits model.BitMatrix) (id, rotation int, ok bool) {
	observed := packRotation(bits)
	for slot, entry := range d.BytesList {
		if len(entry) != entryBytes {
			continue
		}
		for r := 0; r < 4; r++ {
			stored := entry[r*bytesPerRotation : (r+1)*bytesPerRotation]
			if bytes.Equal(observed, stored) {
				return slot, r, true
			}
		}
	}
	return 0, 0, false
}

// BitsFromEntry unpacks the stored payload of a slot at the given
// rotation back into a bit matrix.
func (d *Dictionary) BitsFromEntry(id, rotation int) (model.BitMatrix, error) {
	var bits model.BitMatrix
	entry := d.Entry(id)
	if entry == nil {
		return bits, fmt.Errorf("aruco: slot %d out of range [0, %d)", id, len(d.BytesList))
	}
	if rotation < 0 || rotation > 3 {
		return bits, fmt.Errorf("aruco: rotation %d out of range [0, 4)", rotation)
	}
	packed := entry[rotation*bytesPerRotation : (rotation+1)*bytesPerRotation]
	k := 0
	for i := range bits {
		for j := range bits[i] {
			if packed[k/8]&(1<<(7-k%8)) != 0 {
				bits[i][j] = 1
			}
			k++
		}
	}
	return bits, nil
}

package aruco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markerscan/markerd/internal/model"
)

// diagonalBits is asymmetric under rotation, so rotation handling is
// visible in lookups.
func diagonalBits() model.BitMatrix {
	var bits model.BitMatrix
	for i := 0; i < MarkerBits; i++ {
		bits[i][i] = 1
	}
	bits[0][1] = 1
	return bits
}

func TestPredefinedIsDeterministic(t *testing.T) {
	a := Predefined6x6250()
	b := Predefined6x6250()

	require.Equal(t, DefaultCapacity, a.Capacity())
	assert.Equal(t, a.BytesList, b.BytesList)
	assert.Equal(t, MarkerBits, a.MarkerSize)
}

func TestPredefinedSizedCapacity(t *testing.T) {
	small := Predefined6x6(100)
	require.Equal(t, 100, small.Capacity())

	// Smaller tables are a prefix of the full one.
	full := Predefined6x6250()
	assert.Equal(t, full.BytesList[:100], small.BytesList)

	assert.Equal(t, DefaultCapacity, Predefined6x6(0).Capacity())
	assert.Equal(t, DefaultCapacity, Predefined6x6(-5).Capacity())
}

func TestCloneIsDeep(t *testing.T) {
	base := Predefined6x6250()
	clone := base.Clone()

	entry, err := ByteListFromBits(diagonalBits())
	require.NoError(t, err)
	require.NoError(t, clone.SetEntry(0, entry))

	assert.NotEqual(t, base.Entry(0), clone.Entry(0))
}

func TestByteListFromBitsLayout(t *testing.T) {
	var bits model.BitMatrix
	bits[0][0] = 1 // first bit of the payload

	entry, err := ByteListFromBits(bits)
	require.NoError(t, err)
	require.Len(t, entry, entryBytes)

	// Rotation 0: bit 0 set, MSB-first.
	assert.Equal(t, byte(0x80), entry[0])

	// A quarter turn clockwise moves (0,0) to (0,5): bit index 5.
	assert.Equal(t, byte(1<<(7-5)), entry[bytesPerRotation])
}

func TestByteListFromBitsRejectsNonBinary(t *testing.T) {
	var bits model.BitMatrix
	bits[2][3] = 7

	_, err := ByteListFromBits(bits)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(2,3)")
}

func TestSetEntryBounds(t *testing.T) {
	d := Predefined6x6250()
	entry, err := ByteListFromBits(diagonalBits())
	require.NoError(t, err)

	assert.Error(t, d.SetEntry(-1, entry))
	assert.Error(t, d.SetEntry(DefaultCapacity, entry))
	assert.Error(t, d.SetEntry(0, []byte{1, 2, 3}))
	assert.NoError(t, d.SetEntry(249, entry))
}

func TestIdentifyAllRotations(t *testing.T) {
	d := Predefined6x6250()
	bits := diagonalBits()
	entry, err := ByteListFromBits(bits)
	require.NoError(t, err)
	require.NoError(t, d.SetEntry(42, entry))

	observed := bits
	for r := 0; r < 4; r++ {
		id, rot, ok := d.Identify(observed)
		require.True(t, ok, "rotation %d", r)
		assert.Equal(t, 42, id)
		assert.Equal(t, r, rot)
		observed = rotate90(observed)
	}
}

func TestIdentifyUnknownPattern(t *testing.T) {
	d := &Dictionary{MarkerSize: MarkerBits, BytesList: make([][]byte, 10)}
	_, _, ok := d.Identify(diagonalBits())
	assert.False(t, ok)
}

func TestBitsFromEntryRoundTrip(t *testing.T) {
	d := Predefined6x6250()
	bits := diagonalBits()
	entry, err := ByteListFromBits(bits)
	require.NoError(t, err)
	require.NoError(t, d.SetEntry(7, entry))

	got, err := d.BitsFromEntry(7, 0)
	require.NoError(t, err)
	assert.Equal(t, bits, got)

	rotated, err := d.BitsFromEntry(7, 1)
	require.NoError(t, err)
	assert.Equal(t, rotate90(bits), rotated)

	_, err = d.BitsFromEntry(7, 4)
	assert.Error(t, err)
	_, err = d.BitsFromEntry(-1, 0)
	assert.Error(t, err)
}

func TestGenerateImageMarker(t *testing.T) {
	d := Predefined6x6250()
	bits := diagonalBits()
	entry, err := ByteListFromBits(bits)
	require.NoError(t, err)
	require.NoError(t, d.SetEntry(24, entry))

	const side = 80 // 10 pixels per module
	img, err := d.GenerateImageMarker(24, side)
	require.NoError(t, err)
	require.Equal(t, side, img.Bounds().Dx())

	// Border module is black.
	assert.Equal(t, uint8(model.Black), img.GrayAt(5, 5).Y)
	// Payload (0,0) is bit 1: black. Module (1,1), sampled at its center.
	assert.Equal(t, uint8(model.Black), img.GrayAt(15, 15).Y)
	// Payload (0,1) is bit 1 as well (diagonalBits sets [0][1]).
	assert.Equal(t, uint8(model.Black), img.GrayAt(25, 15).Y)
	// Payload (1,0) is bit 0: white. Module (1,2).
	assert.Equal(t, uint8(model.White), img.GrayAt(15, 25).Y)

	_, err = d.GenerateImageMarker(24, 4)
	assert.Error(t, err)
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markerscan/markerd/pkg/core"
)

func unitSquare() [4]core.Point {
	return [4]core.Point{
		{X: 10, Y: 10},
		{X: 20, Y: 10},
		{X: 20, Y: 20},
		{X: 10, Y: 20},
	}
}

func TestQuadPolygonValid(t *testing.T) {
	poly, err := QuadPolygon(unitSquare())
	require.NoError(t, err)
	assert.InDelta(t, 100.0, poly.Area(), 1e-9)
}

func TestQuadPolygonDegenerate(t *testing.T) {
	corners := [4]core.Point{
		{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5},
	}
	_, err := QuadPolygon(corners)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateQuad)
}

func TestQuadCenter(t *testing.T) {
	c := QuadCenter(unitSquare())
	assert.InDelta(t, 15.0, c.X, 1e-9)
	assert.InDelta(t, 15.0, c.Y, 1e-9)
}

func TestQuadCenterDegenerateFallsBack(t *testing.T) {
	corners := [4]core.Point{
		{X: 4, Y: 8}, {X: 4, Y: 8}, {X: 4, Y: 8}, {X: 4, Y: 8},
	}
	c := QuadCenter(corners)
	assert.InDelta(t, 4.0, c.X, 1e-9)
	assert.InDelta(t, 8.0, c.Y, 1e-9)
}

func TestQuadAreaDegenerate(t *testing.T) {
	corners := [4]core.Point{
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3},
	}
	assert.Equal(t, 0.0, QuadArea(corners))
}

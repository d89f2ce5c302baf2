// Package geo computes overlay geometry for detected marker quads in
// frame pixel space.
package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/markerscan/markerd/pkg/core"
)

// ErrDegenerateQuad is returned when corner points do not form a valid
// polygon (repeated or collinear points).
var ErrDegenerateQuad = errors.New("degenerate marker quad")

// QuadPolygon builds a closed polygon from four corner points in
// detection order.
func QuadPolygon(corners [4]core.Point) (geom.Polygon, error) {
	coords := make([]float64, 0, 10)
	for _, c := range corners {
		coords = append(coords, c.X, c.Y)
	}
	// Close the ring back to the first corner.
	coords = append(coords, corners[0].X, corners[0].Y)

	seq := geom.NewSequence(coords, geom.DimXY)
	ring := geom.NewLineString(seq)
	poly := geom.NewPolygon([]geom.LineString{ring})
	if err := poly.Validate(); err != nil {
		return geom.Polygon{}, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}
	return poly, nil
}

// QuadCenter returns the centroid of a detected marker quad. Falls back
// to the corner average when the quad is degenerate.
func QuadCenter(corners [4]core.Point) core.Point {
	poly, err := QuadPolygon(corners)
	if err == nil {
		if c, ok := poly.Centroid().XY(); ok {
			return core.Point{X: c.X, Y: c.Y}
		}
	}

	var sx, sy float64
	for _, c := range corners {
		sx += c.X
		sy += c.Y
	}
	return core.Point{X: sx / 4, Y: sy / 4}
}

// QuadArea returns the area of a detected marker quad in square pixels,
// or 0 for a degenerate quad.
func QuadArea(corners [4]core.Point) float64 {
	poly, err := QuadPolygon(corners)
	if err != nil {
		return 0
	}
	return poly.Area()
}

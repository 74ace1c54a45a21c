/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Gomerge

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BBox is an axis aligned bounding box in the units of a raster's spatial
// reference. A BBox always has a positive width and height.
type BBox struct {
	minX, minY, maxX, maxY float64
}

// NewBBox validates and creates a bounding box. Boxes with minx >= maxx or
// miny >= maxy (or NaN coordinates) are rejected with ErrDegenerateBox.
func NewBBox(minX, minY, maxX, maxY float64) (BBox, error) {
	if !(minX < maxX) || !(minY < maxY) {
		return BBox{}, fmt.Errorf("%w: (%g, %g, %g, %g)", ErrDegenerateBox, minX, minY, maxX, maxY)
	}
	return BBox{minX: minX, minY: minY, maxX: maxX, maxY: maxY}, nil
}

// BBoxFromBound converts an orb bound into a BBox.
func BBoxFromBound(b orb.Bound) (BBox, error) {
	return NewBBox(b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

func (b BBox) MinX() float64 { return b.minX }
func (b BBox) MinY() float64 { return b.minY }
func (b BBox) MaxX() float64 { return b.maxX }
func (b BBox) MaxY() float64 { return b.maxY }

func (b BBox) Width() float64  { return b.maxX - b.minX }
func (b BBox) Height() float64 { return b.maxY - b.minY }

// Combination returns the envelope of both boxes.
func (b BBox) Combination(other BBox) BBox {
	return BBox{
		minX: min(b.minX, other.minX),
		minY: min(b.minY, other.minY),
		maxX: max(b.maxX, other.maxX),
		maxY: max(b.maxY, other.maxY),
	}
}

// Intersection returns the overlap of both boxes, or an error wrapping
// ErrDegenerateBox when they do not overlap.
func (b BBox) Intersection(other BBox) (BBox, error) {
	box, err := NewBBox(
		max(b.minX, other.minX),
		max(b.minY, other.minY),
		min(b.maxX, other.maxX),
		min(b.maxY, other.maxY),
	)
	if err != nil {
		return BBox{}, fmt.Errorf("no intersection found: %w", err)
	}
	return box, nil
}

// Contains reports whether other lies completely inside b.
func (b BBox) Contains(other BBox) bool {
	return other.minX >= b.minX && other.minY >= b.minY &&
		other.maxX <= b.maxX && other.maxY <= b.maxY
}

// Bound converts the box into an orb bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.minX, b.minY}, Max: orb.Point{b.maxX, b.maxY}}
}

func (b BBox) String() string {
	return fmt.Sprintf("BBox(%g, %g, %g, %g)", b.minX, b.minY, b.maxX, b.maxY)
}

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

import "fmt"

// Rect is an area of a 2D pixel grid: an offset and a size. Sizes are never
// negative.
type Rect struct {
	offsetX, offsetY int
	sizeX, sizeY     int
}

// NewRect creates a rect from its offset and size. Negative sizes clamp to 0.
func NewRect(offsetX, offsetY, sizeX, sizeY int) Rect {
	return Rect{offsetX: offsetX, offsetY: offsetY, sizeX: max(0, sizeX), sizeY: max(0, sizeY)}
}

// RectFromBounds creates a rect from its offset and its (exclusive) upper
// corner. Inverted spans result in a zero sized rect.
func RectFromBounds(offsetX, offsetY, upperX, upperY int) Rect {
	return NewRect(offsetX, offsetY, upperX-offsetX, upperY-offsetY)
}

func (r Rect) OffsetX() int { return r.offsetX }
func (r Rect) OffsetY() int { return r.offsetY }
func (r Rect) SizeX() int   { return r.sizeX }
func (r Rect) SizeY() int   { return r.sizeY }
func (r Rect) UpperX() int  { return r.offsetX + r.sizeX }
func (r Rect) UpperY() int  { return r.offsetY + r.sizeY }
func (r Rect) Area() int    { return r.sizeX * r.sizeY }

func (r Rect) Offset() (int, int) { return r.offsetX, r.offsetY }
func (r Rect) Size() (int, int)   { return r.sizeX, r.sizeY }
func (r Rect) Upper() (int, int)  { return r.UpperX(), r.UpperY() }

// Combination returns the smallest rect containing both r and other.
func (r Rect) Combination(other Rect) Rect {
	return RectFromBounds(
		min(r.offsetX, other.offsetX),
		min(r.offsetY, other.offsetY),
		max(r.UpperX(), other.UpperX()),
		max(r.UpperY(), other.UpperY()),
	)
}

// Intersection returns the overlapping area of r and other. A zero area
// result means the rects do not overlap.
func (r Rect) Intersection(other Rect) Rect {
	return RectFromBounds(
		max(r.offsetX, other.offsetX),
		max(r.offsetY, other.offsetY),
		min(r.UpperX(), other.UpperX()),
		min(r.UpperY(), other.UpperY()),
	)
}

func (r Rect) Intersects(other Rect) bool {
	return r.Intersection(other).Area() > 0
}

// Translated shifts the offset by (dx, dy), the size is kept.
func (r Rect) Translated(dx, dy int) Rect {
	return Rect{offsetX: r.offsetX + dx, offsetY: r.offsetY + dy, sizeX: r.sizeX, sizeY: r.sizeY}
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%d, %d, %d, %d)", r.offsetX, r.offsetY, r.sizeX, r.sizeY)
}

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
	"math"
)

// Source is anything a RasterMerger can consume: a view on a raster plus the
// resources released once it has been merged.
type Source interface {
	View() *RasterView
	Close()
}

// RasterView is a read-only view on an open raster dataset, deriving its
// georeferencing from the dataset's geotransform.
type RasterView struct {
	ds    *RasterDataset
	owned bool
}

// NewRasterView wraps ds. The view never closes a dataset it was given.
func NewRasterView(ds *RasterDataset) *RasterView {
	return &RasterView{ds: ds}
}

// OpenRasterView opens path read-only. The view owns the dataset and closes
// it on Close.
func OpenRasterView(path string) (*RasterView, error) {
	ds, err := OpenRasterDataset(path, false)
	if err != nil {
		return nil, err
	}
	return &RasterView{ds: ds, owned: true}, nil
}

func (v *RasterView) View() *RasterView { return v }

func (v *RasterView) Dataset() *RasterDataset { return v.ds }

// Close releases the dataset if the view owns it.
func (v *RasterView) Close() {
	if v.owned && v.ds != nil {
		v.ds.Close()
	}
}

func (v *RasterView) BandCount() int { return v.ds.BandCount() }

func (v *RasterView) Size() (int, int) { return v.ds.Width(), v.ds.Height() }

// Resolution returns the absolute pixel size along both axes.
func (v *RasterView) Resolution() (float64, float64, error) {
	gt, err := v.ds.GeoTransform()
	if err != nil {
		return 0, 0, err
	}
	return math.Abs(gt[1]), math.Abs(gt[5]), nil
}

// BBox returns the extent of the raster in the units of its spatial
// reference, independent of the axis directions of the geotransform.
func (v *RasterView) BBox() (BBox, error) {
	gt, err := v.ds.GeoTransform()
	if err != nil {
		return BBox{}, err
	}
	sizeX, sizeY := v.Size()
	x1 := gt[0]
	x2 := gt[0] + float64(sizeX)*gt[1]
	y1 := gt[3]
	y2 := gt[3] + float64(sizeY)*gt[5]

	return NewBBox(min(x1, x2), min(y1, y2), max(x1, x2), max(y1, y2))
}

// SRS parses the projection of the dataset. The caller closes the result.
func (v *RasterView) SRS() (*SpatialRef, error) {
	return NewSpatialRefFromUserInput(v.ds.Projection())
}

// ReadData reads a window of a band (1-based), see RasterDataset.ReadWindow.
func (v *RasterView) ReadData(index int, r Rect, bufX, bufY int) ([]float64, error) {
	return v.ds.ReadWindow(index, r, bufX, bufY)
}

// GetWindow maps a bounding box onto the pixel grid. Offsets are biased by
// 0.1 and extents by 0.5 before truncation to absorb floating point noise in
// geotransforms.
func (v *RasterView) GetWindow(b BBox) (Rect, error) {
	gt, err := v.ds.GeoTransform()
	if err != nil {
		return Rect{}, err
	}
	logger.Debug().Floats64("geotransform", gt[:]).Str("bbox", b.String()).Msg("computing window")

	offsetX := int((b.MinX()-gt[0])/gt[1] + 0.1)
	offsetY := int((b.MaxY()-gt[3])/gt[5] + 0.1)
	sizeX := int((b.MaxX()-gt[0])/gt[1]+0.5) - offsetX
	sizeY := int((b.MinY()-gt[3])/gt[5]+0.5) - offsetY

	if sizeX < 1 || sizeY < 1 {
		return Rect{}, fmt.Errorf("%w: %s yields %dx%d pixels", ErrWindowTooSmall, b, sizeX, sizeY)
	}
	return NewRect(offsetX, offsetY, sizeX, sizeY), nil
}

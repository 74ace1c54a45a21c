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
)

// DefaultDriver is the output driver used when none is given.
const DefaultDriver = "GTiff"

// TargetOptions configures the output dataset of a merge.
type TargetOptions struct {
	Driver          string   // GDAL driver name, DefaultDriver when empty
	CreationOptions []string // KEY=VALUE options passed to the driver untouched
}

// MergeTarget is the output raster of a merge. It owns its dataset until the
// dataset is handed out by RasterMerger.Merge.
type MergeTarget struct {
	*RasterView
}

// NewMergeTarget creates the output dataset with an explicit grid.
func NewMergeTarget(path string, sizeX, sizeY int, geoTransform [6]float64, bandCount int,
	dataType DataType, projection string, opts TargetOptions) (*MergeTarget, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DefaultDriver
	}

	ds, err := CreateRasterDataset(driver, path, sizeX, sizeY, bandCount, dataType, opts.CreationOptions)
	if err != nil {
		return nil, err
	}
	if err := ds.SetGeoTransform(geoTransform); err != nil {
		ds.Close()
		return nil, err
	}
	if err := ds.SetProjection(projection); err != nil {
		ds.Close()
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Str("driver", driver).
		Int("size_x", sizeX).
		Int("size_y", sizeY).
		Floats64("geotransform", geoTransform[:]).
		Msg("created merge target")

	return &MergeTarget{RasterView: &RasterView{ds: ds, owned: true}}, nil
}

// MergeTargetFromSources derives the output grid from sources: all of them
// must share the spatial reference and band count of the first one. The
// finest resolution per axis and the union of all extents are used; pixel
// type and projection come from the first source.
func MergeTargetFromSources(path string, sources []Source, opts TargetOptions) (*MergeTarget, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	first := sources[0].View()
	resX, resY, err := first.Resolution()
	if err != nil {
		return nil, err
	}
	bbox, err := first.BBox()
	if err != nil {
		return nil, err
	}
	firstSRS, err := first.SRS()
	if err != nil {
		return nil, fmt.Errorf("%w: first source: %w", ErrIncompatibleSources, err)
	}
	defer firstSRS.Close()

	for i, source := range sources[1:] {
		view := source.View()
		if err := checkCompatible(first, firstSRS, view); err != nil {
			return nil, fmt.Errorf("source %d: %w", i+1, err)
		}

		sourceResX, sourceResY, err := view.Resolution()
		if err != nil {
			return nil, err
		}
		sourceBBox, err := view.BBox()
		if err != nil {
			return nil, err
		}
		bbox = bbox.Combination(sourceBBox)
		resX = min(resX, sourceResX)
		resY = min(resY, sourceResY)
	}

	sizeX := int(bbox.Width()/resX + .5)
	sizeY := int(bbox.Height()/resY + .5)
	gt := [6]float64{bbox.MinX(), resX, 0, bbox.MaxY(), 0, -resY}

	dataType, err := first.Dataset().BandDataType(1)
	if err != nil {
		return nil, err
	}

	return NewMergeTarget(path, sizeX, sizeY, gt, first.BandCount(), dataType, first.Dataset().Projection(), opts)
}

func checkCompatible(first *RasterView, firstSRS *SpatialRef, other *RasterView) error {
	if other.BandCount() != first.BandCount() {
		return fmt.Errorf("%w: band count %d differs from %d", ErrIncompatibleSources, other.BandCount(), first.BandCount())
	}
	srs, err := other.SRS()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIncompatibleSources, err)
	}
	defer srs.Close()
	if !srs.IsSame(firstSRS) {
		return fmt.Errorf("%w: spatial reference differs", ErrIncompatibleSources)
	}
	return nil
}

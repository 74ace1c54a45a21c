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

/*
#include "gomerge_utils.h"
*/
import "C"

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// footprintStripRows is the number of rows read per band at once while
// building the data mask.
const footprintStripRows = 256

// FootprintOptions configures a FootprintExtractor.
type FootprintOptions struct {
	SimplificationFactor float64 // tolerance in pixels of the source raster
	Connectedness        int     // 4 or 8
	TempDir              string  // directory for the scratch mask raster, /vsimem/ when empty
	Metrics              *Metrics
}

func DefaultFootprintOptions() *FootprintOptions {
	return &FootprintOptions{
		SimplificationFactor: 2,
		Connectedness:        4,
	}
}

// FootprintExtractor derives the outline of the valid data of a raster.
type FootprintExtractor struct {
	options *FootprintOptions
}

// NewFootprintExtractor creates an extractor, options may be nil.
func NewFootprintExtractor(options *FootprintOptions) *FootprintExtractor {
	if options == nil {
		options = DefaultFootprintOptions()
	}
	return &FootprintExtractor{options: options}
}

// GenerateFootprintWKT is a shortcut for an extractor with default options
// and the given simplification factor.
func GenerateFootprintWKT(ds *RasterDataset, simplificationFactor float64) (string, error) {
	options := DefaultFootprintOptions()
	options.SimplificationFactor = simplificationFactor
	return NewFootprintExtractor(options).GenerateFootprint(ds)
}

// GenerateFootprint returns the footprint of ds as WKT in EPSG:4326.
//
// A pixel belongs to the footprint when any band differs from its nodata
// value (0 when unset). The mask is polygonized; several polygons are
// replaced by the convex hull of their union, which may cover gaps between
// them. The result is simplified with a tolerance of SimplificationFactor
// times the smaller pixel size of ds.
func (fe *FootprintExtractor) GenerateFootprint(ds *RasterDataset) (footprint string, err error) {
	start := time.Now()
	defer func() {
		fe.options.Metrics.observeFootprint(start, err)
	}()

	if c := fe.options.Connectedness; c != 4 && c != 8 {
		return "", fmt.Errorf("invalid connectedness %d, expected 4 or 8", c)
	}

	sr, err := NewSpatialRefFromUserInput(ds.Projection())
	if err != nil {
		return "", err
	}
	defer sr.Close()

	layer, err := CreateMemoryLayer("poly", GeomPolygon, sr)
	if err != nil {
		return "", err
	}
	defer layer.Close()
	if err := layer.CreateIntField("DN"); err != nil {
		return "", err
	}

	err = withTemporaryDataset(ds.Width()+2, ds.Height()+2, 1, TypeByte, fe.options.TempDir, func(tmp *RasterDataset) error {
		if err := copyProjection(ds, tmp); err != nil {
			return err
		}
		if err := writeDataMask(ds, tmp); err != nil {
			return err
		}
		return polygonize(tmp, layer, fe.options.Connectedness)
	})
	if err != nil {
		return "", err
	}

	geometry, err := footprintGeometry(layer)
	if err != nil {
		return "", fmt.Errorf("footprint of %s: %w", ds.Path(), err)
	}
	defer geometry.Close()
	geometry.AssignSpatialRef(sr)

	if t := geometry.Type(); t != GeomPolygon && t != GeomMultiPolygon {
		return "", fmt.Errorf("%w: polygonization produced %s", ErrGeometryType, t)
	}

	outSR := sr
	if !sr.IsGeographic() {
		latLon, err := NewSpatialRefFromEPSG(DefaultSRID)
		if err != nil {
			return "", err
		}
		defer latLon.Close()
		if err := transformToLatLon(geometry, sr, latLon); err != nil {
			return "", err
		}
		outSR = latLon
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return "", err
	}
	tolerance := fe.options.SimplificationFactor * min(math.Abs(gt[1]), math.Abs(gt[5]))

	simplified, err := simplifyGeometry(geometry, tolerance, outSR)
	if err != nil {
		return "", err
	}
	defer simplified.Close()
	if simplified.IsEmpty() {
		return "", fmt.Errorf("%w: footprint of %s is empty after simplification", ErrInvalidGeometry, ds.Path())
	}

	footprint, err = simplified.WKT()
	if err != nil {
		return "", err
	}

	if env, err := simplified.Envelope(); err == nil {
		logger.Debug().Str("dataset", ds.Path()).Float64("tolerance", tolerance).Stringer("bounds", env).Msg("generated footprint")
	}
	return footprint, nil
}

// writeDataMask writes 1 into band 1 of dst for every pixel of src holding
// data in at least one band, 0 elsewhere.
func writeDataMask(src, dst *RasterDataset) error {
	width, height := src.Width(), src.Height()
	full := NewRect(0, 0, width, height)

	nodata := make([]float64, src.BandCount())
	for i := range nodata {
		value, ok, err := src.NoData(i + 1)
		if err != nil {
			return err
		}
		if ok {
			nodata[i] = value
		}
	}

	defer lockGDAL()()
	dstBand, err := dst.band(1)
	if err != nil {
		return err
	}

	for y := 0; y < height; y += footprintStripRows {
		strip := NewRect(0, y, width, footprintStripRows).Intersection(full)
		mask := make([]byte, strip.Area())

		for b := 1; b <= src.BandCount(); b++ {
			data, err := src.ReadWindow(b, strip, 0, 0)
			if err != nil {
				return err
			}
			nd := nodata[b-1]
			for i, v := range data {
				if mask[i] == 0 && hasData(v, nd) {
					mask[i] = 1
				}
			}
		}

		if err := writeBytes(dstBand, strip, mask); err != nil {
			return err
		}
	}
	return nil
}

func hasData(value, nodata float64) bool {
	if math.IsNaN(nodata) {
		return !math.IsNaN(value)
	}
	return value != nodata
}

// polygonize turns the non-zero regions of band 1 of ds into polygons in
// layer, which needs an integer field at index 0 for the pixel value.
func polygonize(ds *RasterDataset, layer *GDALLayer, connectedness int) error {
	defer lockGDAL()()
	band, err := ds.band(1)
	if err != nil {
		return err
	}

	var options []string
	if connectedness == 8 {
		options = append(options, "8CONNECTED=8")
	}
	cOptions := cStringList(options)
	defer C.CSLDestroy(cOptions)

	if C.GDALPolygonize(band, band, layer.layer, 0, cOptions, nil, nil) != C.CE_None {
		return lastError(ErrIO, "polygonize")
	}
	return nil
}

// footprintGeometry reduces the polygonized features to one geometry.
func footprintGeometry(layer *GDALLayer) (*Geometry, error) {
	count := layer.GetFeatureCount()
	if count == 0 {
		return nil, ErrEmptyFootprint
	}

	layer.ResetReading()
	geometry, ok := layer.NextGeometry()
	if !ok {
		return nil, ErrEmptyFootprint
	}
	if count == 1 {
		return geometry, nil
	}

	for {
		next, ok := layer.NextGeometry()
		if !ok {
			break
		}
		union, err := geometry.Union(next)
		next.Close()
		geometry.Close()
		if err != nil {
			return nil, err
		}
		geometry = union
	}

	// TODO: replace the convex hull with a tighter minimum bounding polygon
	hull, err := geometry.ConvexHull()
	geometry.Close()
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("polygons", count).Msg("footprint reduced to convex hull")
	return hull, nil
}

// transformToLatLon reprojects geometry from sr to latLon, retrying with an
// explicit coordinate transformation when the direct transform fails.
func transformToLatLon(geometry *Geometry, sr, latLon *SpatialRef) error {
	direct := geometry.TransformTo(latLon)
	if direct == nil {
		return nil
	}
	logger.Debug().Err(direct).Msg("direct geometry transform failed, retrying with coordinate transformation")

	ct, err := NewCoordinateTransform(sr, latLon)
	if err != nil {
		return fmt.Errorf("%w (direct transform: %v)", err, direct)
	}
	defer ct.Close()

	if err := geometry.Transform(ct); err != nil {
		return fmt.Errorf("%w (direct transform: %v)", err, direct)
	}
	return nil
}

// ParseFootprint parses a footprint WKT into an orb geometry.
func ParseFootprint(footprint string) (orb.Geometry, error) {
	geom, err := wkt.Unmarshal(footprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	return geom, nil
}

// FootprintBounds returns the envelope of a footprint WKT.
func FootprintBounds(footprint string) (BBox, error) {
	geom, err := ParseFootprint(footprint)
	if err != nil {
		return BBox{}, err
	}
	return BBoxFromBound(geom.Bound())
}

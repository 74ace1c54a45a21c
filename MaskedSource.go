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

import "fmt"

// DefaultSRID is the EPSG code assumed for mask polygons without one.
const DefaultSRID = 4326

// MaskOptions configures NewMaskedSource.
type MaskOptions struct {
	TempDir    string // directory for the scratch mask raster, /vsimem/ when empty
	OwnDataset bool   // close the dataset when the source is closed
}

// MaskedSource is a merge source whose dataset carries a per-dataset mask
// band derived from a polygon. The warper honours that mask when the source
// is merged.
type MaskedSource struct {
	*RasterView
}

// NewMaskedSource rasterizes the polygon wkt (in EPSG:srid, 0 meaning
// DefaultSRID) against the grid of ds and stores the result in a new
// per-dataset mask band of ds. Pixels covered by the polygon are burnt as 0,
// all others keep 1.
func NewMaskedSource(ds *RasterDataset, wkt string, srid int, opts *MaskOptions) (*MaskedSource, error) {
	if opts == nil {
		opts = &MaskOptions{}
	}
	if srid == 0 {
		srid = DefaultSRID
	}

	sr, err := NewSpatialRefFromEPSG(srid)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	geom, err := NewGeometryFromWKT(wkt, sr)
	if err != nil {
		return nil, err
	}
	defer geom.Close()

	layer, err := CreateMemoryLayer("poly", GeomUnknown, sr)
	if err != nil {
		return nil, err
	}
	defer layer.Close()

	if err := layer.AddGeometry(geom); err != nil {
		return nil, err
	}

	err = withTemporaryDataset(ds.Width(), ds.Height(), 1, TypeByte, opts.TempDir, func(mask *RasterDataset) error {
		if err := mask.Fill(1, 1); err != nil {
			return err
		}
		if err := copyProjection(ds, mask); err != nil {
			return err
		}
		if err := rasterizeLayer(mask, layer, 0); err != nil {
			return err
		}
		if err := ds.CreateMaskBand(MaskPerDataset); err != nil {
			return err
		}
		return copyMaskBlocks(mask, ds)
	})
	if err != nil {
		return nil, fmt.Errorf("mask %s: %w", ds.Path(), err)
	}

	logger.Debug().Str("dataset", ds.Path()).Int("srid", srid).Msg("created geometry mask")
	return &MaskedSource{RasterView: &RasterView{ds: ds, owned: opts.OwnDataset}}, nil
}

// rasterizeLayer burns every feature of layer into band 1 of ds.
func rasterizeLayer(ds *RasterDataset, layer *GDALLayer, burnValue float64) error {
	defer lockGDAL()()
	h, err := ds.handle()
	if err != nil {
		return err
	}

	bands := [1]C.int{1}
	layers := [1]C.OGRLayerH{layer.layer}
	burn := [1]C.double{C.double(burnValue)}

	if C.GDALRasterizeLayers(h, 1, &bands[0], 1, &layers[0], nil, nil, &burn[0], nil, nil, nil) != C.CE_None {
		return lastError(ErrIO, "rasterize layer")
	}
	return nil
}

// copyMaskBlocks copies band 1 of src into the mask band of dst, one block
// of src at a time. Partial blocks at the right and bottom edges are copied
// with their actual size.
func copyMaskBlocks(src, dst *RasterDataset) error {
	defer lockGDAL()()

	srcBand, err := src.band(1)
	if err != nil {
		return err
	}
	dstBand, err := dst.band(1)
	if err != nil {
		return err
	}
	maskBand := C.GDALGetMaskBand(dstBand)
	if maskBand == nil {
		return lastError(ErrResourceCreation, "get mask band")
	}

	blockX, blockY, err := src.BlockSize(1)
	if err != nil {
		return err
	}
	full := NewRect(0, 0, src.Width(), src.Height())

	for y := 0; y < src.Height(); y += blockY {
		for x := 0; x < src.Width(); x += blockX {
			block := NewRect(x, y, blockX, blockY).Intersection(full)
			data, err := readBytes(srcBand, block)
			if err != nil {
				return err
			}
			if err := writeBytes(maskBand, block, data); err != nil {
				return err
			}
		}
	}
	return nil
}

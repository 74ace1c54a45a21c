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
	"runtime"
	"unsafe"
)

type GeomType int

const (
	GeomUnknown         GeomType = 0
	GeomPoint           GeomType = 1
	GeomLineString      GeomType = 2
	GeomPolygon         GeomType = 3
	GeomMultiPoint      GeomType = 4
	GeomMultiLineString GeomType = 5
	GeomMultiPolygon    GeomType = 6
	GeomCollection      GeomType = 7
)

func (t GeomType) String() string {
	return C.GoString(C.OGRGeometryTypeToName(C.OGRwkbGeometryType(t)))
}

// CreateMemoryLayer creates a single layer in a new in-memory vector data
// source. srs may be nil.
func CreateMemoryLayer(layerName string, geomType GeomType, srs *SpatialRef) (*GDALLayer, error) {
	defer lockGDAL()()

	var driver C.OGRSFDriverH
	// GDAL 3.11 folded the Memory driver into MEM
	for _, name := range []string{"Memory", "MEM"} {
		driverName := C.CString(name)
		driver = C.OGRGetDriverByName(driverName)
		C.free(unsafe.Pointer(driverName))
		if driver != nil {
			break
		}
	}
	if driver == nil {
		return nil, &GDALError{Kind: ErrResourceCreation, Op: "create memory layer", Msg: "Memory driver not available"}
	}

	dsName := C.CString("")
	defer C.free(unsafe.Pointer(dsName))

	dataset := C.OGR_Dr_CreateDataSource(driver, dsName, nil)
	if dataset == nil {
		return nil, lastError(ErrResourceCreation, "create memory data source")
	}

	cLayerName := C.CString(layerName)
	defer C.free(unsafe.Pointer(cLayerName))

	var srsHandle C.OGRSpatialReferenceH
	if srs != nil {
		srsHandle = srs.handle
	}
	layer := C.OGR_DS_CreateLayer(dataset, cLayerName, srsHandle, C.OGRwkbGeometryType(geomType), nil)
	if layer == nil {
		err := lastError(ErrResourceCreation, "create layer "+layerName)
		C.OGR_DS_Destroy(dataset)
		return nil, err
	}

	gl := &GDALLayer{
		layer:   layer,
		dataset: dataset,
		driver:  driver,
	}
	runtime.SetFinalizer(gl, (*GDALLayer).Close)
	return gl, nil
}

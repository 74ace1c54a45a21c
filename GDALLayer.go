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
	"unsafe"
)

// GDALLayer is a vector layer together with the data source owning it.
type GDALLayer struct {
	layer   C.OGRLayerH
	dataset C.OGRDataSourceH
	driver  C.OGRSFDriverH
}

// GetFeatureCount returns the number of features, forcing a full count.
func (gl *GDALLayer) GetFeatureCount() int {
	return int(C.OGR_L_GetFeatureCount(gl.layer, C.int(1)))
}

// CreateIntField adds an integer attribute field.
func (gl *GDALLayer) CreateIntField(name string) error {
	defer lockGDAL()()

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	fieldDefn := C.OGR_Fld_Create(cName, C.OFTInteger)
	defer C.OGR_Fld_Destroy(fieldDefn)

	if C.OGR_L_CreateField(gl.layer, fieldDefn, C.int(1)) != C.OGRERR_NONE {
		return lastError(ErrResourceCreation, fmt.Sprintf("create field %s", name))
	}
	return nil
}

// AddGeometry stores a copy of geom as a new feature.
func (gl *GDALLayer) AddGeometry(geom *Geometry) error {
	defer lockGDAL()()

	feature := C.OGR_F_Create(C.OGR_L_GetLayerDefn(gl.layer))
	if feature == nil {
		return lastError(ErrResourceCreation, "create feature")
	}
	defer C.OGR_F_Destroy(feature)

	if C.OGR_F_SetGeometry(feature, geom.handle) != C.OGRERR_NONE {
		return lastError(ErrInvalidGeometry, "set feature geometry")
	}
	if C.OGR_L_CreateFeature(gl.layer, feature) != C.OGRERR_NONE {
		return lastError(ErrResourceCreation, "add feature")
	}
	return nil
}

// ResetReading restarts NextGeometry at the first feature.
func (gl *GDALLayer) ResetReading() {
	C.OGR_L_ResetReading(gl.layer)
}

// NextGeometry returns a copy of the geometry of the next feature. Features
// without a geometry are skipped.
func (gl *GDALLayer) NextGeometry() (*Geometry, bool) {
	for {
		feature := C.OGR_L_GetNextFeature(gl.layer)
		if feature == nil {
			return nil, false
		}
		ref := C.OGR_F_GetGeometryRef(feature)
		var clone C.OGRGeometryH
		if ref != nil {
			clone = C.OGR_G_Clone(ref)
		}
		C.OGR_F_Destroy(feature)
		if clone != nil {
			return &Geometry{handle: clone}, true
		}
	}
}

// Close destroys the data source and with it the layer.
func (gl *GDALLayer) Close() {
	if gl.dataset != nil {
		C.OGR_DS_Destroy(gl.dataset)
		gl.dataset = nil
		gl.layer = nil
	}
}

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
	"unsafe"
)

// SpatialRef is an OGR spatial reference system. All references created here
// use the traditional GIS axis order (x = easting/longitude).
type SpatialRef struct {
	handle C.OGRSpatialReferenceH
}

// NewSpatialRefFromUserInput parses any definition accepted by GDAL: WKT,
// PROJ strings, "EPSG:n" and friends.
func NewSpatialRefFromUserInput(definition string) (*SpatialRef, error) {
	defer lockGDAL()()

	h := C.newTraditionalSRS()
	if h == nil {
		return nil, lastError(ErrResourceCreation, "create spatial reference")
	}
	cDef := C.CString(definition)
	defer C.free(unsafe.Pointer(cDef))
	if C.OSRSetFromUserInput(h, cDef) != C.OGRERR_NONE {
		C.OSRDestroySpatialReference(h)
		return nil, lastError(ErrSpatialRef, "parse spatial reference")
	}
	return &SpatialRef{handle: h}, nil
}

func NewSpatialRefFromEPSG(code int) (*SpatialRef, error) {
	defer lockGDAL()()

	h := C.newTraditionalSRS()
	if h == nil {
		return nil, lastError(ErrResourceCreation, "create spatial reference")
	}
	if C.OSRImportFromEPSG(h, C.int(code)) != C.OGRERR_NONE {
		C.OSRDestroySpatialReference(h)
		return nil, lastError(ErrSpatialRef, "import EPSG code")
	}
	return &SpatialRef{handle: h}, nil
}

// IsSame compares two reference systems by definition, not by name.
func (sr *SpatialRef) IsSame(other *SpatialRef) bool {
	if sr == nil || other == nil {
		return false
	}
	return C.OSRIsSame(sr.handle, other.handle) != 0
}

// IsGeographic reports whether the reference system is a lat/lon one.
func (sr *SpatialRef) IsGeographic() bool {
	return C.OSRIsGeographic(sr.handle) != 0
}

func (sr *SpatialRef) WKT() (string, error) {
	defer lockGDAL()()
	var p *C.char
	if C.OSRExportToWkt(sr.handle, &p) != C.OGRERR_NONE {
		return "", lastError(ErrSpatialRef, "export spatial reference")
	}
	defer C.VSIFree(unsafe.Pointer(p))
	return C.GoString(p), nil
}

// Close drops this reference, geometries it was assigned to keep their own.
func (sr *SpatialRef) Close() {
	if sr.handle != nil {
		C.OSRRelease(sr.handle)
		sr.handle = nil
	}
}

// CoordinateTransform transforms coordinates between two reference systems.
type CoordinateTransform struct {
	handle C.OGRCoordinateTransformationH
}

func NewCoordinateTransform(src, dst *SpatialRef) (*CoordinateTransform, error) {
	defer lockGDAL()()
	h := C.OCTNewCoordinateTransformation(src.handle, dst.handle)
	if h == nil {
		return nil, lastError(ErrReprojection, "create coordinate transformation")
	}
	return &CoordinateTransform{handle: h}, nil
}

func (ct *CoordinateTransform) Close() {
	if ct.handle != nil {
		C.OCTDestroyCoordinateTransformation(ct.handle)
		ct.handle = nil
	}
}

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

	"github.com/paulmach/orb"
)

// Geometry is an owned OGR geometry.
type Geometry struct {
	handle C.OGRGeometryH
}

// NewGeometryFromWKT parses wkt. sr may be nil; when set it is assigned to
// the geometry.
func NewGeometryFromWKT(wkt string, sr *SpatialRef) (*Geometry, error) {
	defer lockGDAL()()

	cWkt := C.CString(wkt)
	defer C.free(unsafe.Pointer(cWkt))

	var srs C.OGRSpatialReferenceH
	if sr != nil {
		srs = sr.handle
	}
	var h C.OGRGeometryH
	cursor := cWkt
	if C.OGR_G_CreateFromWkt(&cursor, srs, &h) != C.OGRERR_NONE || h == nil {
		return nil, lastError(ErrInvalidGeometry, "parse WKT")
	}
	return &Geometry{handle: h}, nil
}

func (g *Geometry) WKT() (string, error) {
	defer lockGDAL()()
	var p *C.char
	if C.OGR_G_ExportToWkt(g.handle, &p) != C.OGRERR_NONE {
		return "", lastError(ErrInvalidGeometry, "export WKT")
	}
	defer C.VSIFree(unsafe.Pointer(p))
	return C.GoString(p), nil
}

// Type returns the geometry type without Z/M flags.
func (g *Geometry) Type() GeomType {
	return GeomType(C.flatGeometryType(g.handle))
}

func (g *Geometry) IsEmpty() bool {
	return C.OGR_G_IsEmpty(g.handle) != 0
}

func (g *Geometry) Area() float64 {
	return float64(C.OGR_G_Area(g.handle))
}

// Envelope returns the bounding box of the geometry.
func (g *Geometry) Envelope() (BBox, error) {
	var env C.OGREnvelope
	C.OGR_G_GetEnvelope(g.handle, &env)
	return NewBBox(float64(env.MinX), float64(env.MinY), float64(env.MaxX), float64(env.MaxY))
}

func (g *Geometry) Clone() *Geometry {
	return &Geometry{handle: C.OGR_G_Clone(g.handle)}
}

// AssignSpatialRef sets the reference system without transforming.
func (g *Geometry) AssignSpatialRef(sr *SpatialRef) {
	C.OGR_G_AssignSpatialReference(g.handle, sr.handle)
}

func (g *Geometry) Union(other *Geometry) (*Geometry, error) {
	defer lockGDAL()()
	h := C.OGR_G_Union(g.handle, other.handle)
	if h == nil {
		return nil, lastError(ErrInvalidGeometry, "union")
	}
	return &Geometry{handle: h}, nil
}

func (g *Geometry) ConvexHull() (*Geometry, error) {
	defer lockGDAL()()
	h := C.OGR_G_ConvexHull(g.handle)
	if h == nil {
		return nil, lastError(ErrInvalidGeometry, "convex hull")
	}
	return &Geometry{handle: h}, nil
}

// TransformTo reprojects the geometry in place from its assigned reference
// system to sr.
func (g *Geometry) TransformTo(sr *SpatialRef) error {
	defer lockGDAL()()
	if C.OGR_G_TransformTo(g.handle, sr.handle) != C.OGRERR_NONE {
		return lastError(ErrReprojection, "transform geometry")
	}
	return nil
}

// Transform reprojects the geometry in place with an explicit transformation.
func (g *Geometry) Transform(ct *CoordinateTransform) error {
	defer lockGDAL()()
	if C.OGR_G_Transform(g.handle, ct.handle) != C.OGRERR_NONE {
		return lastError(ErrReprojection, "transform geometry")
	}
	return nil
}

// SimplifyPreserveTopology needs a GEOS enabled GDAL build, see
// topologySimplifyAvailable.
func (g *Geometry) SimplifyPreserveTopology(tolerance float64) (*Geometry, error) {
	defer lockGDAL()()
	h := C.OGR_G_SimplifyPreserveTopology(g.handle, C.double(tolerance))
	if h == nil {
		return nil, lastError(ErrInvalidGeometry, "simplify")
	}
	return &Geometry{handle: h}, nil
}

func (g *Geometry) Close() {
	if g.handle != nil {
		C.OGR_G_DestroyGeometry(g.handle)
		g.handle = nil
	}
}

// Orb converts a polygon or multipolygon into its orb counterpart.
func (g *Geometry) Orb() (orb.Geometry, error) {
	switch g.Type() {
	case GeomPolygon:
		return convertPolygon(g.handle), nil
	case GeomMultiPolygon:
		return convertMultiPolygon(g.handle), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrGeometryType, g.Type())
	}
}

// NewGeometryFromOrb builds an OGR polygon or multipolygon from orb. sr may
// be nil.
func NewGeometryFromOrb(geom orb.Geometry, sr *SpatialRef) (*Geometry, error) {
	if geom == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrInvalidGeometry)
	}
	var h C.OGRGeometryH
	switch geom := geom.(type) {
	case orb.Polygon:
		h = createOGRPolygon(geom)
	case orb.MultiPolygon:
		h = C.OGR_G_CreateGeometry(C.wkbMultiPolygon)
		for _, poly := range geom {
			C.OGR_G_AddGeometryDirectly(h, createOGRPolygon(poly))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrGeometryType, geom.GeoJSONType())
	}
	if sr != nil {
		C.OGR_G_AssignSpatialReference(h, sr.handle)
	}
	return &Geometry{handle: h}, nil
}

func convertRing(h C.OGRGeometryH) orb.Ring {
	pointCount := int(C.OGR_G_GetPointCount(h))
	ring := make(orb.Ring, pointCount)
	for i := 0; i < pointCount; i++ {
		var x, y, z C.double
		C.OGR_G_GetPoint(h, C.int(i), &x, &y, &z)
		ring[i] = orb.Point{float64(x), float64(y)}
	}
	return ring
}

func convertPolygon(h C.OGRGeometryH) orb.Polygon {
	ringCount := int(C.OGR_G_GetGeometryCount(h))
	polygon := make(orb.Polygon, ringCount)
	for i := 0; i < ringCount; i++ {
		polygon[i] = convertRing(C.OGR_G_GetGeometryRef(h, C.int(i)))
	}
	return polygon
}

func convertMultiPolygon(h C.OGRGeometryH) orb.MultiPolygon {
	geomCount := int(C.OGR_G_GetGeometryCount(h))
	multiPolygon := make(orb.MultiPolygon, geomCount)
	for i := 0; i < geomCount; i++ {
		multiPolygon[i] = convertPolygon(C.OGR_G_GetGeometryRef(h, C.int(i)))
	}
	return multiPolygon
}

func createOGRLinearRing(ring orb.Ring) C.OGRGeometryH {
	h := C.OGR_G_CreateGeometry(C.wkbLinearRing)
	for _, p := range ring {
		C.OGR_G_AddPoint_2D(h, C.double(p[0]), C.double(p[1]))
	}
	return h
}

func createOGRPolygon(polygon orb.Polygon) C.OGRGeometryH {
	h := C.OGR_G_CreateGeometry(C.wkbPolygon)
	for _, ring := range polygon {
		C.OGR_G_AddGeometryDirectly(h, createOGRLinearRing(ring))
	}
	return h
}

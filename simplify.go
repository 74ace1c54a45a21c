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
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

var (
	topologyOnce      sync.Once
	topologyAvailable bool
)

// topologySimplifyAvailable reports whether the linked GDAL can simplify
// while preserving topology (it needs GEOS). The check runs once.
var topologySimplifyAvailable = func() bool {
	topologyOnce.Do(func() {
		square, err := NewGeometryFromWKT("POLYGON ((0 0,1 0,1 1,0 1,0 0))", nil)
		if err != nil {
			return
		}
		defer square.Close()
		simplified, err := square.SimplifyPreserveTopology(0.1)
		if err != nil {
			return
		}
		simplified.Close()
		topologyAvailable = true
	})
	return topologyAvailable
}

// simplifyGeometry returns a simplified copy of g. A tolerance of 0 returns
// an unchanged copy. Without topology preserving simplification in GDAL, the
// Douglas-Peucker simplifier of orb is used instead; it may produce
// self-intersecting rings.
func simplifyGeometry(g *Geometry, tolerance float64, sr *SpatialRef) (*Geometry, error) {
	if tolerance <= 0 {
		return g.Clone(), nil
	}
	if topologySimplifyAvailable() {
		return g.SimplifyPreserveTopology(tolerance)
	}

	logger.Warn().Float64("tolerance", tolerance).Msg("topology preserving simplification unavailable, using Douglas-Peucker")
	return simplifyFallback(g, tolerance, sr)
}

func simplifyFallback(g *Geometry, tolerance float64, sr *SpatialRef) (*Geometry, error) {
	geom, err := g.Orb()
	if err != nil {
		return nil, err
	}

	simplified := simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(geom))
	switch s := simplified.(type) {
	case orb.Polygon:
		if !validPolygon(s) {
			return nil, fmt.Errorf("%w: simplification collapsed the polygon", ErrInvalidGeometry)
		}
	case orb.MultiPolygon:
		kept := make(orb.MultiPolygon, 0, len(s))
		for _, p := range s {
			if validPolygon(p) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("%w: simplification collapsed the multipolygon", ErrInvalidGeometry)
		}
		simplified = kept
	default:
		return nil, fmt.Errorf("%w: simplification returned %T", ErrGeometryType, simplified)
	}

	return NewGeometryFromOrb(simplified, sr)
}

// validPolygon reports whether the exterior ring still encloses an area.
func validPolygon(p orb.Polygon) bool {
	return len(p) > 0 && len(p[0]) >= 4
}

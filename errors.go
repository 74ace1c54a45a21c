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

import "errors"

// Error kinds. Failed GDAL calls and domain errors wrap one of them.
var (
	ErrDegenerateBox       = errors.New("degenerate box")
	ErrWindowTooSmall      = errors.New("computed window is smaller than 1 pixel")
	ErrIncompatibleSources = errors.New("incompatible sources")
	ErrNoSources           = errors.New("no sources applied")
	ErrGeometryType        = errors.New("wrong geometry type")
	ErrReprojection        = errors.New("reprojection failed")
	ErrResourceCreation    = errors.New("resource creation failed")
	ErrEmptyFootprint      = errors.New("no footprint polygon found")
	ErrInvalidGeometry     = errors.New("invalid geometry")
	ErrIO                  = errors.New("raster io failed")
	ErrSpatialRef          = errors.New("invalid spatial reference")
)

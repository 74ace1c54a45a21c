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
	"path/filepath"
	"unsafe"

	"github.com/google/uuid"
)

const tempDriver = "GTiff"

// withTemporaryDataset creates a scratch raster, hands it to fn and removes
// it afterwards, whatever fn returns. Without a tempDir the raster lives in
// /vsimem/.
func withTemporaryDataset(width, height, bands int, dtype DataType, tempDir string, fn func(*RasterDataset) error) error {
	name := "gomerge_" + uuid.New().String() + ".tif"
	path := "/vsimem/" + name
	if tempDir != "" {
		path = filepath.Join(tempDir, name)
	}

	ds, err := CreateRasterDataset(tempDriver, path, width, height, bands, dtype, nil)
	if err != nil {
		return err
	}
	defer func() {
		ds.Close()
		deleteDataset(tempDriver, path)
		logger.Debug().Str("path", path).Msg("removed temporary dataset")
	}()

	return fn(ds)
}

func deleteDataset(driverName, path string) {
	cDriver := C.CString(driverName)
	defer C.free(unsafe.Pointer(cDriver))
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	if driver := C.GDALGetDriverByName(cDriver); driver != nil {
		C.GDALDeleteDataset(driver, cPath)
	}
}

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
	"runtime"
	"unsafe"
)

// DataType is a GDAL pixel data type.
type DataType int

const (
	TypeUnknown = DataType(C.GDT_Unknown)
	TypeByte    = DataType(C.GDT_Byte)
	TypeUInt16  = DataType(C.GDT_UInt16)
	TypeInt16   = DataType(C.GDT_Int16)
	TypeUInt32  = DataType(C.GDT_UInt32)
	TypeInt32   = DataType(C.GDT_Int32)
	TypeFloat32 = DataType(C.GDT_Float32)
	TypeFloat64 = DataType(C.GDT_Float64)
)

func (dt DataType) String() string {
	return C.GoString(C.GDALGetDataTypeName(C.GDALDataType(dt)))
}

// MaskPerDataset is the mask flag for a mask band shared by all bands.
const MaskPerDataset = int(C.GMF_PER_DATASET)

// RasterDataset is an open GDAL raster dataset.
type RasterDataset struct {
	dataset   C.GDALDatasetH
	filePath  string
	width     int
	height    int
	bandCount int
}

func newRasterDataset(h C.GDALDatasetH, path string) *RasterDataset {
	rd := &RasterDataset{
		dataset:   h,
		filePath:  path,
		width:     int(C.GDALGetRasterXSize(h)),
		height:    int(C.GDALGetRasterYSize(h)),
		bandCount: int(C.GDALGetRasterCount(h)),
	}
	runtime.SetFinalizer(rd, (*RasterDataset).Close)
	return rd
}

// OpenRasterDataset opens a raster, read-only unless update is set.
func OpenRasterDataset(path string, update bool) (*RasterDataset, error) {
	defer lockGDAL()()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var access C.GDALAccess = C.GA_ReadOnly
	if update {
		access = C.GA_Update
	}
	h := C.GDALOpen(cPath, access)
	if h == nil {
		return nil, lastError(ErrIO, "open "+path)
	}
	return newRasterDataset(h, path), nil
}

// CreateRasterDataset creates a new raster with the named driver. Creation
// options are KEY=VALUE strings handed to the driver untouched.
func CreateRasterDataset(driverName, path string, width, height, bands int, dtype DataType, creationOptions []string) (*RasterDataset, error) {
	defer lockGDAL()()

	cDriver := C.CString(driverName)
	defer C.free(unsafe.Pointer(cDriver))
	driver := C.GDALGetDriverByName(cDriver)
	if driver == nil {
		return nil, &GDALError{Kind: ErrResourceCreation, Op: "create " + path, Msg: "driver " + driverName + " not available"}
	}

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	opts := cStringList(creationOptions)
	defer C.CSLDestroy(opts)

	h := C.GDALCreate(driver, cPath, C.int(width), C.int(height), C.int(bands), C.GDALDataType(dtype), opts)
	if h == nil {
		return nil, lastError(ErrResourceCreation, "create "+path)
	}
	return newRasterDataset(h, path), nil
}

// CreateMemRaster creates an unnamed raster held by the MEM driver.
func CreateMemRaster(width, height, bands int, dtype DataType) (*RasterDataset, error) {
	return CreateRasterDataset("MEM", "", width, height, bands, dtype, nil)
}

// Close releases the dataset. Safe to call more than once.
func (rd *RasterDataset) Close() {
	if rd.dataset != nil {
		C.GDALClose(rd.dataset)
		rd.dataset = nil
	}
}

// Flush writes cached blocks to the underlying file.
func (rd *RasterDataset) Flush() error {
	defer lockGDAL()()
	h, err := rd.handle()
	if err != nil {
		return err
	}
	C.GDALFlushCache(h)
	if C.CPLGetLastErrorType() >= C.CE_Failure {
		return lastError(ErrIO, "flush "+rd.filePath)
	}
	return nil
}

func (rd *RasterDataset) handle() (C.GDALDatasetH, error) {
	if rd == nil || rd.dataset == nil {
		return nil, fmt.Errorf("%w: dataset is closed", ErrIO)
	}
	return rd.dataset, nil
}

func (rd *RasterDataset) Path() string   { return rd.filePath }
func (rd *RasterDataset) Width() int     { return rd.width }
func (rd *RasterDataset) Height() int    { return rd.height }
func (rd *RasterDataset) BandCount() int { return rd.bandCount }

// GeoTransform returns the 6 parameter affine transform of the dataset.
func (rd *RasterDataset) GeoTransform() ([6]float64, error) {
	var gt [6]float64
	h, err := rd.handle()
	if err != nil {
		return gt, err
	}
	var cgt [6]C.double
	if C.GDALGetGeoTransform(h, &cgt[0]) != C.CE_None {
		return gt, &GDALError{Kind: ErrIO, Op: "geotransform " + rd.filePath, Msg: "dataset has no geotransform"}
	}
	for i := range cgt {
		gt[i] = float64(cgt[i])
	}
	return gt, nil
}

func (rd *RasterDataset) SetGeoTransform(gt [6]float64) error {
	defer lockGDAL()()
	h, err := rd.handle()
	if err != nil {
		return err
	}
	var cgt [6]C.double
	for i := range gt {
		cgt[i] = C.double(gt[i])
	}
	if C.GDALSetGeoTransform(h, &cgt[0]) != C.CE_None {
		return lastError(ErrIO, "set geotransform")
	}
	return nil
}

// Projection returns the projection definition of the dataset as WKT.
func (rd *RasterDataset) Projection() string {
	if rd.dataset == nil {
		return ""
	}
	return C.GoString(C.GDALGetProjectionRef(rd.dataset))
}

func (rd *RasterDataset) SetProjection(wkt string) error {
	defer lockGDAL()()
	h, err := rd.handle()
	if err != nil {
		return err
	}
	cWkt := C.CString(wkt)
	defer C.free(unsafe.Pointer(cWkt))
	if C.GDALSetProjection(h, cWkt) != C.CE_None {
		return lastError(ErrSpatialRef, "set projection")
	}
	return nil
}

// copyProjection copies projection and geotransform of src onto dst.
func copyProjection(src, dst *RasterDataset) error {
	gt, err := src.GeoTransform()
	if err != nil {
		return err
	}
	if err := dst.SetGeoTransform(gt); err != nil {
		return err
	}
	return dst.SetProjection(src.Projection())
}

func (rd *RasterDataset) band(index int) (C.GDALRasterBandH, error) {
	h, err := rd.handle()
	if err != nil {
		return nil, err
	}
	if index < 1 || index > rd.bandCount {
		return nil, fmt.Errorf("%w: band %d out of range [1, %d]", ErrIO, index, rd.bandCount)
	}
	return C.GDALGetRasterBand(h, C.int(index)), nil
}

// BandDataType returns the pixel type of a band (1-based).
func (rd *RasterDataset) BandDataType(index int) (DataType, error) {
	b, err := rd.band(index)
	if err != nil {
		return TypeUnknown, err
	}
	return DataType(C.GDALGetRasterDataType(b)), nil
}

// NoData returns the nodata value of a band and whether it is set.
func (rd *RasterDataset) NoData(index int) (float64, bool, error) {
	b, err := rd.band(index)
	if err != nil {
		return 0, false, err
	}
	var ok C.int
	v := C.GDALGetRasterNoDataValue(b, &ok)
	return float64(v), ok != 0, nil
}

func (rd *RasterDataset) SetNoData(index int, value float64) error {
	defer lockGDAL()()
	b, err := rd.band(index)
	if err != nil {
		return err
	}
	if C.GDALSetRasterNoDataValue(b, C.double(value)) != C.CE_None {
		return lastError(ErrIO, fmt.Sprintf("set nodata of band %d", index))
	}
	return nil
}

// Fill sets every pixel of a band to value.
func (rd *RasterDataset) Fill(index int, value float64) error {
	defer lockGDAL()()
	b, err := rd.band(index)
	if err != nil {
		return err
	}
	if C.GDALFillRaster(b, C.double(value), 0) != C.CE_None {
		return lastError(ErrIO, fmt.Sprintf("fill band %d", index))
	}
	return nil
}

// BlockSize returns the natural block size of a band.
func (rd *RasterDataset) BlockSize(index int) (int, int, error) {
	b, err := rd.band(index)
	if err != nil {
		return 0, 0, err
	}
	var x, y C.int
	C.GDALGetBlockSize(b, &x, &y)
	return int(x), int(y), nil
}

// ReadWindow reads r of a band as float64. A buffer size of 0 means the
// window size, any other size resamples the window into the buffer.
func (rd *RasterDataset) ReadWindow(index int, r Rect, bufX, bufY int) ([]float64, error) {
	defer lockGDAL()()
	b, err := rd.band(index)
	if err != nil {
		return nil, err
	}
	if bufX <= 0 {
		bufX = r.SizeX()
	}
	if bufY <= 0 {
		bufY = r.SizeY()
	}
	if r.Area() == 0 || bufX*bufY == 0 {
		return nil, fmt.Errorf("%w: %s", ErrWindowTooSmall, r)
	}
	buf := make([]float64, bufX*bufY)
	if C.GDALRasterIO(b, C.GF_Read, C.int(r.OffsetX()), C.int(r.OffsetY()), C.int(r.SizeX()), C.int(r.SizeY()),
		unsafe.Pointer(&buf[0]), C.int(bufX), C.int(bufY), C.GDT_Float64, 0, 0) != C.CE_None {
		return nil, lastError(ErrIO, fmt.Sprintf("read band %d %s", index, r))
	}
	return buf, nil
}

// WriteWindow writes data (row major, r.SizeX() * r.SizeY() values) into r
// of a band.
func (rd *RasterDataset) WriteWindow(index int, r Rect, data []float64) error {
	defer lockGDAL()()
	b, err := rd.band(index)
	if err != nil {
		return err
	}
	if r.Area() == 0 || len(data) != r.Area() {
		return fmt.Errorf("%w: %d values for %s", ErrIO, len(data), r)
	}
	if C.GDALRasterIO(b, C.GF_Write, C.int(r.OffsetX()), C.int(r.OffsetY()), C.int(r.SizeX()), C.int(r.SizeY()),
		unsafe.Pointer(&data[0]), C.int(r.SizeX()), C.int(r.SizeY()), C.GDT_Float64, 0, 0) != C.CE_None {
		return lastError(ErrIO, fmt.Sprintf("write band %d %s", index, r))
	}
	return nil
}

// CreateMaskBand adds a mask band to the dataset, see MaskPerDataset.
func (rd *RasterDataset) CreateMaskBand(flags int) error {
	defer lockGDAL()()
	h, err := rd.handle()
	if err != nil {
		return err
	}
	if C.GDALCreateDatasetMaskBand(h, C.int(flags)) != C.CE_None {
		return lastError(ErrResourceCreation, "create mask band")
	}
	return nil
}

// MaskFlags returns the GMF_* flags of the mask of a band.
func (rd *RasterDataset) MaskFlags(index int) (int, error) {
	b, err := rd.band(index)
	if err != nil {
		return 0, err
	}
	return int(C.GDALGetMaskFlags(b)), nil
}

// ReadMask reads r of the mask band of a band as bytes.
func (rd *RasterDataset) ReadMask(index int, r Rect) ([]byte, error) {
	defer lockGDAL()()
	b, err := rd.band(index)
	if err != nil {
		return nil, err
	}
	return readBytes(C.GDALGetMaskBand(b), r)
}

func readBytes(b C.GDALRasterBandH, r Rect) ([]byte, error) {
	if r.Area() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrWindowTooSmall, r)
	}
	buf := make([]byte, r.Area())
	if C.GDALRasterIO(b, C.GF_Read, C.int(r.OffsetX()), C.int(r.OffsetY()), C.int(r.SizeX()), C.int(r.SizeY()),
		unsafe.Pointer(&buf[0]), C.int(r.SizeX()), C.int(r.SizeY()), C.GDT_Byte, 0, 0) != C.CE_None {
		return nil, lastError(ErrIO, "read "+r.String())
	}
	return buf, nil
}

func writeBytes(b C.GDALRasterBandH, r Rect, data []byte) error {
	if r.Area() == 0 || len(data) != r.Area() {
		return fmt.Errorf("%w: %d bytes for %s", ErrIO, len(data), r)
	}
	if C.GDALRasterIO(b, C.GF_Write, C.int(r.OffsetX()), C.int(r.OffsetY()), C.int(r.SizeX()), C.int(r.SizeY()),
		unsafe.Pointer(&data[0]), C.int(r.SizeX()), C.int(r.SizeY()), C.GDT_Byte, 0, 0) != C.CE_None {
		return lastError(ErrIO, "write "+r.String())
	}
	return nil
}

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
#cgo pkg-config: gdal
#include "gomerge_utils.h"
*/
import "C"

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

func init() {
	C.GDALAllRegister()
	C.OGRRegisterAll()
	// errors are collected at each call site, never printed by GDAL itself
	C.installQuietErrorHandler()
}

// GDALError is a failed GDAL/OGR call. Kind is one of the package's sentinel
// errors and is what errors.Is matches against.
type GDALError struct {
	Kind error
	Op   string
	Msg  string
}

func (e *GDALError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e *GDALError) Unwrap() error { return e.Kind }

// lockGDAL pins the calling goroutine to its OS thread, GDAL keeps the last
// error per thread. Use as `defer lockGDAL()()`.
func lockGDAL() func() {
	runtime.LockOSThread()
	C.CPLErrorReset()
	return runtime.UnlockOSThread
}

// lastError builds a GDALError from the thread-local CPL error state and
// resets it.
func lastError(kind error, op string) error {
	msg := strings.TrimSpace(C.GoString(C.CPLGetLastErrorMsg()))
	C.CPLErrorReset()
	return &GDALError{Kind: kind, Op: op, Msg: msg}
}

// GDALVersion returns the release name of the linked GDAL library.
func GDALVersion() string {
	key := C.CString("RELEASE_NAME")
	defer C.free(unsafe.Pointer(key))
	return C.GoString(C.GDALVersionInfo(key))
}

// cStringList converts a Go string slice into a NULL terminated CSL list.
// The caller must release it with C.CSLDestroy.
func cStringList(values []string) **C.char {
	var list **C.char
	for _, v := range values {
		cv := C.CString(v)
		list = C.CSLAddString(list, cv)
		C.free(unsafe.Pointer(cv))
	}
	return list
}

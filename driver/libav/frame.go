package libav

import (
	"reflect"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/unsafetools"
)

// devicePointerOf returns data[0] of a CUDA-backed frame, which is the
// CUdeviceptr of its first (and for packed RGB formats only) plane.
func devicePointerOf(f *astiav.Frame) driver.DevicePointer {
	avFrame := unsafetools.FieldByNameInValue(reflect.ValueOf(f), "c").Elem()
	if avFrame.IsNil() {
		return 0
	}
	// "data" is the first field of AVFrame
	return driver.DevicePointer(*(*uintptr)(avFrame.UnsafePointer()))
}

func pitchOf(f *astiav.Frame) uint32 {
	return uint32(f.Linesize()[0])
}

func pixelFormatOf(format driver.BufferFormat) astiav.PixelFormat {
	switch format {
	case driver.BufferFormatABGR:
		return astiav.PixelFormatRgb0
	case driver.BufferFormatARGB:
		return astiav.PixelFormatBgr0
	}
	return astiav.PixelFormatNone
}


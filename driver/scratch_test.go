package driver

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

var allParams = []any{
	OpenSessionParams{},
	InitializeParams{},
	AllocBufferParams{},
	RegisterResourceParams{},
	CreateBitstreamParams{},
	PictureParams{},
	LockBitstreamParams{},
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map,
		reflect.String, reflect.Interface, reflect.Chan, reflect.Func:
		return true
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func TestParamsFitScratchBuffer(t *testing.T) {
	for _, p := range allParams {
		typ := reflect.TypeOf(p)
		require.LessOrEqual(t, typ.Size(), uintptr(ScratchBufferSize), typ.Name())
		require.False(t, hasPointers(typ), "%s must consist of scalars only", typ.Name())
		require.LessOrEqual(t, typ.Align(), 8, typ.Name())
	}
}

func TestScratchZeroesBeforeReuse(t *testing.T) {
	buf := NewScratchBuffer()
	for i := range buf.Bytes() {
		buf.Bytes()[i] = 0xAB
	}

	pic := Scratch[PictureParams](buf)
	require.Equal(t, PictureParams{}, *pic)
	pic.Flags = EncodeFlagForceIDR
	pic.InputTimeStamp = 42

	lock := Scratch[LockBitstreamParams](buf)
	require.Equal(t, LockBitstreamParams{}, *lock)
	require.Equal(t, unsafe.Pointer(pic), unsafe.Pointer(lock))

	// only the head used by the structure is cleared
	require.Equal(t, byte(0xAB), buf.Bytes()[ScratchBufferSize-1])
}

func TestScratchAlignment(t *testing.T) {
	buf := NewScratchBuffer()
	p := Scratch[InitializeParams](buf)
	require.Zero(t, uintptr(unsafe.Pointer(p))%8)
}

type tooLargeParams struct {
	Payload [ScratchBufferSize + 1]byte
}

func TestScratchTooLarge(t *testing.T) {
	require.Panics(t, func() {
		Scratch[tooLargeParams](NewScratchBuffer())
	})
}

package driver

import (
	"fmt"
	"unsafe"
)

const ScratchBufferSize = 2048

// ScratchBuffer is a fixed region used to build the parameter structure
// of a single driver call. The next call to Scratch invalidates the
// structure returned by the previous one.
type ScratchBuffer struct {
	// uint64 words keep the region 8-byte aligned for any parameter structure.
	words [ScratchBufferSize / 8]uint64
}

func NewScratchBuffer() *ScratchBuffer {
	return &ScratchBuffer{}
}

// Scratch zeroes the head of the buffer large enough for T and returns
// it reinterpreted as *T. T must not contain pointers.
func Scratch[T any](b *ScratchBuffer) *T {
	var zero T
	size := unsafe.Sizeof(zero)
	if size > ScratchBufferSize {
		panic(fmt.Sprintf("%T takes %d bytes, which does not fit into the scratch buffer of %d bytes", zero, size, ScratchBufferSize))
	}
	p := unsafe.Pointer(&b.words[0])
	clear(unsafe.Slice((*byte)(p), size))
	return (*T)(p)
}

// Bytes exposes the raw region, mostly for diagnostics.
func (b *ScratchBuffer) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.words[0])), ScratchBufferSize)
}

package simulated

import (
	"context"
	"fmt"
	"image"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/xsync"
)

const devicePointerBase = driver.DevicePointer(0x7f00_0000_0000)

// Context is a fake GPU context: its "device memory" is host memory.
type Context struct {
	locker      xsync.Mutex
	name        string
	memory      map[driver.DevicePointer][]byte
	allocated   uint64
	memoryLimit uint64
	next        driver.DevicePointer
}

var (
	_ driver.GPUContext = (*Context)(nil)
	_ driver.Uploader   = (*Context)(nil)
)

func NewContext(name string, opts ...Option) *Context {
	c := &Context{
		name:   name,
		memory: map[driver.DevicePointer][]byte{},
		next:   devicePointerBase,
	}
	if v, ok := OptionLatest[OptionMemoryLimit](opts); ok {
		c.memoryLimit = v.Bytes
	}
	return c
}

func (c *Context) String() string {
	return fmt.Sprintf("simulated:%s", c.name)
}

func (c *Context) alloc(size uint64) (driver.DevicePointer, error) {
	return xsync.DoR2(context.TODO(), &c.locker, func() (driver.DevicePointer, error) {
		if c.memoryLimit > 0 && c.allocated+size > c.memoryLimit {
			return 0, driver.ErrOutOfMemory{Size: size}
		}
		ptr := c.next
		c.next += driver.DevicePointer((size + 0xFFFF) &^ 0xFFFF)
		c.memory[ptr] = make([]byte, size)
		c.allocated += size
		return ptr, nil
	})
}

func (c *Context) free(ptr driver.DevicePointer) error {
	return xsync.DoR1(context.TODO(), &c.locker, func() error {
		mem, ok := c.memory[ptr]
		if !ok {
			return driver.ErrInvalidHandle{Kind: "device pointer", Handle: uintptr(ptr)}
		}
		delete(c.memory, ptr)
		c.allocated -= uint64(len(mem))
		return nil
	})
}

// Memory returns the host view of a device allocation, or nil if ptr is
// not the start of one.
func (c *Context) Memory(ptr driver.DevicePointer) []byte {
	return xsync.DoR1(context.TODO(), &c.locker, func() []byte {
		return c.memory[ptr]
	})
}

// Allocations is the amount of live device allocations.
func (c *Context) Allocations() int {
	return xsync.DoR1(context.TODO(), &c.locker, func() int {
		return len(c.memory)
	})
}

// Upload copies img row by row into the buffer at dst.
func (c *Context) Upload(
	ctx context.Context,
	dst driver.DevicePointer,
	pitch uint32,
	img *image.RGBA,
) error {
	return xsync.DoR1(ctx, &c.locker, func() error {
		mem, ok := c.memory[dst]
		if !ok {
			return driver.ErrInvalidHandle{Kind: "device pointer", Handle: uintptr(dst)}
		}
		bounds := img.Bounds()
		rowBytes := bounds.Dx() * 4
		if rowBytes > int(pitch) || bounds.Dy()*int(pitch) > len(mem) {
			return fmt.Errorf("image %v does not fit into the buffer of %d bytes with pitch %d", bounds, len(mem), pitch)
		}
		for y := 0; y < bounds.Dy(); y++ {
			off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			src := img.Pix[off : off+rowBytes]
			copy(mem[y*int(pitch):], src)
		}
		return nil
	})
}

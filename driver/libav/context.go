package libav

import (
	"context"
	"fmt"
	"image"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/logger"
	"github.com/xaionaro-go/gpuenc/types"
	"github.com/xaionaro-go/xsync"
)

const framesPoolSize = 4

type framesKey struct {
	Resolution types.Resolution
	Format     driver.BufferFormat
}

// Context is a CUDA device opened through libav. Device buffers are
// frames of a CUDA frames context, so the encoder can consume them
// without any copy.
type Context struct {
	locker         xsync.Mutex
	deviceName     types.HardwareDeviceName
	deviceContext  *astiav.HardwareDeviceContext
	framesContexts map[framesKey]*astiav.HardwareFramesContext
	frames         map[driver.DevicePointer]*astiav.Frame
	closer         *astikit.Closer
}

var (
	_ driver.GPUContext = (*Context)(nil)
	_ driver.Uploader   = (*Context)(nil)
)

// NewContext opens the CUDA device deviceName ("" is the default one),
// using its primary CUDA context so it can be shared with renderers.
func NewContext(
	ctx context.Context,
	deviceName types.HardwareDeviceName,
) (_ret *Context, _err error) {
	logger.Debugf(ctx, "NewContext(ctx, '%s')", deviceName)
	defer func() { logger.Debugf(ctx, "/NewContext(ctx, '%s'): %v", deviceName, _err) }()

	c := &Context{
		deviceName:     deviceName,
		framesContexts: map[framesKey]*astiav.HardwareFramesContext{},
		frames:         map[driver.DevicePointer]*astiav.Frame{},
		closer:         astikit.NewCloser(),
	}

	options := astiav.NewDictionary()
	defer options.Free()
	if err := options.Set("primary_ctx", "1", 0); err != nil {
		return nil, fmt.Errorf("unable to set option 'primary_ctx': %w", err)
	}

	var err error
	c.deviceContext, err = astiav.CreateHardwareDeviceContext(
		astiav.HardwareDeviceTypeCUDA,
		string(deviceName),
		options,
		0,
	)
	if err != nil {
		return nil, driver.ErrUnsupported{Err: fmt.Errorf("unable to create the CUDA device context '%s': %w", deviceName, err)}
	}
	c.closer.Add(c.deviceContext.Free)
	return c, nil
}

func (c *Context) String() string {
	return fmt.Sprintf("cuda:%s", c.deviceName)
}

// Close frees the device context; all sessions using it must be closed first.
func (c *Context) Close(ctx context.Context) error {
	return xsync.DoR1(ctx, &c.locker, func() error {
		for ptr, f := range c.frames {
			logger.Warnf(ctx, "device buffer %s was not freed", ptr)
			f.Free()
		}
		c.frames = map[driver.DevicePointer]*astiav.Frame{}
		c.framesContexts = map[framesKey]*astiav.HardwareFramesContext{}
		return c.closer.Close()
	})
}

// framesContextLocked returns the frames context for the given size and
// format, creating it on first use: the device buffers and the encoder
// of a session must share it.
func (c *Context) framesContextLocked(
	res types.Resolution,
	format driver.BufferFormat,
) (*astiav.HardwareFramesContext, error) {
	key := framesKey{Resolution: res, Format: format}
	if fc, ok := c.framesContexts[key]; ok {
		return fc, nil
	}

	pixFmt := pixelFormatOf(format)
	if pixFmt == astiav.PixelFormatNone {
		return nil, driver.ErrInvalidParam{Param: "format", Err: fmt.Errorf("unsupported buffer format %s", format)}
	}
	fc := astiav.AllocHardwareFramesContext(c.deviceContext)
	if fc == nil {
		return nil, driver.ErrOutOfMemory{}
	}
	fc.SetHardwarePixelFormat(astiav.PixelFormatCuda)
	fc.SetSoftwarePixelFormat(pixFmt)
	fc.SetWidth(int(res.Width))
	fc.SetHeight(int(res.Height))
	fc.SetInitialPoolSize(framesPoolSize)
	if err := fc.Initialize(); err != nil {
		fc.Free()
		return nil, fmt.Errorf("unable to initialize the frames context for %s %s: %w", res, format, err)
	}
	c.closer.Add(fc.Free)
	c.framesContexts[key] = fc
	return fc, nil
}

func (c *Context) FramesContext(
	ctx context.Context,
	res types.Resolution,
	format driver.BufferFormat,
) (*astiav.HardwareFramesContext, error) {
	return xsync.DoA2R2(ctx, &c.locker, c.framesContextLocked, res, format)
}

func (c *Context) alloc(
	ctx context.Context,
	res types.Resolution,
	format driver.BufferFormat,
) (_ptr driver.DevicePointer, _frame *astiav.Frame, _err error) {
	c.locker.Do(ctx, func() {
		fc, err := c.framesContextLocked(res, format)
		if err != nil {
			_err = err
			return
		}
		f := astiav.AllocFrame()
		if err := f.AllocHardwareBuffer(fc); err != nil {
			f.Free()
			_err = driver.ErrOutOfMemory{Size: res.Pixels() * uint64(format.BytesPerPixel())}
			return
		}
		ptr := devicePointerOf(f)
		if ptr == 0 {
			f.Free()
			_err = fmt.Errorf("the allocated frame has no device pointer")
			return
		}
		c.frames[ptr] = f
		_ptr, _frame = ptr, f
	})
	return
}

func (c *Context) frame(ctx context.Context, ptr driver.DevicePointer) *astiav.Frame {
	return xsync.DoR1(ctx, &c.locker, func() *astiav.Frame {
		return c.frames[ptr]
	})
}

func (c *Context) free(ctx context.Context, ptr driver.DevicePointer) error {
	return xsync.DoR1(ctx, &c.locker, func() error {
		f, ok := c.frames[ptr]
		if !ok {
			return driver.ErrInvalidHandle{Kind: "device pointer", Handle: uintptr(ptr)}
		}
		delete(c.frames, ptr)
		f.Free()
		return nil
	})
}

// Upload copies img into the device buffer dst.
func (c *Context) Upload(
	ctx context.Context,
	dst driver.DevicePointer,
	pitch uint32,
	img *image.RGBA,
) (_err error) {
	logger.Tracef(ctx, "Upload(ctx, %s, %d, %v)", dst, pitch, img.Bounds())
	defer func() { logger.Tracef(ctx, "/Upload(ctx, %s, %d, %v): %v", dst, pitch, img.Bounds(), _err) }()

	hwFrame := c.frame(ctx, dst)
	if hwFrame == nil {
		return driver.ErrInvalidHandle{Kind: "device pointer", Handle: uintptr(dst)}
	}
	bounds := img.Bounds()
	if bounds.Dx() != hwFrame.Width() || bounds.Dy() != hwFrame.Height() {
		return fmt.Errorf("image %v does not match the buffer %dx%d", bounds, hwFrame.Width(), hwFrame.Height())
	}

	swFrame := astiav.AllocFrame()
	defer swFrame.Free()
	swFrame.SetWidth(bounds.Dx())
	swFrame.SetHeight(bounds.Dy())
	swFrame.SetPixelFormat(astiav.PixelFormatRgb0)
	if err := swFrame.AllocBuffer(0); err != nil {
		return fmt.Errorf("unable to allocate a frame buffer: %w", err)
	}

	rowSize := bounds.Dx() * 4
	buf := make([]byte, 0, rowSize*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		off := img.PixOffset(bounds.Min.X, y)
		buf = append(buf, img.Pix[off:off+rowSize]...)
	}
	if err := swFrame.Data().SetBytes(buf, 1); err != nil {
		return fmt.Errorf("unable to fill the frame: %w", err)
	}
	if err := swFrame.TransferHardwareData(hwFrame); err != nil {
		return fmt.Errorf("unable to upload the frame to %s: %w", dst, err)
	}
	return nil
}

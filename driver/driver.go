// driver.go defines the interface of a hardware video encoder driver.

// Package driver describes the boundary between an encoding session and
// the hardware video encoder it drives.
//
// The shape follows the usual vendor encode APIs: a session is opened
// on a GPU context, initialized with a codec configuration, input
// surfaces are registered with it, and pictures are encoded into a
// bitstream buffer that is locked to read the result. Every call takes
// a typed parameter structure; the caller owns the memory of that
// structure (see ScratchBuffer) and the driver must not retain it.
package driver

import (
	"context"
	"fmt"
	"image"
)

// DevicePointer is an address in the memory of the GPU.
type DevicePointer uintptr

func (p DevicePointer) String() string {
	return fmt.Sprintf("0x%X", uintptr(p))
}

// SessionHandle identifies an open encode session of a driver.
type SessionHandle uintptr

// RegistrationHandle proves that a device buffer is registered with a session.
type RegistrationHandle uintptr

// BitstreamHandle identifies an output bitstream buffer of a session.
type BitstreamHandle uintptr

// GPUContext is the compute context the caller created (and owns).
// It must outlive every session opened on it. Each driver accepts only
// its own context implementation.
type GPUContext interface {
	fmt.Stringer
}

type Driver interface {
	fmt.Stringer

	AllocDeviceBuffer(ctx context.Context, gpu GPUContext, params *AllocBufferParams) (DevicePointer, error)
	FreeDeviceBuffer(ctx context.Context, gpu GPUContext, ptr DevicePointer) error

	OpenSession(ctx context.Context, gpu GPUContext, params *OpenSessionParams) (SessionHandle, error)
	InitializeEncoder(ctx context.Context, session SessionHandle, params *InitializeParams) error
	DestroySession(ctx context.Context, session SessionHandle) error

	RegisterResource(ctx context.Context, session SessionHandle, params *RegisterResourceParams) (RegistrationHandle, error)
	UnregisterResource(ctx context.Context, session SessionHandle, registration RegistrationHandle) error

	CreateBitstreamBuffer(ctx context.Context, session SessionHandle, params *CreateBitstreamParams) (BitstreamHandle, error)
	DestroyBitstreamBuffer(ctx context.Context, session SessionHandle, bitstream BitstreamHandle) error

	// EncodePicture submits one picture (or the end of the stream if
	// EncodeFlagEOS is set). The encoder may keep the picture internally
	// for a while before any output appears.
	EncodePicture(ctx context.Context, session SessionHandle, params *PictureParams) error

	// LockBitstream returns the next finished payload in emission order,
	// or ErrNoOutput if nothing is ready. The returned slice is valid
	// until UnlockBitstream.
	LockBitstream(ctx context.Context, session SessionHandle, params *LockBitstreamParams) ([]byte, error)
	UnlockBitstream(ctx context.Context, session SessionHandle, bitstream BitstreamHandle) error
}

// Uploader is implemented by GPU contexts that can copy host pixels into
// device memory. It exists for tools rendering on the CPU; GPU renderers
// write to the device buffer directly.
type Uploader interface {
	Upload(ctx context.Context, dst DevicePointer, pitch uint32, img *image.RGBA) error
}

package driver

import (
	"errors"
	"fmt"
)

// ErrNoOutput is returned by LockBitstream when the encoder has not
// finished any payload yet.
var ErrNoOutput = errors.New("no output is ready")

type ErrInvalidState struct {
	Reason string
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

type ErrInvalidParam struct {
	Param string
	Err   error
}

func (e ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid parameter '%s': %v", e.Param, e.Err)
}

func (e ErrInvalidParam) Unwrap() error {
	return e.Err
}

type ErrOutOfMemory struct {
	Size uint64
}

func (e ErrOutOfMemory) Error() string {
	return fmt.Sprintf("unable to allocate %d bytes", e.Size)
}

type ErrUnsupported struct {
	Err error
}

func (e ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported: %v", e.Err)
}

func (e ErrUnsupported) Unwrap() error {
	return e.Err
}

type ErrInvalidHandle struct {
	Kind   string
	Handle uintptr
}

func (e ErrInvalidHandle) Error() string {
	return fmt.Sprintf("invalid %s handle 0x%X", e.Kind, e.Handle)
}

// ErrWrongContext is returned when a driver receives a GPUContext created by another driver.
type ErrWrongContext struct {
	Context GPUContext
}

func (e ErrWrongContext) Error() string {
	return fmt.Sprintf("unexpected GPU context %T (%v)", e.Context, e.Context)
}

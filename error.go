package gpuenc

import (
	"fmt"
)

// ConfigurationError is returned when a session cannot be (re)opened.
// Nothing acquired during the failed attempt stays allocated.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("unable to configure the encoder: unable to %s: %v", e.Op, e.Err)
}

func (e ConfigurationError) Unwrap() error {
	return e.Err
}

type ErrInvalidConfiguration struct {
	Reason string
}

func (e ErrInvalidConfiguration) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// EncodeFailure is returned when the hardware rejects a call on an
// established session. The session is Faulted afterwards; only Flush
// (which reopens it) or Close can be used.
type EncodeFailure struct {
	Op  string
	Err error
}

func (e EncodeFailure) Error() string {
	return fmt.Sprintf("encoding failed: unable to %s: %v", e.Op, e.Err)
}

func (e EncodeFailure) Unwrap() error {
	return e.Err
}

type ErrFaulted struct {
	Cause error
}

func (e ErrFaulted) Error() string {
	return fmt.Sprintf("the session is faulted (flush or close it): %v", e.Cause)
}

func (e ErrFaulted) Unwrap() error {
	return e.Cause
}

type ErrNotConfigured struct{}

func (ErrNotConfigured) Error() string {
	return "the session holds no encoder (the last reopen failed); flush to retry"
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the session is closed"
}

package simulated

import (
	"fmt"
)

// FaultPoint names a driver call that can be made to fail.
type FaultPoint string

const (
	FaultPointAllocDeviceBuffer     = FaultPoint("alloc_device_buffer")
	FaultPointOpenSession           = FaultPoint("open_session")
	FaultPointInitializeEncoder     = FaultPoint("initialize_encoder")
	FaultPointRegisterResource      = FaultPoint("register_resource")
	FaultPointCreateBitstreamBuffer = FaultPoint("create_bitstream_buffer")
	FaultPointEncodePicture         = FaultPoint("encode_picture")
	FaultPointLockBitstream         = FaultPoint("lock_bitstream")
	FaultPointUnlockBitstream       = FaultPoint("unlock_bitstream")
	FaultPointDestroySession        = FaultPoint("destroy_session")
)

// ErrInjected is the error returned by an injected fault.
type ErrInjected struct {
	Point FaultPoint
	Call  uint64
}

func (e ErrInjected) Error() string {
	return fmt.Sprintf("injected fault at %s (call #%d)", e.Point, e.Call)
}

type faultState struct {
	calls   map[FaultPoint]uint64
	failAts map[FaultPoint]uint64
}

func (f *faultState) check(point FaultPoint) error {
	if f.calls == nil {
		f.calls = map[FaultPoint]uint64{}
	}
	f.calls[point]++
	call := f.calls[point]
	if failAt, ok := f.failAts[point]; ok && failAt == call {
		delete(f.failAts, point)
		return ErrInjected{Point: point, Call: call}
	}
	return nil
}

// FailAt makes the n-th call (counting from now, starting at 1) to the
// given point fail once.
func (d *Driver) FailAt(point FaultPoint, n uint64) {
	d.locker.Do(d.ctx(), func() {
		if d.faults.failAts == nil {
			d.faults.failAts = map[FaultPoint]uint64{}
		}
		d.faults.failAts[point] = d.faults.calls[point] + n
	})
}

// Calls returns how many times the point was invoked.
func (d *Driver) Calls(point FaultPoint) uint64 {
	var r uint64
	d.locker.Do(d.ctx(), func() {
		r = d.faults.calls[point]
	})
	return r
}

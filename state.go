package gpuenc

import (
	"fmt"
)

type State int

const (
	// StateUnconfigured holds no hardware resources.
	StateUnconfigured = State(iota)

	// StateReady is configured with no frames submitted since the last (re)open.
	StateReady

	// StateSubmitting has at least one frame submitted.
	StateSubmitting

	// StateFaulted follows a hardware failure; only Flush or Close are accepted.
	StateFaulted

	// StateClosed is final.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateFaulted:
		return "faulted"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown_%d", int(s))
}

package simulated

type Option interface {
	simulatedOption()
}

type Options []Option

type OptionCommons struct{}

func (OptionCommons) simulatedOption() {}

func OptionLatest[T Option](s Options) (ret T, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i].(T); ok {
			return v, true
		}
	}
	return
}

// OptionPipelineDepth overrides the buffering depth requested by the
// session: the amount of frames the encoder holds before emitting the
// oldest one. Zero means every frame is emitted immediately.
type OptionPipelineDepth struct {
	OptionCommons
	Depth uint32
}

// OptionPitchAlignment sets the row alignment of device buffers.
type OptionPitchAlignment struct {
	OptionCommons
	Alignment uint32
}

// OptionMemoryLimit makes allocations fail once the context holds more than Bytes.
type OptionMemoryLimit struct {
	OptionCommons
	Bytes uint64
}

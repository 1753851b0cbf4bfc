package driver

// The structures below are passed through ScratchBuffer, so they must
// consist of fixed-size scalar fields only: no pointers, slices, strings
// or interfaces.

const (
	APIVersion = uint32(1)<<24 | 12<<16

	OpenSessionParamsVersion      = APIVersion | 1
	InitializeParamsVersion       = APIVersion | 5
	AllocBufferParamsVersion      = APIVersion | 1
	RegisterResourceParamsVersion = APIVersion | 4
	CreateBitstreamParamsVersion  = APIVersion | 1
	PictureParamsVersion          = APIVersion | 6
	LockBitstreamParamsVersion    = APIVersion | 2
)

type DeviceType uint32

const (
	DeviceTypeUndefined = DeviceType(iota)
	DeviceTypeCUDA
)

type CodecID uint32

const (
	CodecIDUndefined = CodecID(iota)
	CodecIDH264
	CodecIDHEVC
)

type Profile uint32

const (
	ProfileAuto = Profile(iota)
	ProfileH264Baseline
	ProfileH264Main
	ProfileH264High
	ProfileHEVCMain
	ProfileHEVCMain10
)

type RateControlMode uint32

const (
	RateControlConstQP = RateControlMode(iota)
	RateControlVBR
	RateControlCBR
)

type InitFlags uint32

const (
	InitFlagAnnexB = InitFlags(1 << iota)
	InitFlagRepeatParameterSets
	InitFlagLowLatency
)

type EncodeFlags uint32

const (
	EncodeFlagForceIDR = EncodeFlags(1 << iota)
	EncodeFlagOutputParameterSets
	EncodeFlagEOS
)

// InfiniteGOP disables periodic key frames.
const InfiniteGOP = ^uint32(0)

type OpenSessionParams struct {
	Version    uint32
	APIVersion uint32
	DeviceType DeviceType
	_          uint32
}

type InitializeParams struct {
	Version         uint32
	Codec           CodecID
	Profile         Profile
	Width           uint32
	Height          uint32
	FrameRateNum    uint32
	FrameRateDen    uint32
	GOPLength       uint32
	IDRPeriod       uint32
	BFrames         uint32
	BufferingDepth  uint32
	RateControl     RateControlMode
	AverageBitrate  uint32
	MaxBitrate      uint32
	VBVBufferSize   uint32
	ConstQP         uint32
	Flags           InitFlags
	_               uint32
	MaxEncodedBytes uint64
	Reserved        [32]uint32
}

type AllocBufferParams struct {
	Version uint32
	Width   uint32
	Height  uint32
	Format  BufferFormat

	// filled by the driver:
	Pitch uint32
	_     uint32
	Size  uint64
}

type RegisterResourceParams struct {
	Version  uint32
	Width    uint32
	Height   uint32
	Pitch    uint32
	Format   BufferFormat
	_        uint32
	Resource DevicePointer
}

type CreateBitstreamParams struct {
	Version uint32
	_       uint32
	Size    uint64
}

type PictureParams struct {
	Version         uint32
	Width           uint32
	Height          uint32
	Pitch           uint32
	Format          BufferFormat
	Flags           EncodeFlags
	InputBuffer     DevicePointer
	InputResource   RegistrationHandle
	OutputBitstream BitstreamHandle
	InputTimeStamp  uint64
	InputDuration   uint64
	Reserved        [16]uint32
}

type LockBitstreamParams struct {
	Version         uint32
	_               uint32
	OutputBitstream BitstreamHandle

	// filled by the driver:
	OutputTimeStamp uint64
	OutputDuration  uint64
	FrameIndex      uint64
	BitstreamSize   uint32
	PictureType     PictureType
	Reserved        [16]uint32
}

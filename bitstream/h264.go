package bitstream

type H264NalUnitType uint8

const (
	H264NalUnitTypeUnspecified   H264NalUnitType = 0
	H264NalUnitTypeNonIDR        H264NalUnitType = 1
	H264NalUnitTypeDataA         H264NalUnitType = 2
	H264NalUnitTypeIDR           H264NalUnitType = 5
	H264NalUnitTypeSEI           H264NalUnitType = 6
	H264NalUnitTypeSPS           H264NalUnitType = 7
	H264NalUnitTypePPS           H264NalUnitType = 8
	H264NalUnitTypeAUD           H264NalUnitType = 9
	H264NalUnitTypeEndOfSequence H264NalUnitType = 10
	H264NalUnitTypeEndOfStream   H264NalUnitType = 11
	H264NalUnitTypeFiller        H264NalUnitType = 12
)

func H264NalUnitTypeOf(nalu []byte) H264NalUnitType {
	if len(nalu) == 0 {
		return H264NalUnitTypeUnspecified
	}
	return H264NalUnitType(nalu[0] & 0x1F)
}

// H264NALUHeader builds the one-byte header of a NAL unit.
func H264NALUHeader(t H264NalUnitType, nri uint8) byte {
	return (nri&0x03)<<5 | byte(t)&0x1F
}

func (t H264NalUnitType) String() string {
	switch t {
	case H264NalUnitTypeNonIDR:
		return "non-IDR slice"
	case H264NalUnitTypeDataA:
		return "slice data A"
	case H264NalUnitTypeIDR:
		return "IDR slice"
	case H264NalUnitTypeSEI:
		return "SEI"
	case H264NalUnitTypeSPS:
		return "SPS"
	case H264NalUnitTypePPS:
		return "PPS"
	case H264NalUnitTypeAUD:
		return "AUD"
	case H264NalUnitTypeEndOfSequence:
		return "end of sequence"
	case H264NalUnitTypeEndOfStream:
		return "end of stream"
	case H264NalUnitTypeFiller:
		return "filler"
	default:
		return "reserved/unknown"
	}
}

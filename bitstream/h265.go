package bitstream

type H265NalUnitType uint8

const (
	H265NalUnitTypeTrailN    H265NalUnitType = 0
	H265NalUnitTypeTrailR    H265NalUnitType = 1
	H265NalUnitTypeBLAWLP    H265NalUnitType = 16
	H265NalUnitTypeBLANLP    H265NalUnitType = 18
	H265NalUnitTypeIDRWRADL  H265NalUnitType = 19
	H265NalUnitTypeIDRNLP    H265NalUnitType = 20
	H265NalUnitTypeCRA       H265NalUnitType = 21
	H265NalUnitTypeVPS       H265NalUnitType = 32
	H265NalUnitTypeSPS       H265NalUnitType = 33
	H265NalUnitTypePPS       H265NalUnitType = 34
	H265NalUnitTypeAUD       H265NalUnitType = 35
	H265NalUnitTypeEOS       H265NalUnitType = 36
	H265NalUnitTypeEOB       H265NalUnitType = 37
	H265NalUnitTypeFD        H265NalUnitType = 38
	H265NalUnitTypePrefixSEI H265NalUnitType = 39
	H265NalUnitTypeSuffixSEI H265NalUnitType = 40
)

func H265NalUnitTypeOf(nalu []byte) H265NalUnitType {
	if len(nalu) < 2 {
		return H265NalUnitTypeTrailN
	}
	return H265NalUnitType((nalu[0] & 0x7E) >> 1)
}

// H265NALUHeader builds the two-byte header of a NAL unit with
// nuh_layer_id 0 and temporal id 0.
func H265NALUHeader(t H265NalUnitType) [2]byte {
	return [2]byte{byte(t&0x3F) << 1, 1}
}

func (t H265NalUnitType) IsIRAP() bool {
	return t >= H265NalUnitTypeBLAWLP && t <= 23
}

func (t H265NalUnitType) String() string {
	switch t {
	case H265NalUnitTypeTrailN, H265NalUnitTypeTrailR:
		return "TRAIL_N/TRAIL_R"
	case H265NalUnitTypeBLAWLP, 17, H265NalUnitTypeBLANLP:
		return "BLA"
	case H265NalUnitTypeIDRWRADL, H265NalUnitTypeIDRNLP:
		return "IDR"
	case H265NalUnitTypeCRA:
		return "CRA"
	case H265NalUnitTypeVPS:
		return "VPS"
	case H265NalUnitTypeSPS:
		return "SPS"
	case H265NalUnitTypePPS:
		return "PPS"
	case H265NalUnitTypeAUD:
		return "AUD"
	case H265NalUnitTypeEOS:
		return "EOS"
	case H265NalUnitTypeEOB:
		return "EOB"
	case H265NalUnitTypeFD:
		return "FD"
	case H265NalUnitTypePrefixSEI, H265NalUnitTypeSuffixSEI:
		return "SEI"
	default:
		return "other"
	}
}

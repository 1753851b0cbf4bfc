package bitstream

import (
	"fmt"
	"iter"

	"github.com/xaionaro-go/gpuenc/types"
)

// NALU is a codec-agnostic view of a NAL unit.
type NALU struct {
	Raw  []byte
	Type uint8
}

// Iter yields the NAL units of an Annex-B payload of the given codec.
func Iter(codec types.Codec, data []byte) iter.Seq2[NALU, error] {
	return func(yield func(NALU, error) bool) {
		var typeOf func([]byte) uint8
		switch codec {
		case types.CodecAVC:
			typeOf = func(b []byte) uint8 { return uint8(H264NalUnitTypeOf(b)) }
		case types.CodecHEVC:
			typeOf = func(b []byte) uint8 { return uint8(H265NalUnitTypeOf(b)) }
		default:
			yield(NALU{}, fmt.Errorf("unsupported codec: %v", codec))
			return
		}
		nalus := SplitAnnexB(data)
		if len(nalus) == 0 {
			yield(NALU{}, fmt.Errorf("no NAL units found"))
			return
		}
		for _, raw := range nalus {
			if !yield(NALU{Raw: raw, Type: typeOf(raw)}, nil) {
				return
			}
		}
	}
}

// IsKeyFrame reports whether the payload contains an IDR picture.
func IsKeyFrame(codec types.Codec, data []byte) (bool, error) {
	for nalu, err := range Iter(codec, data) {
		if err != nil {
			return false, err
		}
		switch codec {
		case types.CodecAVC:
			if H264NalUnitType(nalu.Type) == H264NalUnitTypeIDR {
				return true, nil
			}
		case types.CodecHEVC:
			switch H265NalUnitType(nalu.Type) {
			case H265NalUnitTypeIDRWRADL, H265NalUnitTypeIDRNLP:
				return true, nil
			}
		}
	}
	return false, nil
}

// HasParameterSets reports whether the payload carries the parameter
// sets needed to start decoding (SPS+PPS, plus VPS for HEVC).
func HasParameterSets(codec types.Codec, data []byte) (bool, error) {
	var vps, sps, pps bool
	for nalu, err := range Iter(codec, data) {
		if err != nil {
			return false, err
		}
		switch codec {
		case types.CodecAVC:
			vps = true
			switch H264NalUnitType(nalu.Type) {
			case H264NalUnitTypeSPS:
				sps = true
			case H264NalUnitTypePPS:
				pps = true
			}
		case types.CodecHEVC:
			switch H265NalUnitType(nalu.Type) {
			case H265NalUnitTypeVPS:
				vps = true
			case H265NalUnitTypeSPS:
				sps = true
			case H265NalUnitTypePPS:
				pps = true
			}
		}
	}
	return vps && sps && pps, nil
}

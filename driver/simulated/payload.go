package simulated

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/xaionaro-go/gpuenc/bitstream"
	"github.com/xaionaro-go/gpuenc/driver"
)

// The NAL unit bodies are hex-encoded text, so they never contain zero
// bytes and can not emulate a start code.

func textBody(format string, args ...any) []byte {
	return []byte(fmt.Sprintf(format, args...))
}

func sliceBody(frameIndex uint64, sum uint32) []byte {
	var raw [12]byte
	binary.BigEndian.PutUint64(raw[:8], frameIndex)
	binary.BigEndian.PutUint32(raw[8:], sum)
	return []byte(hex.EncodeToString(raw[:]))
}

func withHeader(header []byte, body []byte) []byte {
	return append(append([]byte{}, header...), body...)
}

func (s *encodeSession) accessUnit(
	isIDR bool,
	withParameterSets bool,
	frameIndex uint64,
	sum uint32,
) []byte {
	p := s.params
	config := textBody("%dx%d@%d/%d", p.Width, p.Height, p.FrameRateNum, p.FrameRateDen)
	slice := sliceBody(frameIndex, sum)

	var nalus [][]byte
	switch p.Codec {
	case driver.CodecIDH264:
		if withParameterSets {
			nalus = append(nalus,
				withHeader([]byte{bitstream.H264NALUHeader(bitstream.H264NalUnitTypeSPS, 3)}, config),
				withHeader([]byte{bitstream.H264NALUHeader(bitstream.H264NalUnitTypePPS, 3)}, textBody("pps")),
			)
		}
		if isIDR {
			nalus = append(nalus, withHeader([]byte{bitstream.H264NALUHeader(bitstream.H264NalUnitTypeIDR, 3)}, slice))
		} else {
			nalus = append(nalus, withHeader([]byte{bitstream.H264NALUHeader(bitstream.H264NalUnitTypeNonIDR, 2)}, slice))
		}
	case driver.CodecIDHEVC:
		hdr := func(t bitstream.H265NalUnitType) []byte {
			h := bitstream.H265NALUHeader(t)
			return h[:]
		}
		if withParameterSets {
			nalus = append(nalus,
				withHeader(hdr(bitstream.H265NalUnitTypeVPS), textBody("vps")),
				withHeader(hdr(bitstream.H265NalUnitTypeSPS), config),
				withHeader(hdr(bitstream.H265NalUnitTypePPS), textBody("pps")),
			)
		}
		if isIDR {
			nalus = append(nalus, withHeader(hdr(bitstream.H265NalUnitTypeIDRWRADL), slice))
		} else {
			nalus = append(nalus, withHeader(hdr(bitstream.H265NalUnitTypeTrailR), slice))
		}
	}
	return bitstream.JoinNALUs(nalus...)
}

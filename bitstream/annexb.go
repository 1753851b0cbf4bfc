// annexb.go splits and joins Annex-B byte streams.

// Package bitstream inspects and builds the Annex-B elementary streams
// produced by the encoders.
package bitstream

var startCode = []byte{0, 0, 0, 1}

// SplitAnnexB returns the NAL units of b without their start codes.
// The returned slices alias b.
func SplitAnnexB(b []byte) [][]byte {
	var nalus [][]byte
	n := len(b)
	i := 0

	for {
		start := FindStartCode(b, i)
		if start < 0 {
			break
		}

		// 00 00 01 or 00 00 00 01
		scLen := 3
		if start+3 < n && b[start+2] == 0 && b[start+3] == 1 {
			scLen = 4
		}

		next := FindStartCode(b, start+scLen)
		end := n
		if next >= 0 {
			end = next
		}
		if start+scLen < end {
			nalus = append(nalus, b[start+scLen:end])
		}
		if next < 0 {
			break
		}
		i = next
	}

	return nalus
}

func FindStartCode(b []byte, start int) int {
	n := len(b)
	for i := start; i+3 <= n; i++ {
		if b[i] != 0 || b[i+1] != 0 {
			continue
		}
		if b[i+2] == 1 {
			return i
		}
		if i+4 <= n && b[i+2] == 0 && b[i+3] == 1 {
			return i
		}
	}
	return -1
}

// AppendNALU appends a 4-byte start code and the NAL unit to dst.
func AppendNALU(dst []byte, nalu []byte) []byte {
	dst = append(dst, startCode...)
	return append(dst, nalu...)
}

// JoinNALUs joins NAL units with Annex-B start codes.
func JoinNALUs(nalus ...[]byte) []byte {
	var size int
	for _, nalu := range nalus {
		size += len(startCode) + len(nalu)
	}
	result := make([]byte, 0, size)
	for _, nalu := range nalus {
		result = AppendNALU(result, nalu)
	}
	return result
}

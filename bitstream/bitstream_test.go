package bitstream

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc/types"
)

func TestSplitAnnexB(t *testing.T) {
	data := []byte{
		0, 0, 0, 1, 0x67, 0xAA,
		0, 0, 1, 0x68, 0xBB, 0xCC,
		0, 0, 0, 1, 0x65, 0x01, 0x02,
	}
	nalus := SplitAnnexB(data)
	require.Len(t, nalus, 3)
	require.Equal(t, []byte{0x67, 0xAA}, nalus[0])
	require.Equal(t, []byte{0x68, 0xBB, 0xCC}, nalus[1])
	require.Equal(t, []byte{0x65, 0x01, 0x02}, nalus[2])

	require.Empty(t, SplitAnnexB([]byte{1, 2, 3}))
	require.Empty(t, SplitAnnexB(nil))
}

func TestJoinNALUsRoundTrip(t *testing.T) {
	in := [][]byte{{0x67, 1}, {0x68, 2}, {0x65, 3, 4}}
	require.Equal(t, in, SplitAnnexB(JoinNALUs(in...)))
}

func TestIsKeyFrameH264(t *testing.T) {
	idr := JoinNALUs(
		[]byte{H264NALUHeader(H264NalUnitTypeSPS, 3), 0x42},
		[]byte{H264NALUHeader(H264NalUnitTypePPS, 3), 0xCE},
		[]byte{H264NALUHeader(H264NalUnitTypeIDR, 3), 0x88},
	)
	isKey, err := IsKeyFrame(types.CodecAVC, idr)
	require.NoError(t, err)
	require.True(t, isKey)
	hasPS, err := HasParameterSets(types.CodecAVC, idr)
	require.NoError(t, err)
	require.True(t, hasPS)

	nonIDR := JoinNALUs([]byte{H264NALUHeader(H264NalUnitTypeNonIDR, 2), 0x9A})
	isKey, err = IsKeyFrame(types.CodecAVC, nonIDR)
	require.NoError(t, err)
	require.False(t, isKey)
	hasPS, err = HasParameterSets(types.CodecAVC, nonIDR)
	require.NoError(t, err)
	require.False(t, hasPS)
}

func TestIsKeyFrameH265(t *testing.T) {
	hdr := func(t H265NalUnitType) []byte {
		h := H265NALUHeader(t)
		return []byte{h[0], h[1], 0x01}
	}
	idr := JoinNALUs(
		hdr(H265NalUnitTypeVPS),
		hdr(H265NalUnitTypeSPS),
		hdr(H265NalUnitTypePPS),
		hdr(H265NalUnitTypeIDRWRADL),
	)
	isKey, err := IsKeyFrame(types.CodecHEVC, idr)
	require.NoError(t, err)
	require.True(t, isKey)
	hasPS, err := HasParameterSets(types.CodecHEVC, idr)
	require.NoError(t, err)
	require.True(t, hasPS)

	trail := JoinNALUs(hdr(H265NalUnitTypeTrailR))
	isKey, err = IsKeyFrame(types.CodecHEVC, trail)
	require.NoError(t, err)
	require.False(t, isKey)
	require.Equal(t, H265NalUnitTypeTrailR, H265NalUnitTypeOf(hdr(H265NalUnitTypeTrailR)))
}

func TestIterErrors(t *testing.T) {
	_, err := IsKeyFrame(types.CodecUndefined, []byte{0, 0, 0, 1, 0x65})
	require.Error(t, err)
	_, err = IsKeyFrame(types.CodecAVC, []byte{0x65})
	require.Error(t, err)
}

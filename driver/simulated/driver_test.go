package simulated

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc/bitstream"
	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/types"
)

type testEncoder struct {
	drv    *Driver
	gpu    *Context
	handle driver.SessionHandle
	buffer driver.DevicePointer
	pitch  uint32
	reg    driver.RegistrationHandle
	bs     driver.BitstreamHandle
}

func newTestEncoder(
	t *testing.T,
	codec driver.CodecID,
	gop uint32,
	depth uint32,
	opts ...Option,
) *testEncoder {
	ctx := context.Background()
	e := &testEncoder{
		drv: New(opts...),
		gpu: NewContext(t.Name(), opts...),
	}

	var err error
	e.handle, err = e.drv.OpenSession(ctx, e.gpu, &driver.OpenSessionParams{
		Version:    driver.OpenSessionParamsVersion,
		APIVersion: driver.APIVersion,
		DeviceType: driver.DeviceTypeCUDA,
	})
	require.NoError(t, err)

	require.NoError(t, e.drv.InitializeEncoder(ctx, e.handle, &driver.InitializeParams{
		Version:        driver.InitializeParamsVersion,
		Codec:          codec,
		Width:          16,
		Height:         8,
		FrameRateNum:   30,
		FrameRateDen:   1,
		GOPLength:      gop,
		BufferingDepth: depth,
	}))

	alloc := &driver.AllocBufferParams{Width: 16, Height: 8, Format: driver.BufferFormatABGR}
	e.buffer, err = e.drv.AllocDeviceBuffer(ctx, e.gpu, alloc)
	require.NoError(t, err)
	e.pitch = alloc.Pitch

	e.reg, err = e.drv.RegisterResource(ctx, e.handle, &driver.RegisterResourceParams{
		Width:    16,
		Height:   8,
		Pitch:    e.pitch,
		Format:   driver.BufferFormatABGR,
		Resource: e.buffer,
	})
	require.NoError(t, err)

	e.bs, err = e.drv.CreateBitstreamBuffer(ctx, e.handle, &driver.CreateBitstreamParams{Size: 1 << 20})
	require.NoError(t, err)
	return e
}

func (e *testEncoder) encode(t *testing.T, ts uint64, flags driver.EncodeFlags) error {
	return e.drv.EncodePicture(context.Background(), e.handle, &driver.PictureParams{
		Width:           16,
		Height:          8,
		Pitch:           e.pitch,
		Format:          driver.BufferFormatABGR,
		Flags:           flags,
		InputBuffer:     e.buffer,
		InputResource:   e.reg,
		OutputBitstream: e.bs,
		InputTimeStamp:  ts,
		InputDuration:   1,
	})
}

func (e *testEncoder) collect(t *testing.T) []driver.LockBitstreamParams {
	ctx := context.Background()
	var result []driver.LockBitstreamParams
	for {
		params := driver.LockBitstreamParams{OutputBitstream: e.bs}
		payload, err := e.drv.LockBitstream(ctx, e.handle, &params)
		if err == driver.ErrNoOutput {
			return result
		}
		require.NoError(t, err)
		require.Len(t, payload, int(params.BitstreamSize))
		result = append(result, params)
		require.NoError(t, e.drv.UnlockBitstream(ctx, e.handle, e.bs))
	}
}

func (e *testEncoder) release(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, e.drv.DestroyBitstreamBuffer(ctx, e.handle, e.bs))
	require.NoError(t, e.drv.UnregisterResource(ctx, e.handle, e.reg))
	require.NoError(t, e.drv.FreeDeviceBuffer(ctx, e.gpu, e.buffer))
	require.NoError(t, e.drv.DestroySession(ctx, e.handle))
	require.Equal(t, Resources{}, e.drv.Resources())
	require.Zero(t, e.gpu.Allocations())
}

func TestPitchAlignment(t *testing.T) {
	e := newTestEncoder(t, driver.CodecIDH264, driver.InfiniteGOP, 0, OptionPitchAlignment{Alignment: 256})
	require.Equal(t, uint32(256), e.pitch)
	require.Len(t, e.gpu.Memory(e.buffer), 256*8)
	e.release(t)
}

func TestGOPAndForcedIDR(t *testing.T) {
	e := newTestEncoder(t, driver.CodecIDH264, 3, 0)
	for i := uint64(0); i < 7; i++ {
		var flags driver.EncodeFlags
		if i == 4 {
			flags = driver.EncodeFlagForceIDR
		}
		require.NoError(t, e.encode(t, i, flags))
	}
	out := e.collect(t)
	require.Len(t, out, 7)
	var pictureTypes []driver.PictureType
	for i, p := range out {
		require.Equal(t, uint64(i), p.OutputTimeStamp)
		require.Equal(t, uint64(i), p.FrameIndex)
		pictureTypes = append(pictureTypes, p.PictureType)
	}
	require.Equal(t, []driver.PictureType{
		driver.PictureTypeIDR, driver.PictureTypeP, driver.PictureTypeP,
		driver.PictureTypeIDR, driver.PictureTypeIDR, driver.PictureTypeP, driver.PictureTypeP,
	}, pictureTypes)
	e.release(t)
}

func TestPipelineDepthAndEOS(t *testing.T) {
	e := newTestEncoder(t, driver.CodecIDHEVC, driver.InfiniteGOP, 2)
	require.NoError(t, e.encode(t, 0, 0))
	require.NoError(t, e.encode(t, 1, 0))
	require.Empty(t, e.collect(t))
	require.NoError(t, e.encode(t, 2, 0))
	out := e.collect(t)
	require.Len(t, out, 1)
	require.Equal(t, uint64(0), out[0].OutputTimeStamp)

	require.NoError(t, e.encode(t, 0, driver.EncodeFlagEOS))
	out = e.collect(t)
	require.Len(t, out, 2)
	require.Equal(t, uint64(1), out[0].OutputTimeStamp)
	require.Equal(t, uint64(2), out[1].OutputTimeStamp)

	require.ErrorAs(t, e.encode(t, 3, 0), &driver.ErrInvalidState{})
	e.release(t)
}

func TestPayloadIsAnnexB(t *testing.T) {
	for _, codec := range []driver.CodecID{driver.CodecIDH264, driver.CodecIDHEVC} {
		e := newTestEncoder(t, codec, driver.InfiniteGOP, 0)
		ctx := context.Background()
		require.NoError(t, e.encode(t, 0, 0))
		require.NoError(t, e.encode(t, 1, 0))

		typesCodec := types.CodecAVC
		if codec == driver.CodecIDHEVC {
			typesCodec = types.CodecHEVC
		}
		for i := 0; i < 2; i++ {
			params := driver.LockBitstreamParams{OutputBitstream: e.bs}
			payload, err := e.drv.LockBitstream(ctx, e.handle, &params)
			require.NoError(t, err)
			isKey, err := bitstream.IsKeyFrame(typesCodec, payload)
			require.NoError(t, err)
			require.Equal(t, i == 0, isKey)
			hasParams, err := bitstream.HasParameterSets(typesCodec, payload)
			require.NoError(t, err)
			require.Equal(t, i == 0, hasParams)
			require.NoError(t, e.drv.UnlockBitstream(ctx, e.handle, e.bs))
		}
		e.release(t)
	}
}

func TestPayloadDependsOnBufferContent(t *testing.T) {
	ctx := context.Background()

	encodeOne := func(e *testEncoder) []byte {
		require.NoError(t, e.encode(t, 0, 0))
		params := driver.LockBitstreamParams{OutputBitstream: e.bs}
		payload, err := e.drv.LockBitstream(ctx, e.handle, &params)
		require.NoError(t, err)
		payload = append([]byte{}, payload...)
		require.NoError(t, e.drv.UnlockBitstream(ctx, e.handle, e.bs))
		e.release(t)
		return payload
	}

	blank := encodeOne(newTestEncoder(t, driver.CodecIDH264, driver.InfiniteGOP, 0))
	require.Equal(t, blank, encodeOne(newTestEncoder(t, driver.CodecIDH264, driver.InfiniteGOP, 0)))

	e := newTestEncoder(t, driver.CodecIDH264, driver.InfiniteGOP, 0)
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	img.Set(3, 3, color.RGBA{R: 255, A: 255})
	require.NoError(t, e.gpu.Upload(ctx, e.buffer, e.pitch, img))
	require.NotEqual(t, blank, encodeOne(e))
}

func TestLockTwice(t *testing.T) {
	ctx := context.Background()
	e := newTestEncoder(t, driver.CodecIDH264, driver.InfiniteGOP, 0)
	require.NoError(t, e.encode(t, 0, 0))
	require.NoError(t, e.encode(t, 1, 0))

	_, err := e.drv.LockBitstream(ctx, e.handle, &driver.LockBitstreamParams{OutputBitstream: e.bs})
	require.NoError(t, err)
	_, err = e.drv.LockBitstream(ctx, e.handle, &driver.LockBitstreamParams{OutputBitstream: e.bs})
	require.ErrorAs(t, err, &driver.ErrInvalidState{})
	require.NoError(t, e.drv.UnlockBitstream(ctx, e.handle, e.bs))
	require.ErrorAs(t, e.drv.UnlockBitstream(ctx, e.handle, e.bs), &driver.ErrInvalidState{})
	require.Len(t, e.collect(t), 1)
	e.release(t)
}

func TestFailAt(t *testing.T) {
	e := newTestEncoder(t, driver.CodecIDH264, driver.InfiniteGOP, 0)
	e.drv.FailAt(FaultPointEncodePicture, 2)
	require.NoError(t, e.encode(t, 0, 0))
	err := e.encode(t, 1, 0)
	require.ErrorAs(t, err, &ErrInjected{})
	require.NoError(t, e.encode(t, 2, 0))
	require.Equal(t, uint64(3), e.drv.Calls(FaultPointEncodePicture))
	require.Len(t, e.collect(t), 2)
	e.release(t)
}

func TestWrongContext(t *testing.T) {
	drv := New()
	_, err := drv.OpenSession(context.Background(), wrongContext{}, &driver.OpenSessionParams{
		APIVersion: driver.APIVersion,
		DeviceType: driver.DeviceTypeCUDA,
	})
	require.ErrorAs(t, err, &driver.ErrWrongContext{})
}

func TestMemoryLimit(t *testing.T) {
	gpu := NewContext(t.Name(), OptionMemoryLimit{Bytes: 1024})
	_, err := New().AllocDeviceBuffer(context.Background(), gpu, &driver.AllocBufferParams{
		Width: 64, Height: 64, Format: driver.BufferFormatABGR,
	})
	require.ErrorAs(t, err, &driver.ErrOutOfMemory{})
	require.Zero(t, gpu.Allocations())
}

func TestAllocRowOverflow(t *testing.T) {
	gpu := NewContext(t.Name())
	_, err := New().AllocDeviceBuffer(context.Background(), gpu, &driver.AllocBufferParams{
		Width: 1 << 30, Height: 2, Format: driver.BufferFormatABGR,
	})
	require.ErrorAs(t, err, &driver.ErrInvalidParam{})
	require.Zero(t, gpu.Allocations())
}

type wrongContext struct{}

func (wrongContext) String() string { return "wrong" }

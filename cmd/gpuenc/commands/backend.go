package commands

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/driver/libav"
	"github.com/xaionaro-go/gpuenc/driver/simulated"
	"github.com/xaionaro-go/gpuenc/types"
)

type backend struct {
	Driver  driver.Driver
	GPU     driver.GPUContext
	Closers []types.Closer
}

func (b *backend) Uploader() (driver.Uploader, error) {
	u, ok := b.GPU.(driver.Uploader)
	if !ok {
		return nil, fmt.Errorf("%s cannot upload images", b.GPU)
	}
	return u, nil
}

func (b *backend) Close(ctx context.Context) error {
	var result error
	for i := len(b.Closers) - 1; i >= 0; i-- {
		if err := b.Closers[i].Close(ctx); err != nil && result == nil {
			result = err
		}
	}
	return result
}

func newBackend(ctx context.Context, name string, device types.HardwareDeviceName) (*backend, error) {
	switch name {
	case "simulated":
		return &backend{
			Driver: simulated.New(),
			GPU:    simulated.NewContext(device.String()),
		}, nil
	case "libav":
		libav.SetupLogging(ctx)
		gpu, err := libav.NewContext(ctx, device)
		if err != nil {
			return nil, err
		}
		return &backend{
			Driver:  libav.New(),
			GPU:     gpu,
			Closers: []types.Closer{gpu},
		}, nil
	}
	return nil, fmt.Errorf("unknown driver '%s' (expected 'libav' or 'simulated')", name)
}

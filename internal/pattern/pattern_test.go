package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gpuenc/types"
)

func TestGenerator(t *testing.T) {
	g := NewGenerator(types.Resolution{Width: 64, Height: 48})
	first := g.Frame(0)
	require.Equal(t, 64, first.Bounds().Dx())
	require.Equal(t, 48, first.Bounds().Dy())
	require.Equal(t, first.Pix, g.Frame(0).Pix)
	require.NotEqual(t, first.Pix, g.Frame(1).Pix)

	g.BlurRadius.Store(2)
	require.NotEqual(t, first.Pix, g.Frame(0).Pix)
}

func TestTinyResolution(t *testing.T) {
	g := NewGenerator(types.Resolution{Width: 1, Height: 1})
	for n := uint64(0); n < 10; n++ {
		require.Equal(t, 1, g.Frame(n).Bounds().Dx())
	}
}

func TestBounce(t *testing.T) {
	for pos, expected := range []int{0, 1, 2, 3, 2, 1, 0, 1} {
		require.Equal(t, expected, bounce(pos, 3))
	}
	require.Zero(t, bounce(5, 0))
}

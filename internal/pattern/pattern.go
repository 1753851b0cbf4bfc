// Package pattern renders moving test images to feed an encoder.
package pattern

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/xaionaro-go/gpuenc/types"
	"go.uber.org/atomic"
)

var bars = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

// Generator draws scrolling color bars with a bouncing box; the hue
// drifts over time so that every frame differs from the previous one.
type Generator struct {
	Resolution types.Resolution
	BlurRadius atomic.Float64

	base *image.RGBA
}

func NewGenerator(res types.Resolution) *Generator {
	g := &Generator{
		Resolution: res,
		base:       image.NewRGBA(image.Rect(0, 0, int(res.Width), int(res.Height))),
	}
	w := int(res.Width)
	for x := 0; x < w; x++ {
		c := bars[x*len(bars)/w]
		for y := 0; y < int(res.Height); y++ {
			g.base.SetRGBA(x, y, c)
		}
	}
	return g
}

func (g *Generator) String() string {
	return fmt.Sprintf("Pattern(%s)", g.Resolution)
}

// Frame renders the n-th frame.
func (g *Generator) Frame(n uint64) *image.RGBA {
	bounds := g.base.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	img := image.NewRGBA(bounds)
	shift := int(n*4) % w
	draw.Draw(img, image.Rect(0, 0, w-shift, h), g.base, image.Pt(shift, 0), draw.Src)
	draw.Draw(img, image.Rect(w-shift, 0, w, h), g.base, image.Pt(0, 0), draw.Src)

	size := max(min(w, h)/8, 1)
	x := bounce(int(n*3), w-size)
	y := bounce(int(n*2), h-size)
	draw.Draw(img, image.Rect(x, y, x+size, y+size), image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}), image.Point{}, draw.Src)

	img = adjust.Hue(img, int(n%360))
	if radius := g.BlurRadius.Load(); radius > 0 {
		img = blur.Gaussian(img, radius)
	}
	return img
}

// bounce moves back and forth within [0, limit].
func bounce(pos, limit int) int {
	if limit <= 0 {
		return 0
	}
	period := 2 * limit
	pos %= period
	if pos > limit {
		return period - pos
	}
	return pos
}

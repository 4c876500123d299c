package dummy

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

func clamp8(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// sepia blends a pixel 70% toward its sepia tone.
func sepia(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	sr := 0.393*r + 0.769*g + 0.189*b
	sg := 0.349*r + 0.686*g + 0.168*b
	sb := 0.272*r + 0.534*g + 0.131*b
	const k = 0.7
	return color.NRGBA{
		R: clamp8(k*sr + (1-k)*r),
		G: clamp8(k*sg + (1-k)*g),
		B: clamp8(k*sb + (1-k)*b),
		A: c.A,
	}
}

// age makes a clean page look like an old photographed one.
func age(rng *rand.Rand, img *image.NRGBA) *image.NRGBA {
	out := imaging.AdjustFunc(img, sepia)
	out = imaging.AdjustContrast(out, -18)
	out = imaging.AdjustBrightness(out, -4)
	out = imaging.Blur(out, 0.6)
	speckle(rng, out)
	return out
}

func speckle(rng *rand.Rand, img *image.NRGBA) {
	b := img.Bounds()
	n := b.Dx() * b.Dy() / 1500
	for i := 0; i < n; i++ {
		x := b.Min.X + rng.IntN(b.Dx())
		y := b.Min.Y + rng.IntN(b.Dy())
		c := img.NRGBAAt(x, y)
		shift := -60 + rng.Float64()*40
		if rng.IntN(4) == 0 {
			shift = 20 + rng.Float64()*20
		}
		img.SetNRGBA(x, y, color.NRGBA{
			R: clamp8(float64(c.R) + shift),
			G: clamp8(float64(c.G) + shift),
			B: clamp8(float64(c.B) + shift),
			A: c.A,
		})
	}
}

package dummy

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

func randomColor(rng *rand.Rand) color.NRGBA {
	return color.NRGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
}

// GeometricPattern draws a blurred, desaturated composition of random
// circles and rectangles, used as a stand-in illustration.
func GeometricPattern(rng *rand.Rand, w, h int) *image.NRGBA {
	img := imaging.New(w, h, randomColor(rng))

	for n := 3 + rng.IntN(8); n > 0; n-- {
		cx, cy := rng.IntN(w+1), rng.IntN(h+1)
		r := 10 + rng.IntN(71)
		fillCircle(img, cx, cy, r, randomColor(rng))
	}
	for n := 2 + rng.IntN(7); n > 0; n-- {
		rw := rng.IntN(w*7/10 + 1)
		rh := rng.IntN(h*3/4 + 1)
		x1, y1 := rng.IntN(w), rng.IntN(h)
		fillRect(img, image.Rect(x1, y1, min(x1+rw, w), min(y1+rh, h)), randomColor(rng))
	}

	img = imaging.Blur(img, 5)
	return imaging.AdjustSaturation(img, -60)
}

func fillCircle(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	b := img.Bounds().Intersect(image.Rect(cx-r, cy-r, cx+r+1, cy+r+1))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

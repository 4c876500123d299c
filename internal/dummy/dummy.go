// Package dummy generates fake book pages so capture flows can be
// exercised without a camera.
package dummy

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Side is which half of an open book a page sits on. A left page has its
// wide margin on the left, a right page on the right.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Pages are laid out on an A5 canvas at 86 px per inch and scaled up to
// OutputWidth before the aging pass.
const (
	canvasWidth  = 500
	canvasHeight = 709
	pxPerInch    = 85.8
	// ptScale converts PDF points on an A5 page (420pt wide) to canvas pixels.
	ptScale = canvasWidth / 420.0

	OutputWidth = 1000

	charWidth  = 7
	lineHeight = 15
)

var (
	paperColor = color.NRGBA{R: 246, G: 241, B: 228, A: 255}
	inkColor   = color.NRGBA{R: 34, G: 30, B: 26, A: 255}
)

// SpreadNumbers are the page numbers printed on the two pages of a spread.
var SpreadNumbers = [2]string{"22", "23"}

type Generator struct {
	rng *rand.Rand
}

// New returns a generator whose output is fully determined by seed.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom returns a generator with a random seed.
func NewRandom() *Generator {
	return New(rand.Uint64())
}

type elementKind int

const (
	elemTitle elementKind = iota
	elemSubtitle
	elemParagraph
	elemPicture
	elemSpacer
)

type element struct {
	kind elementKind
	text string
	w, h int
}

func spacer(inches float64) element {
	return element{kind: elemSpacer, h: px(inches)}
}

func (g *Generator) paragraph() element {
	return element{kind: elemParagraph, text: paragraphText(g.rng)}
}

func (g *Generator) picture(wPt, hPt float64) element {
	return element{kind: elemPicture, w: int(wPt * ptScale), h: int(hPt * ptScale)}
}

// maybeSubtitle adds a bold subtitle with 25% chance, at most once per page.
func (g *Generator) maybeSubtitle(elems []element, pending *bool) []element {
	if *pending && g.rng.Float64() < 0.25 {
		*pending = false
		return append(elems, element{kind: elemSubtitle, text: titleText(g.rng)}, spacer(0.1))
	}
	return elems
}

// layout picks the page's content: an optional title or illustration,
// a run of paragraphs with at most one subtitle, and sometimes a second
// illustration.
func (g *Generator) layout() []element {
	var elems []element
	noPicture, noSubtitle := true, true

	switch {
	case g.rng.Float64() < 0.15:
		elems = append(elems, element{kind: elemTitle, text: titleText(g.rng)}, spacer(1), g.paragraph(), spacer(0.1))
	case g.rng.Float64() < 0.15:
		elems = append(elems, g.picture(275, 150), spacer(0.3))
		noPicture = false
	default:
		elems = append(elems, g.paragraph(), spacer(0.1))
	}

	if noPicture && g.rng.Float64() < 0.15 {
		elems = append(elems, spacer(0.3), g.picture(200, 150), spacer(0.3))
	} else {
		elems = g.maybeSubtitle(elems, &noSubtitle)
		elems = append(elems, g.paragraph(), spacer(0.1))
	}

	for range 2 {
		elems = g.maybeSubtitle(elems, &noSubtitle)
		elems = append(elems, g.paragraph(), spacer(0.1))
	}
	if g.rng.Float64() < 0.75 {
		for range 3 {
			elems = append(elems, g.paragraph(), spacer(0.1))
		}
	}
	return elems
}

type frame struct {
	left, right, top, bottom int
}

func (f frame) width() int { return f.right - f.left }

// px converts inches to canvas pixels, truncating.
func px(inches float64) int { return int(inches * pxPerInch) }

func pageFrame(side Side) frame {
	wide, narrow := 1.2, 0.6
	left, right := narrow, wide
	if side == Left {
		left, right = wide, narrow
	}
	return frame{
		left:   px(left),
		right:  canvasWidth - px(right),
		top:    px(0.9),
		bottom: canvasHeight - px(1.4),
	}
}

// Page renders one aged page image carrying the given page number.
func (g *Generator) Page(side Side, number string) *image.NRGBA {
	canvas := imaging.New(canvasWidth, canvasHeight, paperColor)
	f := pageFrame(side)

	y := f.top
	for _, e := range g.layout() {
		var ok bool
		y, ok = g.render(canvas, f, y, e)
		if !ok {
			break
		}
	}

	// Page number, centred on the text frame one inch above the bottom edge.
	numX := f.left + f.width()/2 - len(number)*charWidth/2
	drawString(canvas, numX, canvasHeight-px(1), number, inkColor)

	page := imaging.Resize(canvas, OutputWidth, 0, imaging.Lanczos)
	return age(g.rng, page)
}

// render draws e at y and returns the next y. ok is false once the frame
// is full; content past the bottom margin is dropped.
func (g *Generator) render(dst *image.NRGBA, f frame, y int, e element) (int, bool) {
	switch e.kind {
	case elemSpacer:
		return y + e.h, y+e.h < f.bottom
	case elemPicture:
		if y+e.h > f.bottom {
			return y, false
		}
		pic := GeometricPattern(g.rng, e.w, e.h)
		x := f.left + (f.width()-e.w)/2
		draw.Draw(dst, image.Rect(x, y, x+e.w, y+e.h), pic, image.Point{}, draw.Src)
		return y + e.h, true
	case elemTitle:
		return drawTitle(dst, f, y, e.text)
	case elemSubtitle:
		return drawParagraph(dst, f, y, e.text, true)
	default:
		return drawParagraph(dst, f, y, e.text, false)
	}
}

func drawString(dst *image.NRGBA, x, baseline int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// wrap splits text into lines of at most maxChars characters.
func wrap(text string, maxChars int) [][]string {
	var (
		lines [][]string
		cur   []string
		n     int
	)
	for _, w := range strings.Fields(text) {
		if len(cur) > 0 && n+1+len(w) > maxChars {
			lines = append(lines, cur)
			cur, n = nil, 0
		}
		if len(cur) > 0 {
			n++
		}
		cur = append(cur, w)
		n += len(w)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// drawParagraph draws text justified to the frame width, the last line
// ragged. Bold text is struck twice one pixel apart.
func drawParagraph(dst *image.NRGBA, f frame, y int, text string, bold bool) (int, bool) {
	lines := wrap(text, f.width()/charWidth)
	for i, words := range lines {
		if y+lineHeight > f.bottom {
			return y, false
		}
		baseline := y + 11
		gaps := len(words) - 1
		used := 0
		for _, w := range words {
			used += len(w) * charWidth
		}
		extra := 0
		if gaps > 0 && i < len(lines)-1 {
			extra = f.width() - used - gaps*charWidth
		}

		x := f.left
		for j, w := range words {
			drawString(dst, x, baseline, w, inkColor)
			if bold {
				drawString(dst, x+1, baseline, w, inkColor)
			}
			x += len(w)*charWidth + charWidth
			if j < gaps && extra > 0 {
				// spread the leftover pixels over the gaps, larger ones first
				share := extra / gaps
				if j < extra%gaps {
					share++
				}
				x += share
			}
		}
		y += lineHeight
	}
	return y, true
}

// drawTitle renders a heading at twice the body size.
func drawTitle(dst *image.NRGBA, f frame, y int, text string) (int, bool) {
	const scale = 2
	maxChars := f.width() / (charWidth * scale)
	for _, words := range wrap(text, maxChars) {
		s := strings.Join(words, " ")
		h := lineHeight * scale
		if y+h > f.bottom {
			return y, false
		}
		small := image.NewNRGBA(image.Rect(0, 0, len(s)*charWidth+1, lineHeight))
		drawString(small, 0, 11, s, inkColor)
		drawString(small, 1, 11, s, inkColor)
		big := imaging.Resize(small, small.Bounds().Dx()*scale, 0, imaging.Linear)
		draw.Draw(dst, big.Bounds().Add(image.Pt(f.left, y)), big, image.Point{}, draw.Over)
		y += h
	}
	return y + lineHeight, true
}

// WritePage renders a page and saves it as a JPEG at path.
func (g *Generator) WritePage(path string, side Side, number string) error {
	if err := imaging.Save(g.Page(side, number), path, imaging.JPEGQuality(88)); err != nil {
		return fmt.Errorf("writing %s page: %w", side, err)
	}
	return nil
}

// Spread writes a left and a right page of an open book.
func (g *Generator) Spread(leftPath, rightPath string) error {
	if err := g.WritePage(leftPath, Left, SpreadNumbers[0]); err != nil {
		return err
	}
	return g.WritePage(rightPath, Right, SpreadNumbers[1])
}

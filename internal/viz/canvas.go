package viz

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	mask := ^rune(pixelMap[subY][subX])
	c.Grid[row][col] &= mask
	if c.Grid[row][col] < 0x2800 {
		c.Grid[row][col] = 0x2800
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Scatter draws every finite body position inside bounds onto a w by h
// cell canvas. Positive charges, negative charges and neutral bodies are
// drawn as separate layers so they can be styled apart.
func Scatter(bodies []dynamo.Body, bounds r2.Box, w, h int) (pos, neg, neutral *Canvas) {
	pos, neg, neutral = NewCanvas(w, h), NewCanvas(w, h), NewCanvas(w, h)
	span := r2.Sub(bounds.Max, bounds.Min)
	if !(span.X > 0) || !(span.Y > 0) {
		return pos, neg, neutral
	}

	pw, ph := float64(w*2), float64(h*4)
	for i := range bodies {
		b := &bodies[i]
		if !dynamo.VecFinite(b.Pos) {
			continue
		}
		x := int((b.Pos.X - bounds.Min.X) / span.X * pw)
		// rows grow downward
		y := int((bounds.Max.Y - b.Pos.Y) / span.Y * ph)
		switch {
		case b.Charge > 0:
			pos.Set(x, y)
		case b.Charge < 0:
			neg.Set(x, y)
		default:
			neutral.Set(x, y)
		}
	}
	return pos, neg, neutral
}

// Merge overlays the layers cell by cell; the first non-empty layer wins
// the cell's style.
func Merge(layers []*Canvas, styles []func(string) string) string {
	if len(layers) == 0 {
		return ""
	}
	var b strings.Builder
	base := layers[0]
	for row := 0; row < base.Height; row++ {
		for col := 0; col < base.Width; col++ {
			var dots rune
			owner := -1
			for k, l := range layers {
				if bits := l.Grid[row][col] - 0x2800; bits != 0 {
					dots |= bits
					if owner < 0 {
						owner = k
					}
				}
			}
			cell := string(0x2800 + dots)
			if owner >= 0 && owner < len(styles) && styles[owner] != nil {
				cell = styles[owner](cell)
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

const (
	background    = "#0a0a0a"
	positiveColor = "#ff4444"
	negativeColor = "#4488ff"
	neutralColor  = "#aaaaaa"
)

// BodiesSVG draws every finite body inside bounds as a circle colored by
// the sign of its charge. The image is size pixels on its longer side and
// keeps the aspect ratio of bounds. Bodies with no radius get one pixel.
func BodiesSVG(w io.Writer, bodies []dynamo.Body, bounds r2.Box, size int) error {
	span := r2.Sub(bounds.Max, bounds.Min)
	if !(span.X > 0) || !(span.Y > 0) || size < 1 {
		return fmt.Errorf("%w: empty svg bounds", dynamo.ErrParameterBounds)
	}

	scale := float64(size) / math.Max(span.X, span.Y)
	width, height := span.X*scale, span.Y*scale

	var sb strings.Builder
	header(&sb, width, height)

	for _, group := range []struct {
		color string
		keep  func(q float64) bool
	}{
		{neutralColor, func(q float64) bool { return q == 0 }},
		{negativeColor, func(q float64) bool { return q < 0 }},
		{positiveColor, func(q float64) bool { return q > 0 }},
	} {
		fmt.Fprintf(&sb, "<g fill=%q>\n", group.color)
		for i := range bodies {
			b := &bodies[i]
			if !dynamo.VecFinite(b.Pos) || !group.keep(b.Charge) {
				continue
			}
			cx := (b.Pos.X - bounds.Min.X) * scale
			// svg rows grow downward
			cy := (bounds.Max.Y - b.Pos.Y) * scale
			if cx < 0 || cy < 0 || cx > width || cy > height {
				continue
			}
			r := math.Max(b.Radius*scale, 1)
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// SeriesSVG plots ys against xs as a single polyline, padded by 10% on
// every side. Non-finite samples break the line.
func SeriesSVG(w io.Writer, xs, ys []float64, width, height int, strokeColor string) error {
	n := min(len(xs), len(ys))
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", dynamo.ErrParameterBounds, n)
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if !dynamo.IsFinite(xs[i]) || !dynamo.IsFinite(ys[i]) {
			continue
		}
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	if math.IsInf(minX, 1) {
		return fmt.Errorf("%w: no finite samples", dynamo.ErrParameterBounds)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=\"", strokeColor)

	move := true
	for i := 0; i < n; i++ {
		if !dynamo.IsFinite(xs[i]) || !dynamo.IsFinite(ys[i]) {
			move = true
			continue
		}
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if move {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			move = false
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString("\"/>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

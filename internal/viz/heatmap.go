package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/electrosim/internal/physics"
)

var shades = []rune{' ', '░', '▒', '▓', '█'}

const (
	hotColor  = "#ff4444"
	coldColor = "#4488ff"
	zeroColor = "#222233"
)

// Heatmap renders a sampled potential grid one character per lattice cell,
// top row first. Shade density follows |phi| on a log scale relative to the
// largest finite magnitude; hue follows the sign.
func Heatmap(g *physics.Grid) string {
	if g == nil || g.NX == 0 || g.NY == 0 {
		return ""
	}

	peak := 0.0
	for _, v := range g.Potential {
		if a := math.Abs(v); !math.IsInf(a, 0) && a > peak {
			peak = a
		}
	}

	var b strings.Builder
	for iy := g.NY - 1; iy >= 0; iy-- {
		for ix := 0; ix < g.NX; ix++ {
			phi, _ := g.At(ix, iy)
			b.WriteString(shadeCell(phi, peak))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Level maps a potential onto [0, 1], compressing the dynamic range with
// log1p so that far-field structure remains visible next to point sources.
func Level(phi, peak float64) float64 {
	if math.IsNaN(phi) || peak <= 0 {
		return 0
	}
	a := math.Abs(phi)
	if a >= peak {
		return 1
	}
	const compress = 1e3
	return math.Log1p(compress*a/peak) / math.Log1p(compress)
}

func shadeCell(phi, peak float64) string {
	lvl := Level(phi, peak)
	idx := int(lvl * float64(len(shades)-1))
	if idx == 0 {
		return string(shades[0])
	}
	target := hotColor
	if phi < 0 {
		target = coldColor
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(blend(zeroColor, target, lvl)))
	return style.Render(string(shades[idx]))
}

func blend(from, to string, t float64) string {
	return parseColor(from).BlendRgb(parseColor(to), t).Clamped().Hex()
}

package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// layer is one block of rendered content placed at a workspace position.
type layer struct {
	x, y    int
	content string
}

// compose paints layers over a blank width x height canvas in slice order,
// clipping at the canvas edges. Later layers obscure earlier ones, so callers
// pass windows bottom-up by z-index.
func compose(width, height int, layers []layer) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := make([]string, height)
	blank := strings.Repeat(" ", width)
	for i := range canvas {
		canvas[i] = blank
	}
	for _, l := range layers {
		for i, line := range strings.Split(l.content, "\n") {
			row := l.y + i
			if row < 0 || row >= height {
				continue
			}
			canvas[row] = overlayLine(canvas[row], line, l.x, width)
		}
	}
	return strings.Join(canvas, "\n")
}

// overlayLine splices block into base starting at cell x, preserving escape
// sequences on both sides of the splice.
func overlayLine(base, block string, x, width int) string {
	if x >= width {
		return base
	}
	if x < 0 {
		block = ansi.TruncateLeft(block, -x, "")
		x = 0
	}
	blockW := ansi.StringWidth(block)
	if blockW == 0 {
		return base
	}
	if x+blockW > width {
		block = ansi.Truncate(block, width-x, "")
		blockW = width - x
	}

	left := ansi.Truncate(base, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	right := ansi.TruncateLeft(base, x+blockW, "")
	return left + block + right
}

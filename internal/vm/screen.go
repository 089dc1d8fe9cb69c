package vm

import "strings"

// Framebuffer holds one cell per pixel, row-major, each 0 or 1.
type Framebuffer [ScreenWidth * ScreenHeight]uint8

func (fb *Framebuffer) At(x, y int) bool {
	return fb[screenAddr(x, y)] != 0
}

// String renders the screen as rows of '#' and '.', one line per row.
func (fb *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow((ScreenWidth + 1) * ScreenHeight)

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if fb.At(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// screenAddr wraps each axis on its own, so a sprite leaving the right edge
// reappears on the left of the same row rather than on the next row.
func screenAddr(x, y int) int {
	x %= ScreenWidth
	y %= ScreenHeight

	return ScreenWidth*y + x
}

// Package render displays a grid in a desktop window. The window never
// mutates the grid; stepping is done by the advance function the caller
// supplies. The ebiten window is only built with -tags display.
package render

import "lifeevo/internal/life"

const (
	DefaultCellSize = 8
	DefaultTPS      = 30
)

var (
	liveColor = [4]byte{0xff, 0xff, 0xff, 0xff}
	deadColor = [4]byte{0x00, 0x00, 0x00, 0xff}
)

// paint writes the grid into an RGBA buffer of 4*w*h bytes, row-major.
func paint(grid *life.Grid, pixels []byte) {
	for i, v := range grid.Cells() {
		c := deadColor
		if v != 0 {
			c = liveColor
		}
		copy(pixels[4*i:4*i+4], c[:])
	}
}

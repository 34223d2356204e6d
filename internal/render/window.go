//go:build display

package render

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"lifeevo/internal/life"
)

// AdvanceFunc is called once per tick while the window is running. It
// returns false once there is nothing left to advance.
type AdvanceFunc func() (bool, error)

type Options struct {
	Title    string
	CellSize int
	TPS      int
	// Status, when set, is printed in the top-left corner every frame.
	Status func() string
}

type Window struct {
	grid    *life.Grid
	advance AdvanceFunc
	opts    Options

	texture *ebiten.Image
	pixels  []byte
	paused  bool
	done    bool
	ticks   int
}

func NewWindow(grid *life.Grid, advance AdvanceFunc, opts Options) (*Window, error) {
	if grid == nil {
		return nil, errors.New("grid is required")
	}
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultCellSize
	}
	if opts.TPS <= 0 {
		opts.TPS = DefaultTPS
	}
	if opts.Title == "" {
		opts.Title = "lifeevo"
	}
	return &Window{
		grid:    grid,
		advance: advance,
		opts:    opts,
		pixels:  make([]byte, 4*grid.Width()*grid.Height()),
	}, nil
}

// Run opens the window and blocks until it is closed or Escape is pressed.
func (w *Window) Run() error {
	ebiten.SetWindowSize(w.grid.Width()*w.opts.CellSize, w.grid.Height()*w.opts.CellSize)
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetTPS(w.opts.TPS)
	if err := ebiten.RunGame(w); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func (w *Window) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		w.paused = !w.paused
	}
	if w.paused || w.done || w.advance == nil {
		return nil
	}
	more, err := w.advance()
	if err != nil {
		return err
	}
	w.ticks++
	if !more {
		w.done = true
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.texture == nil {
		w.texture = ebiten.NewImage(w.grid.Width(), w.grid.Height())
	}
	paint(w.grid, w.pixels)
	w.texture.WritePixels(w.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w.opts.CellSize), float64(w.opts.CellSize))
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(w.texture, op)

	line := fmt.Sprintf("tick %d  live %d", w.ticks, w.grid.Population())
	if w.opts.Status != nil {
		line = w.opts.Status()
	}
	if w.paused {
		line += "  [paused]"
	} else if w.done {
		line += "  [done]"
	}
	ebitenutil.DebugPrint(screen, line)
}

func (w *Window) Layout(_, _ int) (int, int) {
	return w.grid.Width() * w.opts.CellSize, w.grid.Height() * w.opts.CellSize
}

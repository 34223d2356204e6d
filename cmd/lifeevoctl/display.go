//go:build display

package main

import (
	"lifeevo/internal/life"
	"lifeevo/internal/render"
)

const displaySupported = true

func showGrid(grid *life.Grid, advance render.AdvanceFunc, title string, cellSize int) error {
	w, err := render.NewWindow(grid, advance, render.Options{Title: title, CellSize: cellSize})
	if err != nil {
		return err
	}
	return w.Run()
}

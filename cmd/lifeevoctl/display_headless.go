//go:build !display

package main

import "lifeevo/internal/life"

const displaySupported = false

func showGrid(_ *life.Grid, _ func() (bool, error), _ string, _ int) error {
	return errNoDisplay
}

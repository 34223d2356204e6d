package life

import "testing"

func TestLookupPatternUnknown(t *testing.T) {
	if _, err := LookupPattern("spaceship-x"); err == nil {
		t.Fatal("expected unknown pattern error")
	}
}

func TestPatternNamesSorted(t *testing.T) {
	names := PatternNames()
	if len(names) != 5 {
		t.Fatalf("unexpected pattern count: %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestStampDropsOffGridCells(t *testing.T) {
	g := mustGrid(t, 4, 4)
	pulsar, _ := LookupPattern("pulsar")
	written := Stamp(g, pulsar, 2, 2)
	if written != g.Population() {
		t.Fatalf("written=%d population=%d", written, g.Population())
	}
	if written >= len(pulsar.Cells) {
		t.Fatalf("expected some cells to be dropped, wrote %d of %d", written, len(pulsar.Cells))
	}
}

func TestGliderGunShape(t *testing.T) {
	gun, _ := LookupPattern("glider-gun")
	if len(gun.Cells) != 36 {
		t.Fatalf("expected 36 live cells, got %d", len(gun.Cells))
	}
	maxX, maxY := 0, 0
	for _, c := range gun.Cells {
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	if maxX != 8 || maxY != 35 {
		t.Fatalf("unexpected gun extent: %d x %d", maxX+1, maxY+1)
	}
}

package mask

import "testing"

func fill(m *Mask, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			m.Set(x, y, true)
		}
	}
}

func TestGetOutsideIsEmpty(t *testing.T) {
	m := New(3, 3)
	fill(m, 0, 0, 2, 2)
	if m.Get(-1, 0) || m.Get(3, 0) || m.Get(0, -1) || m.Get(0, 3) {
		t.Fatal("out of bounds reads must be empty")
	}
}

func TestDilateErode(t *testing.T) {
	m := New(9, 9)
	m.Set(4, 4, true)
	m.Dilate(1)
	if m.Count() != 9 {
		t.Fatalf("dilated count = %d, want 9", m.Count())
	}
	m.Erode(1)
	if m.Count() != 1 || !m.Get(4, 4) {
		t.Fatalf("erode did not undo dilate, count = %d", m.Count())
	}
	// A lone pixel erodes away entirely.
	m.Erode(1)
	if m.Count() != 0 {
		t.Fatalf("count = %d, want 0", m.Count())
	}
}

func TestErodePreservesBorder(t *testing.T) {
	m := New(6, 6)
	fill(m, 0, 0, 5, 5)
	m.Erode(1)
	if m.Count() != 36 {
		t.Fatalf("full mask eroded at border, count = %d", m.Count())
	}
}

func TestComponentsConnectivity(t *testing.T) {
	// Two solid blocks touching only diagonally.
	m := New(6, 6)
	fill(m, 0, 0, 1, 1)
	fill(m, 2, 2, 3, 3)

	if got := len(Components(m, false)); got != 2 {
		t.Fatalf("4-connected components = %d, want 2", got)
	}
	comps := Components(m, true)
	if len(comps) != 1 {
		t.Fatalf("8-connected components = %d, want 1", len(comps))
	}
	if comps[0].Area() != 8 {
		t.Fatalf("area = %d, want 8", comps[0].Area())
	}
	if !comps[0].TouchesBorder {
		t.Fatal("component touches the border")
	}
	// First pixel in raster order.
	if comps[0].Pixels[0] != 0 {
		t.Fatalf("first pixel offset = %d, want 0", comps[0].Pixels[0])
	}
}

func TestComponentsInterior(t *testing.T) {
	m := New(8, 8)
	fill(m, 2, 2, 4, 4)
	comps := Components(m, true)
	if len(comps) != 1 || comps[0].TouchesBorder {
		t.Fatalf("unexpected components: %+v", comps)
	}
	if comps[0].MinX != 2 || comps[0].MaxX != 4 || comps[0].MinY != 2 || comps[0].MaxY != 4 {
		t.Fatalf("bbox = (%d,%d)-(%d,%d)", comps[0].MinX, comps[0].MinY, comps[0].MaxX, comps[0].MaxY)
	}
}

func TestInvert(t *testing.T) {
	m := New(4, 4)
	m.Set(1, 1, true)
	inv := m.Invert()
	if inv.Count() != 15 || inv.Get(1, 1) {
		t.Fatalf("invert wrong, count = %d", inv.Count())
	}
	if !m.Get(1, 1) {
		t.Fatal("Invert modified the receiver")
	}
}

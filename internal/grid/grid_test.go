package grid

import "testing"

func TestSetGetCell(t *testing.T) {
	g := New(10, 5, 100)
	var c Cell
	c.SetText("x")
	g.SetCell(3, 2, c)

	got := g.GetCell(3, 2)
	if got.Text() != "x" {
		t.Fatalf("Text() = %q, want %q", got.Text(), "x")
	}
}

func TestGetCellOutOfRangeIsBlank(t *testing.T) {
	g := New(10, 5, 0)
	c := g.GetCell(100, 100)
	if !c.IsBlank() {
		t.Fatalf("expected blank cell for out-of-range read")
	}
	c = g.GetCell(-1, -1)
	if !c.IsBlank() {
		t.Fatalf("expected blank cell for negative read")
	}
}

func TestSetCellOutOfRangeNoop(t *testing.T) {
	g := New(10, 5, 0)
	var c Cell
	c.SetText("z")
	g.SetCell(-1, 0, c)
	g.SetCell(0, -1, c)
	g.SetCell(0, 100, c)
	// None of the above should panic; nothing to assert beyond survival.
}

func TestClearLines(t *testing.T) {
	g := New(5, 3, 0)
	var c Cell
	c.SetText("a")
	g.SetCell(0, 1, c)
	g.ClearLines(1, 1, Color{})
	if !g.GetCell(0, 1).IsBlank() {
		t.Fatalf("expected row 1 cleared")
	}
}

func TestScrollRegionUpFullScreenFeedsScrollback(t *testing.T) {
	g := New(5, 3, 10)
	for y := 0; y < 3; y++ {
		var c Cell
		c.SetText(string(rune('A' + y)))
		g.SetCell(0, y, c)
	}
	g.ScrollRegionUp(0, 2, 1, Color{})

	if g.HistorySize() != 1 {
		t.Fatalf("HistorySize() = %d, want 1", g.HistorySize())
	}
	hr := g.HistoryRow(0)
	if len(hr.cells) == 0 || hr.cells[0].Text() != "A" {
		t.Fatalf("expected retired row to hold 'A'")
	}
	if g.GetCell(0, 0).Text() != "B" {
		t.Fatalf("row 0 after scroll = %q, want B", g.GetCell(0, 0).Text())
	}
	if !g.GetCell(0, 2).IsBlank() {
		t.Fatalf("expected new bottom row blank")
	}
}

func TestScrollRegionUpPartialRegionDropsRows(t *testing.T) {
	g := New(5, 5, 10)
	for y := 0; y < 5; y++ {
		var c Cell
		c.SetText(string(rune('A' + y)))
		g.SetCell(0, y, c)
	}
	// Scroll only rows 1..3, not the full screen: retired rows must not
	// land in scrollback.
	g.ScrollRegionUp(1, 3, 1, Color{})
	if g.HistorySize() != 0 {
		t.Fatalf("HistorySize() = %d, want 0 for partial-region scroll", g.HistorySize())
	}
	if g.GetCell(0, 1).Text() != "C" {
		t.Fatalf("row 1 after partial scroll = %q, want C", g.GetCell(0, 1).Text())
	}
}

func TestScrollbackRingDropsOldest(t *testing.T) {
	g := New(5, 1, 2)
	for i := 0; i < 4; i++ {
		var c Cell
		c.SetText(string(rune('A' + i)))
		g.SetCell(0, 0, c)
		g.ScrollRegionUp(0, 0, 1, Color{})
	}
	if g.HistorySize() != 2 {
		t.Fatalf("HistorySize() = %d, want 2 (ring capacity)", g.HistorySize())
	}
	// Oldest surviving entry should be "C" (A and B dropped).
	if g.HistoryRow(0).cells[0].Text() != "C" {
		t.Fatalf("oldest scrollback row = %q, want C", g.HistoryRow(0).cells[0].Text())
	}
	if g.HistoryRow(1).cells[0].Text() != "D" {
		t.Fatalf("newest scrollback row = %q, want D", g.HistoryRow(1).cells[0].Text())
	}
}

func TestMoveLines(t *testing.T) {
	g := New(5, 3, 0)
	var c Cell
	c.SetText("m")
	g.SetCell(0, 0, c)
	g.MoveLines(2, 0, 1)
	if g.GetCell(0, 2).Text() != "m" {
		t.Fatalf("expected moved row at index 2")
	}
}

func TestViewRowAsString(t *testing.T) {
	g := New(5, 1, 0)
	for i, ch := range "hi" {
		var c Cell
		c.SetText(string(ch))
		g.SetCell(i, 0, c)
	}
	got := string(g.ViewRowAsString(0, 0, 5, true))
	if got != "hi   " {
		t.Fatalf("ViewRowAsString = %q, want %q", got, "hi   ")
	}
}

func TestReflowRewrapsWrappedRun(t *testing.T) {
	g := New(4, 2, 10)
	for i, ch := range "abcd" {
		var c Cell
		c.SetText(string(ch))
		g.SetCell(i, 0, c)
	}
	g.SetWrapped(0, true)
	for i, ch := range "ef" {
		var c Cell
		c.SetText(string(ch))
		g.SetCell(i, 1, c)
	}

	g.Reflow(6)

	sx, _ := g.Size()
	if sx != 6 {
		t.Fatalf("Size().sx = %d, want 6", sx)
	}
	got := string(g.ViewRowAsString(0, 0, 6, true))
	if got != "abcdef" {
		t.Fatalf("row 0 after reflow = %q, want %q", got, "abcdef")
	}
}

func TestPaddingCellPreservesAttrs(t *testing.T) {
	var wide Cell
	wide.SetText("a")
	wide.Width = 2
	wide.Attr = AttrBold
	pad := PaddingCell(wide)
	if pad.Width != 0 {
		t.Fatalf("PaddingCell width = %d, want 0", pad.Width)
	}
	if pad.Attr != AttrBold {
		t.Fatalf("PaddingCell dropped attrs")
	}
}

func TestColorDowngradeToAnsi(t *testing.T) {
	red := Color{Kind: ColorRGB, R: 255, G: 0, B: 0}
	down := red.Downgrade(ColorANSI)
	if down.Kind != ColorANSI {
		t.Fatalf("Downgrade kind = %v, want ColorANSI", down.Kind)
	}
}

func TestColorDowngradeNoopWhenAlreadyLower(t *testing.T) {
	c := Color{Kind: ColorANSI, Index: 3}
	down := c.Downgrade(Color256)
	if down != c {
		t.Fatalf("Downgrade to a higher kind should be a no-op")
	}
}

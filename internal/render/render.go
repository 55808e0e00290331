// Package render implements the row-diffing renderer (spec.md §4.8):
// given a client's last-known screen and the pane's current grid.Grid,
// it emits the smallest sequence of terminal operations that
// transforms one into the other. Grounded on
// internal/session/client/render.go's RenderLineFrom (SGR-reset
// between format regions to stop attribute bleed) and renderLiveView's
// cursor-anchored redraw, generalized from that file's one-shot full
// repaint into a genuine unchanged-run diff per spec.md §4.8's steps
// 1-3.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tmux/tmux-sub006/internal/grid"
)

// Snapshot is an immutable row-major copy of a Screen's visible grid,
// taken at the start of a render pass so the renderer never reads from
// a pane's live PTY or mutates its Screen (spec.md §4.8's isolation
// requirement).
type Snapshot struct {
	Sx, Sy int
	Rows   [][]grid.Cell
}

// Snap copies the visible sx*sy rectangle of g into a Snapshot.
func Snap(g *grid.Grid) Snapshot {
	sx, sy := g.Size()
	s := Snapshot{Sx: sx, Sy: sy, Rows: make([][]grid.Cell, sy)}
	for y := 0; y < sy; y++ {
		row := make([]grid.Cell, sx)
		for x := 0; x < sx; x++ {
			row[x] = g.GetCell(x, y)
		}
		s.Rows[y] = row
	}
	return s
}

// Renderer accumulates SGR state across a render pass so that runs of
// identical attributes emit the escape once (spec.md §4.8 step 3), and
// tracks the last position it moved the cursor to so it can skip a
// redundant CUP when continuing on the same row (step 2).
type Renderer struct {
	Caps *Capabilities

	curAttr  attrState
	haveAttr bool
	curRow   int
	curCol   int
	havePos  bool
}

// New creates a Renderer using the given capability set (see
// Probe/caps.go).
func New(caps *Capabilities) *Renderer {
	return &Renderer{Caps: caps}
}

// Diff writes the operations that transform prev into cur to w,
// following spec.md §4.8's four-step technique, and returns the number
// of rows that needed a redraw.
func (r *Renderer) Diff(w io.Writer, prev, cur Snapshot) (int, error) {
	var buf bytes.Buffer
	dirty := 0
	for y := 0; y < cur.Sy; y++ {
		var prevRow []grid.Cell
		if y < len(prev.Rows) {
			prevRow = prev.Rows[y]
		}
		curRow := cur.Rows[y]
		if rowsEqual(prevRow, curRow) {
			continue
		}
		dirty++
		r.diffRow(&buf, y, prevRow, curRow)
	}
	if buf.Len() == 0 {
		return 0, nil
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return dirty, fmt.Errorf("write render diff: %w", err)
	}
	return dirty, nil
}

func rowsEqual(a, b []grid.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !cellsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func cellsEqual(a, b grid.Cell) bool {
	return a.Text() == b.Text() && a.Width == b.Width && a.Fg == b.Fg &&
		a.Bg == b.Bg && a.Attr == b.Attr && a.Underline == b.Underline
}

// diffRow finds the longest unchanged run at both ends of the row
// (spec.md §4.8 step 2), then repaints only the differing middle span.
// When prevRow's length differs from curRow's (the pane was resized
// since the last render), no trailing run can be trusted to line up,
// so the whole row is repainted.
func (r *Renderer) diffRow(buf *bytes.Buffer, y int, prevRow, curRow []grid.Cell) {
	n := len(curRow)
	sameLength := len(prevRow) == n

	start := 0
	for start < n && sameLength && cellsEqual(prevRow[start], curRow[start]) {
		start++
	}

	end := n
	if sameLength {
		for end > start && cellsEqual(prevRow[end-1], curRow[end-1]) {
			end--
		}
	}
	if start >= end {
		return
	}

	r.moveCursor(buf, y, start)
	for x := start; x < end; x++ {
		c := curRow[x]
		r.applyAttr(buf, c)
		buf.WriteString(c.Text())
		r.curCol++
	}
	r.havePos = true
	r.curRow = y
}

func (r *Renderer) moveCursor(buf *bytes.Buffer, row, col int) {
	if r.havePos && r.curRow == row && r.curCol == col {
		return
	}
	fmt.Fprintf(buf, "\033[%d;%dH", row+1, col+1)
	r.curRow, r.curCol, r.havePos = row, col, true
}

// attrState is the subset of a Cell that drives SGR emission.
type attrState struct {
	fg, bg    grid.Color
	attr      grid.Attr
	underline grid.UnderlineStyle
}

func (r *Renderer) applyAttr(buf *bytes.Buffer, c grid.Cell) {
	next := attrState{fg: c.Fg, bg: c.Bg, attr: c.Attr, underline: c.Underline}
	if r.haveAttr && next == r.curAttr {
		return
	}
	buf.WriteString(sgrSequence(next, r.Caps))
	r.curAttr = next
	r.haveAttr = true
}

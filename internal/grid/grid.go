package grid

// Row is one line of cells. Rows are allocated lazily and may be shorter
// than the grid's width; missing trailing cells are implicitly blank
// (spec.md §3 "Grid"). Wrapped marks that this row's last cell wrapped
// into the next row rather than ending with a hard newline; reflow
// consults only this bit.
type Row struct {
	cells   []Cell
	Wrapped bool
}

func (r *Row) cellAt(x int) Cell {
	if x < 0 || x >= len(r.cells) {
		return Cell{Width: 1}
	}
	return r.cells[x]
}

func (r *Row) ensure(n int, bg Color) {
	for len(r.cells) < n {
		r.cells = append(r.cells, BlankCell(bg))
	}
}

// Grid is a dense character cell buffer of size sx (width) x sy (visible
// height), plus a circular scrollback ring of up to hsize retired rows.
// All mutators clamp out-of-range indices silently rather than erroring,
// so that the screen writer layered on top can stay unconditional
// (spec.md §4.1 "a grid never throws").
type Grid struct {
	sx, sy int

	rows []Row // visible rows, length sy

	// scrollback is a ring buffer; scrollback[scrollHead] is the oldest
	// surviving row once the ring has wrapped. Mirrors tmux's grid
	// history ring and xterm's saved_fifo indexing (real_row = row +
	// saved_fifo, oldest dropped first once the ring is full).
	scrollback    []Row
	scrollHead    int
	scrollLen     int
	hsize         int
}

// New creates a grid of the given visible size with a scrollback capacity
// of hsize rows (0 disables scrollback).
func New(sx, sy, hsize int) *Grid {
	g := &Grid{sx: sx, sy: sy, hsize: hsize}
	g.rows = make([]Row, sy)
	if hsize > 0 {
		g.scrollback = make([]Row, hsize)
	}
	return g
}

func (g *Grid) Size() (sx, sy int) { return g.sx, g.sy }

// HistorySize returns the number of rows currently retired to scrollback.
func (g *Grid) HistorySize() int { return g.scrollLen }

// SetCell writes a single cell at (x, y). Out-of-range coordinates are a
// silent no-op (spec.md §4.1 contract).
func (g *Grid) SetCell(x, y int, c Cell) {
	if y < 0 || y >= g.sy || x < 0 || x >= g.sx {
		return
	}
	row := &g.rows[y]
	row.ensure(x+1, Color{})
	row.cells[x] = c
}

// GetCell reads the cell at (x, y); out-of-range reads return a blank cell.
func (g *Grid) GetCell(x, y int) Cell {
	if y < 0 || y >= g.sy {
		return Cell{Width: 1}
	}
	return g.rows[y].cellAt(x)
}

// SetWrapped marks row y as having wrapped into the next row (the writer
// sets this when it auto-wraps rather than newlines; reflow reads it back).
func (g *Grid) SetWrapped(y int, wrapped bool) {
	if y < 0 || y >= g.sy {
		return
	}
	g.rows[y].Wrapped = wrapped
}

// ClearLines blanks n rows starting at y with the given background colour.
func (g *Grid) ClearLines(y, n int, bg Color) {
	for i := 0; i < n; i++ {
		row := y + i
		if row < 0 || row >= g.sy {
			continue
		}
		g.rows[row] = Row{}
		if bg.Kind != ColorDefault {
			g.rows[row].ensure(g.sx, bg)
		}
	}
}

// ClearRect blanks the rectangle [x0,x1) x [y0,y1) with bg.
func (g *Grid) ClearRect(x0, x1, y0, y1 int, bg Color) {
	if x0 < 0 {
		x0 = 0
	}
	if x1 > g.sx {
		x1 = g.sx
	}
	for y := y0; y < y1; y++ {
		if y < 0 || y >= g.sy {
			continue
		}
		row := &g.rows[y]
		row.ensure(x1, bg)
		for x := x0; x < x1 && x < len(row.cells); x++ {
			row.cells[x] = BlankCell(bg)
		}
	}
}

// MoveLines moves n rows from srcY to dstY within the grid (used for
// insert/delete-line without touching scrollback).
func (g *Grid) MoveLines(dstY, srcY, n int) {
	if n <= 0 {
		return
	}
	tmp := make([]Row, n)
	for i := 0; i < n; i++ {
		if srcY+i >= 0 && srcY+i < g.sy {
			tmp[i] = g.rows[srcY+i]
		}
	}
	for i := 0; i < n; i++ {
		if dstY+i >= 0 && dstY+i < g.sy {
			g.rows[dstY+i] = tmp[i]
		}
	}
}

// ScrollRegionUp scrolls the region [top, bot] up by n rows, feeding blank
// rows in at the bottom. If the region spans the full screen (top==0,
// bot==sy-1), the n retired rows are appended to scrollback; a partial
// region's retired rows are discarded instead. This distinction is
// behaviourally significant (spec.md §4.1) and must not be collapsed.
func (g *Grid) ScrollRegionUp(top, bot, n int, bg Color) {
	top, bot = g.clampRegion(top, bot)
	height := bot - top + 1
	if n <= 0 || height <= 0 {
		return
	}
	if n > height {
		n = height
	}
	fullScreen := top == 0 && bot == g.sy-1
	for i := 0; i < n; i++ {
		retired := g.rows[top+i]
		if fullScreen {
			g.pushScrollback(retired)
		}
	}
	copy(g.rows[top:bot+1], g.rows[top+n:bot+1])
	for i := bot - n + 1; i <= bot; i++ {
		g.rows[i] = Row{}
		_ = bg
	}
}

// ScrollRegionDown scrolls the region [top, bot] down by n rows, feeding
// blank rows in at the top. Never touches scrollback (content is moving
// toward the visible area, not away from it).
func (g *Grid) ScrollRegionDown(top, bot, n int, bg Color) {
	top, bot = g.clampRegion(top, bot)
	height := bot - top + 1
	if n <= 0 || height <= 0 {
		return
	}
	if n > height {
		n = height
	}
	copy(g.rows[top+n:bot+1], g.rows[top:bot+1-n])
	for i := top; i < top+n; i++ {
		g.rows[i] = Row{}
	}
}

func (g *Grid) clampRegion(top, bot int) (int, int) {
	if top < 0 {
		top = 0
	}
	if bot >= g.sy {
		bot = g.sy - 1
	}
	if bot < top {
		bot = top
	}
	return top, bot
}

func (g *Grid) pushScrollback(r Row) {
	if g.hsize == 0 {
		return
	}
	idx := (g.scrollHead + g.scrollLen) % g.hsize
	g.scrollback[idx] = r
	if g.scrollLen < g.hsize {
		g.scrollLen++
	} else {
		g.scrollHead = (g.scrollHead + 1) % g.hsize
	}
}

// HistoryRow returns the scrollback row at logical index i, where 0 is
// the oldest surviving row and HistorySize()-1 is the most recently
// retired one.
func (g *Grid) HistoryRow(i int) Row {
	if i < 0 || i >= g.scrollLen || g.hsize == 0 {
		return Row{}
	}
	return g.scrollback[(g.scrollHead+i)%g.hsize]
}

// ViewRowAsString renders len cells of row y starting at x0 as a UTF-8
// byte string, for capture-pane / save-buffer style consumers. utf8
// controls whether multi-byte graphemes are emitted verbatim (true) or
// replaced with '?' (false, for non-UTF-8 clients).
func (g *Grid) ViewRowAsString(y, x0, length int, utf8 bool) []byte {
	out := make([]byte, 0, length)
	for x := x0; x < x0+length; x++ {
		c := g.GetCell(x, y)
		if c.Width == 0 {
			continue // padding cell of a preceding wide char
		}
		if c.IsBlank() {
			out = append(out, ' ')
			continue
		}
		if !utf8 {
			out = append(out, '?')
			continue
		}
		out = append(out, c.Text()...)
	}
	return out
}

// Reflow re-wraps the grid's visible rows to a new width, merging rows
// whose Wrapped bit is set back into one logical line before re-splitting
// at newSx. Scrollback reflow is implementation-defined (spec.md §9 open
// question); this implementation reflows only the visible screen, which
// the spec accepts as the minimum requirement.
func (g *Grid) Reflow(newSx int) {
	if newSx == g.sx || newSx <= 0 {
		g.sx = newSx
		return
	}
	logical := g.mergeWrapped()
	g.sx = newSx
	g.rows = rewrap(logical, newSx)
	for len(g.rows) < g.sy {
		g.rows = append(g.rows, Row{})
	}
	if len(g.rows) > g.sy {
		// Oldest overflow rows retire to scrollback, newest kept visible.
		overflow := len(g.rows) - g.sy
		for i := 0; i < overflow; i++ {
			g.pushScrollback(g.rows[i])
		}
		g.rows = g.rows[overflow:]
	}
}

// mergeWrapped joins any run of rows ending in Wrapped=true into a single
// logical row of concatenated cells.
func (g *Grid) mergeWrapped() []Row {
	var logical []Row
	var cur []Cell
	for _, r := range g.rows {
		cur = append(cur, trimTrailingBlank(r.cells)...)
		if !r.Wrapped {
			logical = append(logical, Row{cells: cur})
			cur = nil
		}
	}
	if cur != nil {
		logical = append(logical, Row{cells: cur})
	}
	return logical
}

func trimTrailingBlank(cells []Cell) []Cell {
	end := len(cells)
	for end > 0 && cells[end-1].IsBlank() {
		end--
	}
	return cells[:end]
}

// rewrap splits each logical row into newSx-wide rows, setting Wrapped on
// all but the last piece.
func rewrap(logical []Row, newSx int) []Row {
	var out []Row
	for _, row := range logical {
		cells := row.cells
		if len(cells) == 0 {
			out = append(out, Row{})
			continue
		}
		for len(cells) > newSx {
			out = append(out, Row{cells: append([]Cell(nil), cells[:newSx]...), Wrapped: true})
			cells = cells[newSx:]
		}
		out = append(out, Row{cells: append([]Cell(nil), cells...)})
	}
	return out
}

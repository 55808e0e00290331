package render

import (
	"bytes"
	"fmt"

	"github.com/tmux/tmux-sub006/internal/layout"
)

// PaneNumber identifies a layout leaf for display-panes labeling: its
// tree-visitation order and the rectangle the renderer should draw the
// label over.
type PaneNumber struct {
	Index  int
	X, Y   int
	Sx, Sy int
}

// PaneNumbers walks root's leaves in tree order and assigns each the
// index a client would select with its digit key in display-panes mode
// (cmd-display-panes.c numbers panes in layout-cell order, not pane
// creation order).
func PaneNumbers(root *layout.Node) []PaneNumber {
	var out []PaneNumber
	for i, leaf := range root.Leaves() {
		out = append(out, PaneNumber{Index: i, X: leaf.X, Y: leaf.Y, Sx: leaf.Sx, Sy: leaf.Sy})
	}
	return out
}

// PaneNumberOverlay renders the transient "which pane is this" digit
// labels display-panes draws centered over each pane, reusing the same
// cursor-positioning escapes the row differ uses rather than a
// separate drawing path (spec.md §4.8's renderer owns all screen
// painting, including transient overlays).
func PaneNumberOverlay(nums []PaneNumber) []byte {
	var buf bytes.Buffer
	for _, n := range nums {
		label := fmt.Sprintf("%d", n.Index)
		cx := n.X + n.Sx/2 - len(label)/2
		cy := n.Y + n.Sy/2
		if cx < n.X {
			cx = n.X
		}
		fmt.Fprintf(&buf, "\033[%d;%dH\033[1;7m %s \033[0m", cy+1, cx+1, label)
	}
	return buf.Bytes()
}

// PromptOverlay renders the command-prompt overlay on the terminal's
// last row, mirroring status.c's drawing of cmd-prompt.c's line: a ':'
// leader, the buffer contents, then CUP to plant the real cursor at the
// buffer's edit position rather than leaving it wherever the pane last
// put it.
func PromptOverlay(line string, cursor int, rows int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\033[%d;1H\033[K:%s", rows, line)
	fmt.Fprintf(&buf, "\033[%d;%dH", rows, cursor+2)
	return buf.Bytes()
}

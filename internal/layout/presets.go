package layout

import "github.com/tmux/tmux-sub006/internal/pane"

// Preset names one of the five canonical arrangements spec.md §4.5
// names; free-form trees are simply built by repeated Split calls and
// have no Preset value of their own.
type Preset uint8

const (
	PresetEvenHorizontal Preset = iota
	PresetEvenVertical
	PresetMainHorizontal
	PresetMainVertical
	PresetTiled
)

// Build constructs a canonical tree for the given preset over panes,
// sized to sx x sy. panes[0] is the "main" pane for the main-* presets.
func Build(preset Preset, panes []*pane.Pane, sx, sy int) *Node {
	switch preset {
	case PresetEvenHorizontal:
		return evenSplit(KindSplitHorizontal, panes, sx, sy)
	case PresetEvenVertical:
		return evenSplit(KindSplitVertical, panes, sx, sy)
	case PresetMainHorizontal:
		return mainSplit(KindSplitVertical, panes, sx, sy)
	case PresetMainVertical:
		return mainSplit(KindSplitHorizontal, panes, sx, sy)
	case PresetTiled:
		return tiled(panes, sx, sy)
	default:
		return evenSplit(KindSplitHorizontal, panes, sx, sy)
	}
}

func evenSplit(kind Kind, panes []*pane.Pane, sx, sy int) *Node {
	if len(panes) == 1 {
		leaf := NewLeaf(panes[0], sx, sy)
		leaf.Resize(0, 0, sx, sy)
		return leaf
	}
	n := &Node{Kind: kind}
	n.Children = make([]*Node, len(panes))
	n.Weights = make([]int, len(panes))
	for i, p := range panes {
		n.Children[i] = &Node{Kind: KindLeaf, Pane: p}
		n.Weights[i] = 1
	}
	n.Resize(0, 0, sx, sy)
	return n
}

// mainSplit puts panes[0] in a large primary region and the rest evenly
// split in the secondary region, along the given axis for the
// main-vs-rest division (main-horizontal splits top/bottom, so the
// inner even split of the remaining panes runs left/right, and vice
// versa — hence the caller passes the *divider* axis, not the inner
// one).
func mainSplit(dividerAxis Kind, panes []*pane.Pane, sx, sy int) *Node {
	if len(panes) == 1 {
		leaf := NewLeaf(panes[0], sx, sy)
		leaf.Resize(0, 0, sx, sy)
		return leaf
	}
	main := &Node{Kind: KindLeaf, Pane: panes[0]}
	innerAxis := KindSplitHorizontal
	if dividerAxis == KindSplitHorizontal {
		innerAxis = KindSplitVertical
	}
	rest := evenSplit(innerAxis, panes[1:], 0, 0)

	root := &Node{Kind: dividerAxis, Children: []*Node{main, rest}, Weights: []int{2, 1}}
	root.Resize(0, 0, sx, sy)
	return root
}

// tiled arranges panes in a roughly square grid of rows x cols, the way
// tmux's tiled preset does, built as nested even splits: an outer
// vertical split of rows, each row an even-horizontal split of its
// panes.
func tiled(panes []*pane.Pane, sx, sy int) *Node {
	n := len(panes)
	if n == 1 {
		leaf := NewLeaf(panes[0], sx, sy)
		leaf.Resize(0, 0, sx, sy)
		return leaf
	}
	cols := ceilSqrt(n)
	rows := (n + cols - 1) / cols

	rowNodes := make([]*Node, 0, rows)
	weights := make([]int, 0, rows)
	idx := 0
	for r := 0; r < rows && idx < n; r++ {
		remaining := n - idx
		perRow := cols
		if remaining < perRow {
			perRow = remaining
		}
		rowPanes := panes[idx : idx+perRow]
		idx += perRow
		rowNodes = append(rowNodes, evenSplit(KindSplitHorizontal, rowPanes, 0, 0))
		weights = append(weights, 1)
	}
	root := &Node{Kind: KindSplitVertical, Children: rowNodes, Weights: weights}
	root.Resize(0, 0, sx, sy)
	return root
}

func ceilSqrt(n int) int {
	c := 1
	for c*c < n {
		c++
	}
	return c
}

// Package layout implements the binary split-tree layout engine that
// maps a window's size onto its panes (spec.md §4.5). Grounded on
// layout-manual.c's grow/shrink-evenly algorithm, generalized from
// tmux's single-axis manual layout to a full binary tree of horizontal
// and vertical splits.
package layout

import "github.com/tmux/tmux-sub006/internal/pane"

// paneMinimum is the smallest a leaf's dimension along its split axis is
// allowed to shrink to before it is hidden rather than rendered
// (layout-manual.c's PANE_MINIMUM).
const paneMinimum = 1

// Kind distinguishes an interior split node from a leaf pane reference.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindSplitHorizontal // children side-by-side, split runs vertically
	KindSplitVertical   // children stacked, split runs horizontally
)

// Node is one element of the layout tree: either a leaf referencing a
// pane, or an interior split with weighted children.
type Node struct {
	Kind Kind

	// Geometry, recomputed top-down by Resize; offsets are relative to
	// the window's origin.
	X, Y, Sx, Sy int

	Pane *pane.Pane // set iff Kind == KindLeaf

	Children []*Node
	Weights  []int // parallel to Children; relative size along the split axis

	Hidden bool // true if Resize couldn't fit this leaf (spec.md §4.5)
}

// NewLeaf wraps p in a single-leaf tree occupying the given size.
func NewLeaf(p *pane.Pane, sx, sy int) *Node {
	return &Node{Kind: KindLeaf, Pane: p, Sx: sx, Sy: sy}
}

// Split replaces the leaf n in place with a new interior node holding n
// and a freshly spawned sibling, splitting along the given axis with
// equal initial weights. Returns the new sibling leaf.
func (n *Node) Split(kind Kind, sibling *pane.Pane) *Node {
	orig := &Node{Kind: KindLeaf, Pane: n.Pane, Sx: n.Sx, Sy: n.Sy}
	newLeaf := &Node{Kind: KindLeaf, Pane: sibling}

	n.Pane = nil
	n.Kind = kind
	n.Children = []*Node{orig, newLeaf}
	n.Weights = []int{1, 1}
	n.Resize(n.X, n.Y, n.Sx, n.Sy)
	return newLeaf
}

// Leaves returns every non-hidden leaf in the tree, in left-to-right /
// top-to-bottom document order.
func (n *Node) Leaves() []*Node {
	if n.Kind == KindLeaf {
		if n.Hidden {
			return nil
		}
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Resize recomputes this node's geometry and, recursively, its
// children's, distributing size proportionally to each child's weight
// (spec.md §4.5 resize protocol step 2). A child that would be smaller
// than paneMinimum along the split axis is hidden instead, and the
// leftover is redistributed to the first non-hidden sibling exactly as
// layout-manual.c's TAILQ_FIRST(&w->panes)->sy += ... does.
func (n *Node) Resize(x, y, sx, sy int) {
	n.X, n.Y, n.Sx, n.Sy = x, y, sx, sy
	if n.Kind == KindLeaf {
		if n.Pane != nil {
			n.Pane.Resize(sx, sy)
		}
		return
	}

	axisSize := sx
	if n.Kind == KindSplitVertical {
		axisSize = sy
	}

	sizes, hidden := distribute(axisSize, n.Weights)

	off := 0
	for i, c := range n.Children {
		c.Hidden = hidden[i]
		if n.Kind == KindSplitHorizontal {
			c.Resize(x+off, y, sizes[i], sy)
		} else {
			c.Resize(x, y+off, sx, sizes[i])
		}
		off += sizes[i]
		if i < len(n.Children)-1 {
			off++ // one cell reserved for the divider/border
		}
	}
}

// distribute splits total cells among weighted shares, enforcing
// paneMinimum and hiding any child that doesn't fit; the first
// non-hidden child absorbs integer-division remainder.
func distribute(total int, weights []int) (sizes []int, hidden []bool) {
	n := len(weights)
	sizes = make([]int, n)
	hidden = make([]bool, n)

	dividers := n - 1
	usable := total - dividers

	if usable < n*paneMinimum {
		// Every visible child after the first also costs one divider;
		// hidden children get no divider.
		canFit := (total + 1) / (paneMinimum + 1)
		if canFit < 1 {
			canFit = 1
		}
		usable = total - (canFit - 1)
		if usable < 0 {
			usable = 0
		}
		for i := range sizes {
			if i < canFit {
				sizes[i] = paneMinimum
			} else {
				hidden[i] = true
			}
		}
		if canFit > 0 {
			sizes[0] += usable - canFit*paneMinimum
		}
		return sizes, hidden
	}

	weightSum := 0
	for _, w := range weights {
		weightSum += w
	}
	if weightSum == 0 {
		weightSum = n
	}

	assigned := 0
	firstVisible := -1
	for i, w := range weights {
		share := usable * w / weightSum
		if share < paneMinimum {
			share = paneMinimum
		}
		sizes[i] = share
		assigned += share
		if firstVisible < 0 {
			firstVisible = i
		}
	}
	if rem := usable - assigned; rem != 0 && firstVisible >= 0 {
		sizes[firstVisible] += rem
	}
	return sizes, hidden
}

// SetWeight adjusts the relative weight of child i within a split node,
// used by a local drag-the-boundary resize (spec.md §4.5 "moving a split
// boundary is a local edit of two sibling weights").
func (n *Node) SetWeight(i, weight int) {
	if i < 0 || i >= len(n.Weights) || weight < 1 {
		return
	}
	n.Weights[i] = weight
}

// Zoom holds the stashed prior tree while a leaf is promoted to the
// root (spec.md §4.5 "Zoom").
type Zoom struct {
	prior *Node
}

// ZoomIn promotes target (a leaf reachable from root) to fill the whole
// window, stashing root's previous structure for ZoomOut.
func ZoomIn(root *Node, target *Node) (*Node, *Zoom) {
	z := &Zoom{prior: cloneShallow(root)}
	promoted := &Node{Kind: KindLeaf, Pane: target.Pane}
	promoted.Resize(root.X, root.Y, root.Sx, root.Sy)
	return promoted, z
}

// ZoomOut restores the tree stashed by ZoomIn, re-running Resize so
// geometry reflects any size changes that happened while zoomed.
func ZoomOut(z *Zoom, sx, sy int) *Node {
	root := z.prior
	root.Resize(root.X, root.Y, sx, sy)
	return root
}

func cloneShallow(n *Node) *Node {
	cp := *n
	return &cp
}

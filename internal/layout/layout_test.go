package layout

import "testing"

func leaf() *Node { return &Node{Kind: KindLeaf} }

func TestEvenSplitDistributesWithDividers(t *testing.T) {
	root := &Node{Kind: KindSplitHorizontal, Children: []*Node{leaf(), leaf()}, Weights: []int{1, 1}}
	root.Resize(0, 0, 21, 10)

	if root.Children[0].Sx+root.Children[1].Sx != 20 {
		t.Fatalf("expected 1 column reserved for divider, got sizes %d+%d over width 21",
			root.Children[0].Sx, root.Children[1].Sx)
	}
	if root.Children[1].X <= root.Children[0].X {
		t.Fatalf("second child should be offset right of the first")
	}
}

func TestUnevenWeights(t *testing.T) {
	root := &Node{Kind: KindSplitHorizontal, Children: []*Node{leaf(), leaf()}, Weights: []int{2, 1}}
	root.Resize(0, 0, 31, 10)
	if root.Children[0].Sx <= root.Children[1].Sx {
		t.Fatalf("2:1 weighted child should be larger: got %d vs %d",
			root.Children[0].Sx, root.Children[1].Sx)
	}
}

func TestHidesChildrenBelowMinimum(t *testing.T) {
	children := make([]*Node, 5)
	weights := make([]int, 5)
	for i := range children {
		children[i] = leaf()
		weights[i] = 1
	}
	root := &Node{Kind: KindSplitHorizontal, Children: children, Weights: weights}
	root.Resize(0, 0, 3, 10) // only room for ~2 panes at paneMinimum=1 plus dividers

	visible := 0
	for _, c := range children {
		if !c.Hidden {
			visible++
		}
	}
	if visible == 0 || visible == len(children) {
		t.Fatalf("expected some but not all children hidden, got %d/%d visible", visible, len(children))
	}
}

func TestSplitReplacesLeafInPlace(t *testing.T) {
	root := leaf()
	root.Resize(0, 0, 10, 10)
	sibling := root.Split(KindSplitVertical, nil)
	if root.Kind != KindSplitVertical {
		t.Fatalf("root should have become a split node")
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children after split")
	}
	if root.Children[1] != sibling {
		t.Fatalf("returned sibling should be the second child")
	}
}

func TestLeavesSkipsHidden(t *testing.T) {
	a, b := leaf(), leaf()
	b.Hidden = true
	root := &Node{Kind: KindSplitHorizontal, Children: []*Node{a, b}, Weights: []int{1, 1}}
	got := root.Leaves()
	if len(got) != 1 || got[0] != a {
		t.Fatalf("expected only non-hidden leaf, got %d leaves", len(got))
	}
}

func TestCeilSqrtForTiledGrid(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 2, 4: 2, 5: 3, 9: 3, 10: 4}
	for n, want := range cases {
		if got := ceilSqrt(n); got != want {
			t.Fatalf("ceilSqrt(%d) = %d, want %d", n, got, want)
		}
	}
}

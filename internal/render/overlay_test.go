package render

import (
	"strings"
	"testing"

	"github.com/tmux/tmux-sub006/internal/layout"
)

func TestPaneNumbersSkipsHiddenLeaves(t *testing.T) {
	root := layout.NewLeaf(nil, 40, 12)
	sibling := root.Split(layout.KindSplitHorizontal, nil)
	sibling.Hidden = true

	nums := PaneNumbers(root)
	if len(nums) != 1 {
		t.Fatalf("expected 1 visible pane number, got %d", len(nums))
	}
	if nums[0].Index != 0 {
		t.Fatalf("expected the surviving leaf to keep index 0, got %d", nums[0].Index)
	}
}

func TestPaneNumberOverlayCentersLabel(t *testing.T) {
	nums := []PaneNumber{{Index: 3, X: 0, Y: 0, Sx: 10, Sy: 4}}
	out := string(PaneNumberOverlay(nums))
	if !strings.Contains(out, "3") {
		t.Fatalf("expected overlay output to contain the pane index, got %q", out)
	}
	if !strings.HasPrefix(out, "\033[3;6H") {
		t.Fatalf("expected cursor positioned at the pane's vertical/horizontal center, got %q", out)
	}
}

func TestPromptOverlayDrawsLeaderAndPlantsCursor(t *testing.T) {
	out := string(PromptOverlay("kill-pane", 4, 24))
	if !strings.Contains(out, "\033[24;1H\033[K:kill-pane") {
		t.Fatalf("expected overlay to clear and draw the prompt line on the last row, got %q", out)
	}
	if !strings.HasSuffix(out, "\033[24;6H") {
		t.Fatalf("expected cursor planted at column 6 (leader + 4 chars), got %q", out)
	}
}

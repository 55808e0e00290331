package pane

import "testing"

func TestMergeEnvSessionWinsOverInternal(t *testing.T) {
	env := map[string]string{"TMUX_PANE": "custom"}
	out := mergeEnv(env, map[string]string{"TMUX_PANE": "%1", "TMUX": "x"})
	found := false
	for _, e := range out {
		if e == "TMUX_PANE=custom" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session env to win over internal var, got %v", out)
	}
}

func TestMergeEnvInternalAppliesWhenAbsent(t *testing.T) {
	out := mergeEnv(nil, map[string]string{"TMUX": "server,1,0"})
	found := false
	for _, e := range out {
		if e == "TMUX=server,1,0" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected internal var applied, got %v", out)
	}
}

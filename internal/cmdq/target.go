package cmdq

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmux/tmux-sub006/internal/pane"
	"github.com/tmux/tmux-sub006/internal/session"
)

// SessionLookup finds a session by name, the source the resolver
// consults for both "-t sessionname" and "-t =name" forms (spec.md
// §4.7). The server's implementation matches exact names only; no
// prefix matching is done for either form.
type SessionLookup func(name string) *session.Session

// Resolve implements the abbreviated target-resolution rules of
// spec.md §4.7 against raw, the item's -t/-s/-c argument, relative to
// the invoking client's currently attached session. An empty raw string
// resolves to the client's current session/window/active pane, unless a
// mouse event with a pane is supplied, in which case that pane is the
// target; the mouse event is consulted only when raw is empty.
func Resolve(raw string, client *session.Client, lookup SessionLookup, mouse *MouseEvent) (Target, error) {
	cur := client.Session()
	if raw == "" {
		if mouse != nil && mouse.Pane != nil {
			return resolveFromFindPane(cur, client, mouse.Pane)
		}
		if cur == nil {
			return Target{}, fmt.Errorf("no current session")
		}
		w := cur.ActiveWindow()
		return Target{Client: client, Session: cur, Window: w, Pane: activeFindPane(w)}, nil
	}

	sessPart, winPart, havePane := splitTarget(raw)

	sess := cur
	switch {
	case sessPart == "":
		// no session component: stay on current session
	case strings.HasPrefix(sessPart, "="):
		name := sessPart[1:]
		sess = lookup(name)
		if sess == nil {
			return Target{}, fmt.Errorf("session not found: %s", name)
		}
	default:
		sess = lookup(sessPart)
		if sess == nil {
			return Target{}, fmt.Errorf("session not found: %s", sessPart)
		}
	}
	if sess == nil {
		return Target{}, fmt.Errorf("no current session")
	}

	if winPart == "" {
		w := sess.ActiveWindow()
		return Target{Client: client, Session: sess, Window: w, Pane: activeFindPane(w)}, nil
	}

	winStr := winPart
	paneStr := ""
	if havePane {
		idx := strings.IndexByte(winPart, '.')
		winStr = winPart[:idx]
		paneStr = winPart[idx+1:]
	}

	w, err := resolveWindow(sess, winStr)
	if err != nil {
		return Target{}, err
	}

	if paneStr == "" {
		return Target{Client: client, Session: sess, Window: w, Pane: activeFindPane(w)}, nil
	}
	fp, err := resolvePane(w, paneStr)
	if err != nil {
		return Target{}, err
	}
	return Target{Client: client, Session: sess, Window: w, Pane: fp}, nil
}

// splitTarget breaks "session:window.pane" into its up-to-three
// components. havePane reports whether a '.' pane suffix is present.
func splitTarget(raw string) (sessPart, winPart string, havePane bool) {
	colon := strings.IndexByte(raw, ':')
	if colon < 0 {
		return raw, "", false
	}
	sessPart = raw[:colon]
	winPart = raw[colon+1:]
	havePane = strings.Contains(winPart, ".")
	return sessPart, winPart, havePane
}

// resolveWindow resolves a ":N" window-index component, including
// negative end-relative indices (spec.md §4.7 "negative indices count
// from the end").
func resolveWindow(sess *session.Session, winStr string) (*session.Window, error) {
	n, err := strconv.Atoi(winStr)
	if err != nil {
		for _, w := range sess.Windows() {
			if w.Name == winStr {
				return w, nil
			}
		}
		return nil, fmt.Errorf("window not found: %s", winStr)
	}
	windows := sess.Windows()
	if n < 0 {
		idx := len(windows) + n
		if idx < 0 || idx >= len(windows) {
			return nil, fmt.Errorf("window index out of range: %d", n)
		}
		return windows[idx], nil
	}
	w := sess.WindowAt(session.WindowIndex(n))
	if w == nil {
		return nil, fmt.Errorf("no window at index %d", n)
	}
	return w, nil
}

// resolvePane resolves a ".M" pane-index component within a window,
// including negative end-relative indices.
func resolvePane(w *session.Window, paneStr string) (*findPane, error) {
	panes := w.Panes()
	n, err := strconv.Atoi(paneStr)
	if err != nil {
		return nil, fmt.Errorf("invalid pane index: %s", paneStr)
	}
	if n < 0 {
		n = len(panes) + n
	}
	if n < 0 || n >= len(panes) {
		return nil, fmt.Errorf("pane index out of range: %s", paneStr)
	}
	return &findPane{windowIdx: w.Index, paneIdx: n}, nil
}

func activeFindPane(w *session.Window) *findPane {
	if w == nil {
		return nil
	}
	for i, p := range w.Panes() {
		if p == w.ActivePane {
			return &findPane{windowIdx: w.Index, paneIdx: i}
		}
	}
	return nil
}

func resolveFromFindPane(sess *session.Session, client *session.Client, fp *findPane) (Target, error) {
	if sess == nil {
		return Target{}, fmt.Errorf("no current session")
	}
	w := sess.WindowAt(fp.windowIdx)
	if w == nil {
		return Target{}, fmt.Errorf("mouse target window gone")
	}
	return Target{Client: client, Session: sess, Window: w, Pane: fp}, nil
}

// Pane re-validates a resolved findPane against its window's live pane
// list just before dispatch (spec.md §4.4's at-most-once destruction
// guarantee: an item never acts on a pane that has since died).
func Pane(w *session.Window, fp *findPane) *pane.Pane {
	if fp == nil || w == nil {
		return nil
	}
	panes := w.Panes()
	if fp.paneIdx < 0 || fp.paneIdx >= len(panes) {
		return nil
	}
	return panes[fp.paneIdx]
}

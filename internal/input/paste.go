package input

// WrapPaste wraps data in bracketed-paste markers if enabled is set
// (screen.Screen.BracketedPasteMode, mode 2004), per spec.md §4.9's
// "Bracketed paste wraps pasted content in ESC [ 200 ~ ... ESC [ 201 ~
// when the pane enables it." When disabled, data passes through
// unchanged: an un-bracketing pane expects paste to arrive as though it
// had been typed.
func WrapPaste(data []byte, enabled bool) []byte {
	if !enabled {
		return data
	}
	out := make([]byte, 0, len(data)+12)
	out = append(out, "\033[200~"...)
	out = append(out, data...)
	out = append(out, "\033[201~"...)
	return out
}

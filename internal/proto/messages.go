package proto

import "encoding/json"

// IdentifyPayload accompanies MsgIdentifyFlags..MsgIdentifyDone: the
// client's startup environment, sent once before MsgReady (spec.md
// §6.1 handshake), generalized from attach.go's single Cols/Rows pair
// into the full client-identification set tmux's handshake sends.
type IdentifyPayload struct {
	Flags   uint32            `json:"flags"`
	Term    string            `json:"term"`
	Cols    int               `json:"cols"`
	Rows    int               `json:"rows"`
	CWD     string            `json:"cwd"`
	Environ map[string]string `json:"environ"`
	TTYName string            `json:"tty_name"`
	PID     int               `json:"pid"`
	UTF8    bool              `json:"utf8"`
}

// ResizePayload accompanies MsgResize, sent whenever the client's
// controlling terminal changes size (grounded on attach.go's
// ResizeControl JSON payload, generalized from a single PTY to the
// client's whole attached session).
type ResizePayload struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// CommandPayload accompanies MsgCommand: one command line to be parsed
// and appended to the server's command queue (spec.md §4.7).
type CommandPayload struct {
	Line string `json:"line"`
}

// ExitedPayload accompanies MsgExited, sent once by the server right
// before closing the connection.
type ExitedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// Encode marshals v as a frame payload.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode unmarshals a frame payload into v.
func Decode(payload []byte, v any) error {
	return json.Unmarshal(payload, v)
}

// Package vtparse implements a table-driven ANSI/VT100 terminal escape
// sequence parser following the state machine described by Paul Williams
// (vt500-series parser), the same design xterm's own state tables
// (VTparse.h/VTparse.hin) implement by hand as C switch statements. Here
// the states and transitions are data, not code: Parser.Advance walks one
// byte at a time through a table indexed by (state, byte).
package vtparse

// State names a node of the parser's state machine.
type State uint8

const (
	StateGround State = iota
	StateEscape
	StateEscapeIntermediate
	StateCsiEntry
	StateCsiParam
	StateCsiIntermediate
	StateCsiIgnore
	StateDcsEntry
	StateDcsParam
	StateDcsIntermediate
	StateDcsPassthrough
	StateDcsIgnore
	StateOscString
	StateSosPmApcString
	numStates
)

// Action names the side effect a transition performs before (or instead
// of) changing state.
type Action uint8

const (
	ActionNone Action = iota
	ActionIgnore
	ActionPrint
	ActionExecute
	ActionClear
	ActionCollect
	ActionParam
	ActionEscDispatch
	ActionCsiDispatch
	ActionHook
	ActionPut
	ActionUnhook
	ActionOscStart
	ActionOscPut
	ActionOscEnd
)

// transition is one (action, next-state) pair.
type transition struct {
	action Action
	next   State
}

// table maps a byte (0x00-0x9f) to a transition for one state. Bytes
// 0xa0 and above are never looked up here: in GROUND, Parser.Advance
// takes 0x80-0xbf as the continuation of a pending UTF-8 sequence and
// 0xc0 and above as a lead byte (0xf8-0xff are printed as-is); any other
// byte above 0x9f is dropped.
type table [160]transition

// anyState holds transitions that apply regardless of current state,
// overriding whatever the per-state table says: C0 controls in the
// 0x18/0x1a/0x80-0x9f "cancel" class, and the universal ESC/CAN/SUB
// handling described by the vt500 machine.
var anyState = map[byte]transition{
	0x18: {ActionExecute, StateGround},
	0x1a: {ActionExecute, StateGround},
	0x1b: {ActionNone, StateEscape}, // ESC always restarts escape sequence
}

func init() {
	for b := byte(0x80); b <= 0x8f; b++ {
		anyState[b] = transition{ActionExecute, StateGround}
	}
	anyState[0x91] = transition{ActionExecute, StateGround}
	anyState[0x92] = transition{ActionExecute, StateGround}
	anyState[0x93] = transition{ActionExecute, StateGround}
	anyState[0x94] = transition{ActionExecute, StateGround}
	anyState[0x95] = transition{ActionExecute, StateGround}
	anyState[0x96] = transition{ActionExecute, StateGround}
	anyState[0x97] = transition{ActionExecute, StateGround}
	anyState[0x99] = transition{ActionExecute, StateGround}
	anyState[0x9a] = transition{ActionExecute, StateGround}
	anyState[0x9c] = transition{ActionNone, StateGround} // ST: end of string
	anyState[0x90] = transition{ActionClear, StateDcsEntry}
	anyState[0x98] = transition{ActionNone, StateSosPmApcString}
	anyState[0x9e] = transition{ActionNone, StateSosPmApcString}
	anyState[0x9f] = transition{ActionNone, StateSosPmApcString}
	anyState[0x9d] = transition{ActionOscStart, StateOscString}
	anyState[0x9b] = transition{ActionClear, StateCsiEntry}
}

var tables [numStates]table

func set(t *table, lo, hi byte, a Action, s State) {
	for b := int(lo); b <= int(hi); b++ {
		t[b] = transition{a, s}
	}
}

func init() {
	// GROUND: print everything printable, execute C0 controls.
	g := &tables[StateGround]
	set(g, 0x00, 0x17, ActionExecute, StateGround)
	set(g, 0x19, 0x19, ActionExecute, StateGround)
	set(g, 0x1c, 0x1f, ActionExecute, StateGround)
	set(g, 0x20, 0x7f, ActionPrint, StateGround)

	// ESCAPE
	e := &tables[StateEscape]
	set(e, 0x00, 0x17, ActionExecute, StateEscape)
	set(e, 0x19, 0x19, ActionExecute, StateEscape)
	set(e, 0x1c, 0x1f, ActionExecute, StateEscape)
	set(e, 0x20, 0x2f, ActionCollect, StateEscapeIntermediate)
	set(e, 0x30, 0x4f, ActionEscDispatch, StateGround)
	set(e, 0x51, 0x57, ActionEscDispatch, StateGround)
	e[0x58] = transition{ActionNone, StateSosPmApcString}
	set(e, 0x59, 0x5a, ActionEscDispatch, StateGround)
	e[0x5b] = transition{ActionClear, StateCsiEntry}
	e[0x5c] = transition{ActionEscDispatch, StateGround}
	e[0x5d] = transition{ActionOscStart, StateOscString}
	e[0x5e] = transition{ActionNone, StateSosPmApcString}
	e[0x5f] = transition{ActionNone, StateSosPmApcString}
	set(e, 0x60, 0x7e, ActionEscDispatch, StateGround)
	e[0x7f] = transition{ActionIgnore, StateEscape}
	e[0x50] = transition{ActionClear, StateDcsEntry}

	// ESCAPE_INTERMEDIATE
	ei := &tables[StateEscapeIntermediate]
	set(ei, 0x00, 0x17, ActionExecute, StateEscapeIntermediate)
	set(ei, 0x19, 0x19, ActionExecute, StateEscapeIntermediate)
	set(ei, 0x1c, 0x1f, ActionExecute, StateEscapeIntermediate)
	set(ei, 0x20, 0x2f, ActionCollect, StateEscapeIntermediate)
	set(ei, 0x30, 0x7e, ActionEscDispatch, StateGround)
	ei[0x7f] = transition{ActionIgnore, StateEscapeIntermediate}

	// CSI_ENTRY
	ce := &tables[StateCsiEntry]
	set(ce, 0x00, 0x17, ActionExecute, StateCsiEntry)
	set(ce, 0x19, 0x19, ActionExecute, StateCsiEntry)
	set(ce, 0x1c, 0x1f, ActionExecute, StateCsiEntry)
	ce[0x7f] = transition{ActionIgnore, StateCsiEntry}
	set(ce, 0x20, 0x2f, ActionCollect, StateCsiIntermediate)
	ce[0x3a] = transition{ActionParam, StateCsiParam} // colon subparam separator
	set(ce, 0x30, 0x39, ActionParam, StateCsiParam)
	ce[0x3b] = transition{ActionParam, StateCsiParam}
	set(ce, 0x3c, 0x3f, ActionCollect, StateCsiParam)
	set(ce, 0x40, 0x7e, ActionCsiDispatch, StateGround)

	// CSI_PARAM
	cp := &tables[StateCsiParam]
	set(cp, 0x00, 0x17, ActionExecute, StateCsiParam)
	set(cp, 0x19, 0x19, ActionExecute, StateCsiParam)
	set(cp, 0x1c, 0x1f, ActionExecute, StateCsiParam)
	set(cp, 0x30, 0x39, ActionParam, StateCsiParam)
	cp[0x3a] = transition{ActionParam, StateCsiParam}
	cp[0x3b] = transition{ActionParam, StateCsiParam}
	set(cp, 0x3c, 0x3f, ActionNone, StateCsiIgnore)
	cp[0x7f] = transition{ActionIgnore, StateCsiParam}
	set(cp, 0x20, 0x2f, ActionCollect, StateCsiIntermediate)
	set(cp, 0x40, 0x7e, ActionCsiDispatch, StateGround)

	// CSI_INTERMEDIATE
	ci := &tables[StateCsiIntermediate]
	set(ci, 0x00, 0x17, ActionExecute, StateCsiIntermediate)
	set(ci, 0x19, 0x19, ActionExecute, StateCsiIntermediate)
	set(ci, 0x1c, 0x1f, ActionExecute, StateCsiIntermediate)
	set(ci, 0x20, 0x2f, ActionCollect, StateCsiIntermediate)
	ci[0x7f] = transition{ActionIgnore, StateCsiIntermediate}
	set(ci, 0x30, 0x3f, ActionNone, StateCsiIgnore)
	set(ci, 0x40, 0x7e, ActionCsiDispatch, StateGround)

	// CSI_IGNORE: swallow until final byte, dispatch nothing.
	cig := &tables[StateCsiIgnore]
	set(cig, 0x00, 0x17, ActionExecute, StateCsiIgnore)
	set(cig, 0x19, 0x19, ActionExecute, StateCsiIgnore)
	set(cig, 0x1c, 0x1f, ActionExecute, StateCsiIgnore)
	set(cig, 0x20, 0x3f, ActionIgnore, StateCsiIgnore)
	cig[0x7f] = transition{ActionIgnore, StateCsiIgnore}
	set(cig, 0x40, 0x7e, ActionNone, StateGround)

	// DCS_ENTRY
	de := &tables[StateDcsEntry]
	set(de, 0x00, 0x17, ActionIgnore, StateDcsEntry)
	set(de, 0x19, 0x19, ActionIgnore, StateDcsEntry)
	set(de, 0x1c, 0x1f, ActionIgnore, StateDcsEntry)
	de[0x7f] = transition{ActionIgnore, StateDcsEntry}
	set(de, 0x20, 0x2f, ActionCollect, StateDcsIntermediate)
	de[0x3a] = transition{ActionNone, StateDcsIgnore}
	set(de, 0x30, 0x39, ActionParam, StateDcsParam)
	de[0x3b] = transition{ActionParam, StateDcsParam}
	set(de, 0x3c, 0x3f, ActionCollect, StateDcsParam)
	set(de, 0x40, 0x7e, ActionHook, StateDcsPassthrough)

	// DCS_PARAM
	dp := &tables[StateDcsParam]
	set(dp, 0x00, 0x17, ActionIgnore, StateDcsParam)
	set(dp, 0x19, 0x19, ActionIgnore, StateDcsParam)
	set(dp, 0x1c, 0x1f, ActionIgnore, StateDcsParam)
	set(dp, 0x30, 0x39, ActionParam, StateDcsParam)
	dp[0x3a] = transition{ActionNone, StateDcsIgnore}
	dp[0x3b] = transition{ActionParam, StateDcsParam}
	set(dp, 0x3c, 0x3f, ActionNone, StateDcsIgnore)
	dp[0x7f] = transition{ActionIgnore, StateDcsParam}
	set(dp, 0x20, 0x2f, ActionCollect, StateDcsIntermediate)
	set(dp, 0x40, 0x7e, ActionHook, StateDcsPassthrough)

	// DCS_INTERMEDIATE
	di := &tables[StateDcsIntermediate]
	set(di, 0x00, 0x17, ActionIgnore, StateDcsIntermediate)
	set(di, 0x19, 0x19, ActionIgnore, StateDcsIntermediate)
	set(di, 0x1c, 0x1f, ActionIgnore, StateDcsIntermediate)
	set(di, 0x20, 0x2f, ActionCollect, StateDcsIntermediate)
	di[0x7f] = transition{ActionIgnore, StateDcsIntermediate}
	set(di, 0x30, 0x3f, ActionNone, StateDcsIgnore)
	set(di, 0x40, 0x7e, ActionHook, StateDcsPassthrough)

	// DCS_PASSTHROUGH: forward bytes verbatim to the hook until ST/CAN/SUB.
	dpt := &tables[StateDcsPassthrough]
	set(dpt, 0x00, 0x17, ActionPut, StateDcsPassthrough)
	set(dpt, 0x19, 0x19, ActionPut, StateDcsPassthrough)
	set(dpt, 0x1c, 0x1f, ActionPut, StateDcsPassthrough)
	set(dpt, 0x20, 0x7e, ActionPut, StateDcsPassthrough)
	dpt[0x7f] = transition{ActionIgnore, StateDcsPassthrough}

	// DCS_IGNORE
	dig := &tables[StateDcsIgnore]
	set(dig, 0x00, 0x17, ActionIgnore, StateDcsIgnore)
	set(dig, 0x19, 0x19, ActionIgnore, StateDcsIgnore)
	set(dig, 0x1c, 0x1f, ActionIgnore, StateDcsIgnore)
	set(dig, 0x20, 0x7f, ActionIgnore, StateDcsIgnore)

	// OSC_STRING: accumulate until ST/BEL.
	os := &tables[StateOscString]
	set(os, 0x00, 0x17, ActionIgnore, StateOscString)
	os[0x1b] = transition{ActionNone, StateEscape} // ESC \\ terminator handled specially in parser
	set(os, 0x19, 0x19, ActionIgnore, StateOscString)
	set(os, 0x1c, 0x1f, ActionIgnore, StateOscString)
	os[0x07] = transition{ActionOscEnd, StateGround} // BEL terminator
	set(os, 0x20, 0x7f, ActionOscPut, StateOscString)

	// SOS_PM_APC_STRING: ignored entirely, just swallow until terminator.
	sp := &tables[StateSosPmApcString]
	set(sp, 0x00, 0x17, ActionIgnore, StateSosPmApcString)
	set(sp, 0x19, 0x19, ActionIgnore, StateSosPmApcString)
	set(sp, 0x1c, 0x1f, ActionIgnore, StateSosPmApcString)
	set(sp, 0x20, 0x7f, ActionIgnore, StateSosPmApcString)
}

// Package segment implements the state machine behind a segmented code
// input: a fixed-length numeric code (an MFA token, typically 6 digits)
// entered through one single-character cell per position.
//
// The package is host-agnostic. It knows nothing about terminals or
// rendering; a host supplies the current code and a change callback on
// every call, and a rendering layer supplies one FocusHandle per cell.
//
// # Controlled Value
//
// The code is owned by the host. The Controller never stores a copy of it:
// every operation derives the per-cell characters from Props.Value, applies
// the edit to that working copy, and hands the new code back through
// Props.OnChange. The host is expected to pass the emitted value back in on
// the next call.
//
//	ctrl, err := segment.NewController(handles)
//	if err != nil {
//	    return err
//	}
//
//	props := segment.Props{
//	    Value:    code,
//	    OnChange: func(v string) { code = v },
//	}
//	ctrl.HandleCellInput(props, 0, "4")
//
// # Focus
//
// Exactly one cell is focused at a time (none before Initialize or after
// Blur). The controller moves focus imperatively through the handles:
//
//   - Digit entry: focus moves to the next cell
//   - Backspace on an empty cell: the previous cell is cleared and focused
//   - Arrow keys: focus moves to the adjacent cell, if any
//   - Paste: focus lands after the pasted run (last cell at most)
//
// # Invalid Input
//
// Non-digit keystrokes and multi-character input are dropped without a
// state change, an error, or a log line. Error display (Props.Error) is
// entirely host-supplied and reflects a verification failure elsewhere.
//
// # Thread Safety
//
// A Controller is not safe for concurrent use. It is designed to be driven
// from a single UI event loop, one event at a time.
package segment

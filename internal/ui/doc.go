// Package ui provides the terminal UI building blocks for the mfa-entry CLI.
//
// This package uses Bubble Tea and Lipgloss. It has two halves:
//
//   - CodeInput: the interactive segmented code input. It renders one cell
//     per digit, owns a focus handle per cell, and translates key, paste and
//     mouse messages into segment.Controller operations.
//   - Run-once output: Header, Result and Printer render the banner and the
//     success/failure boxes that commands print before and after a prompt.
//
// # CodeInput
//
// CodeInput is a controlled component. It never decides the code on its own;
// the host sets it with SetValue and reads replacements with Changed after
// each Update:
//
//	var cmd tea.Cmd
//	m.input, cmd = m.input.Update(msg)
//	if code, ok := m.input.Changed(); ok {
//	    m.code = code
//	    m.input.SetValue(code)
//	}
//
// Both steps happen inside the host's own Update, so every event is fully
// applied before the next one is delivered.
//
// # Key Mapping
//
//   - 0-9: write the digit into the focused cell
//   - backspace: clear the focused cell, or the previous one if empty
//   - delete: clear the focused cell
//   - left / right: move between cells
//   - home / end: jump to the first / last cell
//   - tab / shift+tab: next / previous cell; tab on the last cell leaves
//   - ctrl+v, bracketed paste: replace the code with the pasted digits
//   - mouse click on a cell: focus it and select its digit
//
// # Logging Integration
//
// Like the rest of the CLI, logging is controlled by MFAENTRY_LOG_LEVEL and
// is silent by default, so nothing interferes with the rendered output.
// Code digits are never logged.
package ui

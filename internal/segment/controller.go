package segment

import (
	"errors"
	"fmt"
)

// DefaultLength is the code length used for TOTP-style MFA codes.
const DefaultLength = 6

// Direction is an arrow-key navigation direction.
type Direction int

const (
	Left Direction = iota
	Right
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// FocusHandle is the rendering layer's handle on one cell.
// The controller owns the ordered set of handles and is the only caller.
type FocusHandle interface {
	// Focus gives the cell input focus.
	Focus()
	// Blur removes input focus from the cell.
	Blur()
	// SelectAll selects the cell's content so the next keystroke replaces it.
	SelectAll()
}

// Props is what the host supplies on every call.
type Props struct {
	Value     string       // Current code, owned by the host
	OnChange  func(string) // Receives every replacement code
	Error     string       // Verification failure text; puts every cell in the error state
	Disabled  bool         // When true every operation is a no-op
	AutoFocus bool         // Focus the first cell on Initialize
}

// Controller translates per-cell input events into code replacements and
// focus moves. See the package documentation for the rules.
type Controller struct {
	handles []FocusHandle
	focused int // -1 when no cell has focus
}

// NewController creates a controller for len(handles) cells.
func NewController(handles []FocusHandle) (*Controller, error) {
	if len(handles) == 0 {
		return nil, errors.New("segment: at least one cell handle is required")
	}
	for i, h := range handles {
		if h == nil {
			return nil, fmt.Errorf("segment: cell handle %d is nil", i)
		}
	}

	hs := make([]FocusHandle, len(handles))
	copy(hs, handles)

	return &Controller{
		handles: hs,
		focused: -1,
	}, nil
}

// Length returns the number of cells (the maximum code length).
func (c *Controller) Length() int {
	return len(c.handles)
}

// Focused returns the index of the focused cell, or -1 if none.
func (c *Controller) Focused() int {
	return c.focused
}

// Cells derives the display state of every cell from props.
func (c *Controller) Cells(p Props) []Cell {
	return DeriveCells(p.Value, c.Length(), c.focused, p.Error)
}

// Initialize focuses the first cell when AutoFocus is set. Disabled only
// blocks input events, so a disabled input still takes initial focus.
func (c *Controller) Initialize(p Props) {
	if !p.AutoFocus {
		return
	}
	c.focus(0)
}

// HandleCellInput writes raw into the cell at index.
//
// raw must be "" (clear the cell) or a single decimal digit; anything else is
// dropped. A non-empty digit moves focus to the next cell unless index is the
// last cell.
func (c *Controller) HandleCellInput(p Props, index int, raw string) {
	if p.Disabled || !c.inRange(index) {
		return
	}
	if len(raw) > 1 || (raw != "" && !isDigit(raw[0])) {
		return
	}

	chars := splitCode(p.Value, c.Length())
	chars[index] = raw
	c.emit(p, joinCells(chars))

	if raw != "" && index < c.Length()-1 {
		c.focus(index + 1)
	}
}

// HandleBackspace applies backspace to the cell at index.
//
// On an empty cell past the first, the previous cell is cleared and focused.
// On a filled cell nothing happens here and native reports true: deleting the
// cell's own character is left to the host's native input behavior.
func (c *Controller) HandleBackspace(p Props, index int) (native bool) {
	if p.Disabled || !c.inRange(index) {
		return false
	}

	chars := splitCode(p.Value, c.Length())
	if chars[index] != "" {
		return true
	}
	if index == 0 {
		return false
	}

	chars[index-1] = ""
	c.emit(p, joinCells(chars))
	c.focus(index - 1)
	return false
}

// HandleArrow moves focus one cell in direction. Moving past either end is a
// no-op.
func (c *Controller) HandleArrow(p Props, index int, dir Direction) {
	if p.Disabled || !c.inRange(index) {
		return
	}

	target := index
	switch dir {
	case Left:
		target = index - 1
	case Right:
		target = index + 1
	}
	if !c.inRange(target) || target == index {
		return
	}
	c.focus(target)
}

// HandlePaste replaces the whole code with the digits found in text,
// regardless of which cell received the paste. Text with no digits clears
// the code and focuses the first cell.
func (c *Controller) HandlePaste(p Props, index int, text string) {
	if p.Disabled || !c.inRange(index) {
		return
	}

	code := Distribute(text, c.Length())
	c.emit(p, code)
	c.focus(min(len(code), c.Length()-1))
}

// HandleCellFocus focuses the cell at index and selects its content, so the
// next keystroke overwrites it.
func (c *Controller) HandleCellFocus(p Props, index int) {
	if p.Disabled || !c.inRange(index) {
		return
	}
	c.focus(index)
	c.handles[index].SelectAll()
}

// Blur records an external focus loss. No cell is focused afterwards and the
// controller does not try to recover focus.
func (c *Controller) Blur() {
	if c.focused >= 0 {
		c.handles[c.focused].Blur()
	}
	c.focused = -1
}

func (c *Controller) inRange(index int) bool {
	return index >= 0 && index < len(c.handles)
}

func (c *Controller) focus(index int) {
	if c.focused == index {
		return
	}
	if c.focused >= 0 {
		c.handles[c.focused].Blur()
	}
	c.handles[index].Focus()
	c.focused = index
}

func (c *Controller) emit(p Props, code string) {
	if p.OnChange != nil {
		p.OnChange(code)
	}
}

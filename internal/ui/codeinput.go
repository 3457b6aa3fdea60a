package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/segment"
)

// clipboardMsg carries clipboard text read in response to ctrl+v
type clipboardMsg struct {
	index int
	text  string
}

// CodeInput is a Bubble Tea component rendering a segmented numeric code
// input. See the package documentation for the controlled-value contract.
type CodeInput struct {
	ctrl  *segment.Controller
	cells []*cellHandle

	value     string
	errMsg    string
	disabled  bool
	autoFocus bool

	// changed holds the code emitted during the last Update, if any
	changed *string

	// OriginX and OriginY locate the top-left corner of the first cell on
	// screen. Mouse clicks are mapped to cells relative to this point.
	OriginX int
	OriginY int

	// ShowLabel renders the focused cell's accessible label under the cells
	ShowLabel bool

	// ReadClipboard returns the system clipboard text for ctrl+v
	ReadClipboard func() (string, error)
}

// NewCodeInput creates a code input with length cells
func NewCodeInput(length int) (CodeInput, error) {
	cells := make([]*cellHandle, length)
	handles := make([]segment.FocusHandle, length)
	for i := range cells {
		cells[i] = &cellHandle{}
		handles[i] = cells[i]
	}

	ctrl, err := segment.NewController(handles)
	if err != nil {
		return CodeInput{}, err
	}

	return CodeInput{
		ctrl:          ctrl,
		cells:         cells,
		autoFocus:     true,
		ShowLabel:     true,
		ReadClipboard: clipboard.ReadAll,
	}, nil
}

// props builds the controller props from the current host-supplied state.
// Emissions are captured into m.changed.
func (m *CodeInput) props() segment.Props {
	return segment.Props{
		Value:     m.value,
		OnChange:  func(v string) { m.changed = &v },
		Error:     m.errMsg,
		Disabled:  m.disabled,
		AutoFocus: m.autoFocus,
	}
}

// Init focuses the first cell when auto-focus is enabled
func (m CodeInput) Init() tea.Cmd {
	m.ctrl.Initialize(m.props())
	return nil
}

// Update handles key, paste and mouse messages
func (m CodeInput) Update(msg tea.Msg) (CodeInput, tea.Cmd) {
	m.changed = nil

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case clipboardMsg:
		m.ctrl.HandlePaste(m.props(), msg.index, msg.text)
	}

	if m.changed != nil {
		logging.LogCodeEvent("code_changed", len(*m.changed), m.ctrl.Focused())
	}

	return m, cmd
}

func (m *CodeInput) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.disabled {
		return nil
	}

	last := m.ctrl.Length() - 1
	i := m.ctrl.Focused()
	if i < 0 {
		// No cell has focus; only tabbing back in restores it
		switch msg.Type {
		case tea.KeyTab:
			m.ctrl.HandleCellFocus(m.props(), 0)
		case tea.KeyShiftTab:
			m.ctrl.HandleCellFocus(m.props(), last)
		}
		return nil
	}

	p := m.props()

	if msg.Paste {
		m.ctrl.HandlePaste(p, i, string(msg.Runes))
		return nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		// Terminals without bracketed paste deliver pasted text as one
		// multi-rune message
		if len(msg.Runes) > 1 {
			m.ctrl.HandlePaste(p, i, string(msg.Runes))
			return nil
		}
		m.cells[i].selected = false
		m.ctrl.HandleCellInput(p, i, string(msg.Runes))

	case tea.KeyBackspace:
		if m.ctrl.HandleBackspace(p, i) {
			m.ctrl.HandleCellInput(p, i, "")
		}

	case tea.KeyDelete:
		m.ctrl.HandleCellInput(p, i, "")

	case tea.KeyLeft:
		m.ctrl.HandleArrow(p, i, segment.Left)

	case tea.KeyRight:
		m.ctrl.HandleArrow(p, i, segment.Right)

	case tea.KeyHome:
		m.ctrl.HandleCellFocus(p, 0)

	case tea.KeyEnd:
		m.ctrl.HandleCellFocus(p, last)

	case tea.KeyTab:
		if i < last {
			m.ctrl.HandleCellFocus(p, i+1)
		} else {
			m.ctrl.Blur()
		}

	case tea.KeyShiftTab:
		if i > 0 {
			m.ctrl.HandleCellFocus(p, i-1)
		} else {
			m.ctrl.Blur()
		}

	case tea.KeyCtrlV:
		return m.readClipboard(i)
	}

	return nil
}

func (m *CodeInput) handleMouse(msg tea.MouseMsg) {
	if m.disabled || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	if i := m.CellAt(msg.X, msg.Y); i >= 0 {
		m.ctrl.HandleCellFocus(m.props(), i)
	}
}

func (m *CodeInput) readClipboard(index int) tea.Cmd {
	read := m.ReadClipboard
	if read == nil {
		return nil
	}
	return func() tea.Msg {
		text, err := read()
		if err != nil {
			// Unreadable clipboard leaves the code unchanged
			return nil
		}
		return clipboardMsg{index: index, text: text}
	}
}

// CellAt returns the index of the cell drawn at screen position (x, y), or
// -1 when the position is outside every cell.
func (m CodeInput) CellAt(x, y int) int {
	x -= m.OriginX
	y -= m.OriginY
	if x < 0 || y < 0 || y >= CellHeight {
		return -1
	}
	if x%CellStride >= CellStride-CellGap {
		return -1
	}
	i := x / CellStride
	if i >= m.ctrl.Length() {
		return -1
	}
	return i
}

// View renders the cells, the focused cell's label and the error message
func (m CodeInput) View() string {
	cells := m.ctrl.Cells(m.props())

	blocks := make([]string, 0, 2*len(cells))
	gap := strings.Repeat(" ", CellGap)
	for i, c := range cells {
		if i > 0 {
			blocks = append(blocks, gap)
		}
		blocks = append(blocks, CellStyle(m.cellState(i, c)).Render(m.cellText(c)))
	}

	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, blocks...)}

	if m.ShowLabel {
		if f := m.ctrl.Focused(); f >= 0 {
			lines = append(lines, CellLabelStyle.Render(cells[f].Label))
		} else {
			lines = append(lines, "")
		}
	}

	if m.errMsg != "" {
		lines = append(lines, ErrorMessageStyle.Render(FailureMarker+" "+m.errMsg))
	}

	return strings.Join(lines, "\n")
}

func (m CodeInput) cellState(i int, c segment.Cell) CellState {
	switch {
	case m.disabled:
		return CellDisabled
	case c.HasError:
		return CellError
	case c.HasFocus && m.cells[i].selected && !c.Empty():
		return CellSelected
	case c.HasFocus:
		return CellFocused
	default:
		return CellIdle
	}
}

func (m CodeInput) cellText(c segment.Cell) string {
	switch {
	case !c.Empty():
		return c.Char
	case c.HasFocus && !m.disabled:
		return "_"
	default:
		return CellPlaceholder
	}
}

// Changed returns the code emitted by the last Update, if any
func (m CodeInput) Changed() (string, bool) {
	if m.changed == nil {
		return "", false
	}
	return *m.changed, true
}

// Value returns the code last supplied by the host
func (m CodeInput) Value() string {
	return m.value
}

// Length returns the number of cells
func (m CodeInput) Length() int {
	return m.ctrl.Length()
}

// Focused returns the focused cell index, or -1 if none
func (m CodeInput) Focused() int {
	return m.ctrl.Focused()
}

// Cells returns the derived display state of every cell
func (m CodeInput) Cells() []segment.Cell {
	return m.ctrl.Cells(m.props())
}

// Err returns the error message currently displayed
func (m CodeInput) Err() string {
	return m.errMsg
}

// Disabled reports whether input is ignored
func (m CodeInput) Disabled() bool {
	return m.disabled
}

// SetValue supplies the host's current code and clears any pending change
func (m *CodeInput) SetValue(code string) {
	m.value = code
	m.changed = nil
}

// SetError sets the verification failure text; "" clears it
func (m *CodeInput) SetError(msg string) {
	m.errMsg = msg
}

// SetDisabled enables or disables input
func (m *CodeInput) SetDisabled(disabled bool) {
	m.disabled = disabled
}

// SetAutoFocus controls whether Init focuses the first cell
func (m *CodeInput) SetAutoFocus(autoFocus bool) {
	m.autoFocus = autoFocus
}

// Focus focuses the cell at index and selects its digit
func (m *CodeInput) Focus(index int) {
	m.ctrl.HandleCellFocus(m.props(), index)
}

// Blur removes focus from every cell
func (m *CodeInput) Blur() {
	m.ctrl.Blur()
}

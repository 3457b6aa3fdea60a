package segment

import (
	"strings"
	"testing"
)

// fakeHandle records the focus calls made by the controller
type fakeHandle struct {
	focused  bool
	selected bool
	calls    []string
}

func (h *fakeHandle) Focus() {
	h.focused = true
	h.calls = append(h.calls, "focus")
}

func (h *fakeHandle) Blur() {
	h.focused = false
	h.selected = false
	h.calls = append(h.calls, "blur")
}

func (h *fakeHandle) SelectAll() {
	h.selected = true
	h.calls = append(h.calls, "select")
}

// host is a minimal controlled-value owner used by the tests
type host struct {
	code     string
	emits    int
	disabled bool
}

func (h *host) props() Props {
	return Props{
		Value:    h.code,
		OnChange: func(v string) { h.code = v; h.emits++ },
		Disabled: h.disabled,
	}
}

func newTestController(t *testing.T, length int) (*Controller, []*fakeHandle) {
	t.Helper()
	fakes := make([]*fakeHandle, length)
	handles := make([]FocusHandle, length)
	for i := range fakes {
		fakes[i] = &fakeHandle{}
		handles[i] = fakes[i]
	}
	ctrl, err := NewController(handles)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return ctrl, fakes
}

func focusedCount(fakes []*fakeHandle) int {
	n := 0
	for _, f := range fakes {
		if f.focused {
			n++
		}
	}
	return n
}

func TestNewController_Errors(t *testing.T) {
	if _, err := NewController(nil); err == nil {
		t.Error("NewController(nil) should return error")
	}

	handles := []FocusHandle{&fakeHandle{}, nil}
	if _, err := NewController(handles); err == nil {
		t.Error("NewController() with nil handle should return error")
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		autoFocus   bool
		disabled    bool
		wantFocused int
	}{
		{"AutoFocus focuses first cell", true, false, 0},
		{"No AutoFocus", false, false, -1},
		{"Disabled still takes AutoFocus", true, true, 0},
		{"Disabled without AutoFocus", false, true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, fakes := newTestController(t, DefaultLength)
			p := Props{AutoFocus: tt.autoFocus, Disabled: tt.disabled}

			ctrl.Initialize(p)
			ctrl.Initialize(p)

			if ctrl.Focused() != tt.wantFocused {
				t.Errorf("Focused() = %d, want %d", ctrl.Focused(), tt.wantFocused)
			}
			if tt.wantFocused == 0 && len(fakes[0].calls) != 1 {
				t.Errorf("Initialize should be idempotent, cell 0 calls = %v", fakes[0].calls)
			}
		})
	}
}

func TestHandleCellInput_SequentialEntry(t *testing.T) {
	for n := 1; n <= DefaultLength; n++ {
		digits := "739104"[:n]
		t.Run(digits, func(t *testing.T) {
			ctrl, fakes := newTestController(t, DefaultLength)
			h := &host{}
			ctrl.Initialize(Props{AutoFocus: true})

			for i := 0; i < n; i++ {
				ctrl.HandleCellInput(h.props(), ctrl.Focused(), digits[i:i+1])
			}

			if h.code != digits {
				t.Errorf("code = %q, want %q", h.code, digits)
			}
			wantFocus := min(n, DefaultLength-1)
			if ctrl.Focused() != wantFocus {
				t.Errorf("Focused() = %d, want %d", ctrl.Focused(), wantFocus)
			}
			if focusedCount(fakes) != 1 {
				t.Errorf("expected exactly one focused handle, got %d", focusedCount(fakes))
			}
		})
	}
}

func TestHandleCellInput_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Letter", "a"},
		{"Space", " "},
		{"Multi-character", "12"},
		{"Symbol", "-"},
		{"Multi-byte rune", "٣"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _ := newTestController(t, DefaultLength)
			h := &host{code: "12"}
			ctrl.Initialize(Props{AutoFocus: true})

			ctrl.HandleCellInput(h.props(), 2, tt.raw)

			if h.emits != 0 {
				t.Errorf("HandleCellInput(%q) emitted %d times, want 0", tt.raw, h.emits)
			}
			if h.code != "12" {
				t.Errorf("code = %q, want unchanged", h.code)
			}
			if ctrl.Focused() != 0 {
				t.Errorf("focus moved to %d on rejected input", ctrl.Focused())
			}
		})
	}
}

func TestHandleCellInput_ReplacesFilledCell(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{code: "123456"}

	ctrl.HandleCellInput(h.props(), 0, "9")

	if h.code != "923456" {
		t.Errorf("code = %q, want %q", h.code, "923456")
	}
	if ctrl.Focused() != 1 {
		t.Errorf("Focused() = %d, want 1", ctrl.Focused())
	}
}

func TestHandleCellInput_LastCellKeepsFocus(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{code: "12345"}
	ctrl.HandleCellFocus(h.props(), 5)

	ctrl.HandleCellInput(h.props(), 5, "6")

	if h.code != "123456" {
		t.Errorf("code = %q, want %q", h.code, "123456")
	}
	if ctrl.Focused() != 5 {
		t.Errorf("Focused() = %d, want 5", ctrl.Focused())
	}
}

func TestHandleCellInput_ClearCompacts(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{code: "1234"}
	ctrl.HandleCellFocus(h.props(), 1)

	ctrl.HandleCellInput(h.props(), 1, "")

	if h.code != "134" {
		t.Errorf("code = %q, want %q", h.code, "134")
	}
	if ctrl.Focused() != 1 {
		t.Errorf("clearing should not move focus, Focused() = %d", ctrl.Focused())
	}
}

func TestHandleCellInput_OutOfRange(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{}

	ctrl.HandleCellInput(h.props(), -1, "1")
	ctrl.HandleCellInput(h.props(), DefaultLength, "1")

	if h.emits != 0 {
		t.Errorf("out-of-range input emitted %d times", h.emits)
	}
}

func TestHandleBackspace(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		index      int
		wantCode   string
		wantFocus  int
		wantNative bool
		wantEmit   bool
	}{
		{"Empty cell merges left", "120", 3, "12", 2, false, true},
		{"Filled cell is native", "120", 1, "120", -1, true, false},
		{"Empty first cell is no-op", "", 0, "", -1, false, false},
		{"Last empty cell", "12345", 5, "1234", 4, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _ := newTestController(t, DefaultLength)
			h := &host{code: tt.code}

			native := ctrl.HandleBackspace(h.props(), tt.index)

			if native != tt.wantNative {
				t.Errorf("HandleBackspace() native = %v, want %v", native, tt.wantNative)
			}
			if h.code != tt.wantCode {
				t.Errorf("code = %q, want %q", h.code, tt.wantCode)
			}
			if (h.emits > 0) != tt.wantEmit {
				t.Errorf("emits = %d, wantEmit %v", h.emits, tt.wantEmit)
			}
			if ctrl.Focused() != tt.wantFocus {
				t.Errorf("Focused() = %d, want %d", ctrl.Focused(), tt.wantFocus)
			}
		})
	}
}

func TestHandleBackspace_Chain(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{code: "123"}
	ctrl.HandleCellFocus(h.props(), 3)

	// Holding backspace walks left through the code
	for i := 0; i < 3; i++ {
		ctrl.HandleBackspace(h.props(), ctrl.Focused())
	}

	if h.code != "" {
		t.Errorf("code = %q, want empty", h.code)
	}
	if ctrl.Focused() != 0 {
		t.Errorf("Focused() = %d, want 0", ctrl.Focused())
	}
}

func TestHandleArrow(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		dir       Direction
		wantFocus int
	}{
		{"Right", 2, Right, 3},
		{"Left", 2, Left, 1},
		{"Left at first cell", 0, Left, 0},
		{"Right at last cell", 5, Right, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, fakes := newTestController(t, DefaultLength)
			h := &host{code: "1234"}
			ctrl.HandleCellFocus(h.props(), tt.start)

			ctrl.HandleArrow(h.props(), tt.start, tt.dir)

			if ctrl.Focused() != tt.wantFocus {
				t.Errorf("Focused() = %d, want %d", ctrl.Focused(), tt.wantFocus)
			}
			if h.emits != 0 {
				t.Errorf("arrow navigation emitted %d times", h.emits)
			}
			if focusedCount(fakes) != 1 {
				t.Errorf("expected one focused handle, got %d", focusedCount(fakes))
			}
		})
	}
}

func TestHandlePaste(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		index     int
		text      string
		wantCode  string
		wantFocus int
	}{
		{"Strips and truncates", "", 0, "12a3456789", "123456", 5},
		{"Short paste", "", 0, "42", "42", 2},
		{"Replaces rather than inserts", "987654", 3, "11", "11", 2},
		{"Formatted code", "", 2, "123 456", "123456", 5},
		{"Whitespace around code", "", 0, "  004213\n", "004213", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _ := newTestController(t, DefaultLength)
			h := &host{code: tt.code}

			ctrl.HandlePaste(h.props(), tt.index, tt.text)

			if h.code != tt.wantCode {
				t.Errorf("code = %q, want %q", h.code, tt.wantCode)
			}
			if ctrl.Focused() != tt.wantFocus {
				t.Errorf("Focused() = %d, want %d", ctrl.Focused(), tt.wantFocus)
			}
		})
	}
}

func TestHandlePaste_NoDigitsClears(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{code: "123"}
	ctrl.HandleCellFocus(h.props(), 3)

	ctrl.HandlePaste(h.props(), 3, "abc")

	if h.emits != 1 || h.code != "" {
		t.Errorf("code = %q after %d emits, want \"\" after 1", h.code, h.emits)
	}
	if ctrl.Focused() != 0 {
		t.Errorf("Focused() = %d, want 0", ctrl.Focused())
	}
}

func TestHandlePaste_Idempotent(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{}

	ctrl.HandlePaste(h.props(), 1, "9-8-7-6-5-4-3")
	first, firstFocus := h.code, ctrl.Focused()
	ctrl.HandlePaste(h.props(), 1, "9-8-7-6-5-4-3")

	if h.code != first {
		t.Errorf("second paste code = %q, first = %q", h.code, first)
	}
	if ctrl.Focused() != firstFocus {
		t.Errorf("second paste focus = %d, first = %d", ctrl.Focused(), firstFocus)
	}
}

func TestHandleCellFocus_SelectsContent(t *testing.T) {
	ctrl, fakes := newTestController(t, DefaultLength)
	h := &host{code: "123456"}
	ctrl.Initialize(Props{AutoFocus: true})

	ctrl.HandleCellFocus(h.props(), 3)

	if !fakes[3].focused || !fakes[3].selected {
		t.Errorf("cell 3 focused=%v selected=%v, want both true", fakes[3].focused, fakes[3].selected)
	}
	if fakes[0].focused {
		t.Error("cell 0 should have been blurred")
	}

	// Typing after the click overwrites the selected digit
	ctrl.HandleCellInput(h.props(), 3, "0")
	if h.code != "123056" {
		t.Errorf("code = %q, want %q", h.code, "123056")
	}
}

func TestDisabled_NoEmission(t *testing.T) {
	ctrl, _ := newTestController(t, DefaultLength)
	h := &host{code: "123", disabled: true}
	p := h.props()

	ctrl.HandleCellInput(p, 3, "4")
	ctrl.HandleBackspace(p, 3)
	ctrl.HandleBackspace(p, 2)
	ctrl.HandlePaste(p, 0, "654321")
	ctrl.HandleArrow(p, 0, Right)
	ctrl.HandleCellFocus(p, 2)

	if h.emits != 0 {
		t.Errorf("disabled controller emitted %d times", h.emits)
	}
	if ctrl.Focused() != -1 {
		t.Errorf("disabled controller moved focus to %d", ctrl.Focused())
	}
}

func TestBlur(t *testing.T) {
	ctrl, fakes := newTestController(t, DefaultLength)
	ctrl.Initialize(Props{AutoFocus: true})

	ctrl.Blur()

	if ctrl.Focused() != -1 {
		t.Errorf("Focused() = %d after Blur, want -1", ctrl.Focused())
	}
	if focusedCount(fakes) != 0 {
		t.Errorf("%d handles still focused after Blur", focusedCount(fakes))
	}

	// Blur with nothing focused is harmless
	ctrl.Blur()
}

func TestCodeNeverExceedsLength(t *testing.T) {
	ctrl, _ := newTestController(t, 4)
	h := &host{}

	ctrl.HandlePaste(h.props(), 0, strings.Repeat("7", 20))
	for i := 0; i < 10; i++ {
		ctrl.HandleCellInput(h.props(), i%4, "1")
	}

	if len(h.code) > 4 {
		t.Errorf("code %q exceeds length 4", h.code)
	}
	if !IsDigits(h.code) {
		t.Errorf("code %q contains non-digits", h.code)
	}
}

func TestDirectionString(t *testing.T) {
	if Left.String() != "left" || Right.String() != "right" {
		t.Errorf("unexpected direction names %q %q", Left, Right)
	}
	if Direction(9).String() != "Direction(9)" {
		t.Errorf("unexpected unknown direction name %q", Direction(9))
	}
}

package ui

// cellHandle is the terminal side of one code cell. The segment controller
// moves focus through it; View reads it back to pick the cell style.
type cellHandle struct {
	focused  bool
	selected bool
}

// Focus implements segment.FocusHandle
func (h *cellHandle) Focus() {
	h.focused = true
}

// Blur implements segment.FocusHandle
func (h *cellHandle) Blur() {
	h.focused = false
	h.selected = false
}

// SelectAll implements segment.FocusHandle
func (h *cellHandle) SelectAll() {
	h.selected = true
}

package segment

import "fmt"

// Cell is the derived display state of one code position.
// Cells are recomputed from the code on every call and never stored.
type Cell struct {
	Index    int    // Position in the code (0-based)
	Char     string // The digit at this position, or "" when empty
	Label    string // Accessible label, e.g. "Digit 3 of 6"
	HasFocus bool   // Whether this cell currently holds input focus
	HasError bool   // Set on every cell when the host supplies an error
}

// Empty reports whether the cell holds no digit.
func (c Cell) Empty() bool {
	return c.Char == ""
}

// CellLabel returns the accessible label for the cell at index in a code of
// the given length.
func CellLabel(index, length int) string {
	return fmt.Sprintf("Digit %d of %d", index+1, length)
}

// splitCode spreads code across length slots. Characters past length are
// ignored and missing positions are empty.
func splitCode(code string, length int) []string {
	chars := make([]string, length)
	for i := 0; i < length && i < len(code); i++ {
		chars[i] = code[i : i+1]
	}
	return chars
}

// joinCells concatenates the non-empty slots in order with no separators.
func joinCells(chars []string) string {
	var b []byte
	for _, c := range chars {
		if c != "" {
			b = append(b, c...)
		}
	}
	return string(b)
}

// DeriveCells builds the display state for a code of the given length.
// focused is the index of the focused cell, or -1 for none.
func DeriveCells(code string, length int, focused int, errMsg string) []Cell {
	chars := splitCode(code, length)
	cells := make([]Cell, length)
	for i := range cells {
		cells[i] = Cell{
			Index:    i,
			Char:     chars[i],
			Label:    CellLabel(i, length),
			HasFocus: i == focused,
			HasError: errMsg != "",
		}
	}
	return cells
}

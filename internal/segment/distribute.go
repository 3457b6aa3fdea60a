package segment

// Distribute reduces pasted text to the digits it contains, truncated to
// maxLength. The result is meant to replace the whole code.
//
// Examples:
//
//	Distribute("12a3456789", 6) // "123456"
//	Distribute("code: 42 17", 6) // "4217"
//	Distribute("abc", 6)         // ""
func Distribute(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}

	digits := make([]byte, 0, maxLength)
	for i := 0; i < len(text) && len(digits) < maxLength; i++ {
		if isDigit(text[i]) {
			digits = append(digits, text[i])
		}
	}
	return string(digits)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// IsDigits reports whether s is non-empty and made only of decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

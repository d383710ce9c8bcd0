package fx

// IsValidFormat reports whether code is exactly three uppercase ASCII
// letters. Pure, never fails.
func IsValidFormat(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

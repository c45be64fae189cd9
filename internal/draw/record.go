package draw

import "strings"

// NumbersPerDraw is the count of drawn-number buttons on a complete draw row.
const NumbersPerDraw = 12

// Record is one extracted draw.
type Record struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	DrawNumber string `json:"draw_number"`
	Numbers    string `json:"numbers"`
}

// NumberTokens splits Numbers into its positions.
func (r Record) NumberTokens() []string {
	return strings.Fields(r.Numbers)
}

// DigitsOnly strips everything but decimal digits from s.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// JoinNumbers trims each button text and joins them with single spaces.
func JoinNumbers(buttons []string) string {
	trimmed := make([]string, len(buttons))
	for i, b := range buttons {
		trimmed[i] = strings.TrimSpace(b)
	}
	return strings.Join(trimmed, " ")
}

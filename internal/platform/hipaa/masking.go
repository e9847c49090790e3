package hipaa

import "strings"

// MaskCardNumber keeps the last four digits of a card number.
func MaskCardNumber(pan string) string {
	if len(pan) <= 4 {
		return strings.Repeat("*", len(pan))
	}
	return strings.Repeat("*", len(pan)-4) + pan[len(pan)-4:]
}

package model

import (
	"fmt"
	"math"
	"strings"
)

// FormatHours renders an amount of hours as an ISO-8601 duration using hour,
// minute and second designators only, such as PT4H or PT1H30M.
func FormatHours(hours float64) string {
	seconds := int64(math.Round(math.Abs(hours) * 3600))
	if seconds == 0 {
		return "PT0S"
	}

	var b strings.Builder

	if hours < 0 {
		b.WriteByte('-')
	}

	b.WriteString("PT")

	if h := seconds / 3600; h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}

	if m := seconds % 3600 / 60; m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}

	if s := seconds % 60; s > 0 {
		fmt.Fprintf(&b, "%dS", s)
	}

	return b.String()
}

// FormatMoney renders an amount with two decimals and the currency suffix.
func FormatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

package util

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatCount renders an integer with thousands separators (35000 -> "35,000")
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatPrice renders a USD amount
func FormatPrice(p float64) string {
	return "$" + humanize.CommafWithDigits(p, 2)
}

// FormatRatio renders a ratio as a percentage with one decimal
func FormatRatio(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

// FormatBytes renders a byte size ("1.2 MB")
func FormatBytes(n int64) string {
	if n < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(n))
}

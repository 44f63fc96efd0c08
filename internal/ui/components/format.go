package components

import "fmt"

// FormatTokens renders a token count with thousands separators.
func FormatTokens(n int64) string {
	if n < 0 {
		return "-" + FormatTokens(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatTokens(n/1000), n%1000)
}

// FormatCost renders a dollar cost with cent precision.
func FormatCost(c float64) string {
	return fmt.Sprintf("$%.2f", c)
}

// FormatCompact renders a token count in short form (1.2k, 3.4M).
func FormatCompact(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

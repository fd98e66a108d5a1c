package dashboard

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatNumber abbreviates large magnitudes with K, M or B.
func formatNumber(n float64) string {
	a := math.Abs(n)
	switch {
	case a >= 1e9:
		return fmt.Sprintf("%.1fB", n/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	}
	return printer.Sprintf("%d", int64(math.Round(n)))
}

// formatCount prints n with thousands separators.
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

func formatPercent(p float64) string {
	return printer.Sprintf("%.2f%%", p)
}

func signed(s string, n float64) string {
	if n > 0 {
		return "+" + s
	}
	return s
}

// formatWeekly renders a 7-day change, e.g. "+1.2K (7d)".
func formatWeekly(delta float64, percent bool) string {
	s := formatNumber(delta)
	if percent {
		s = formatPercent(delta)
	}
	return signed(s, delta) + " (7d)"
}

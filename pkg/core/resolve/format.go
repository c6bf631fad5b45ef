package resolve

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders a figure with thousands separators and accounting
// negatives: nil → "-", zero → "0", -1234 → "(1,234)".
func FormatNumber(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) {
		return "-"
	}
	if *v == 0 {
		return "0"
	}
	s := printer.Sprintf(fmt.Sprintf("%%.%df", decimals), math.Abs(*v))
	if *v < 0 {
		return "(" + s + ")"
	}
	return s
}

// FormatPercentage renders "12.34%"; nil → "-".
func FormatPercentage(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f%%", decimals, *v)
}

// FormatDays renders "45 days"; nil → "-".
func FormatDays(v *float64) string {
	if v == nil {
		return "-"
	}
	return FormatNumber(v, 0) + " days"
}

// FormatRatio renders a ratio according to its unit.
func FormatRatio(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	switch unit {
	case "%":
		return FormatPercentage(v, 2)
	case "x", "times":
		return FormatNumber(v, 2) + "x"
	case "days":
		return FormatDays(v)
	}
	return FormatNumber(v, 2)
}

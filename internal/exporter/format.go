package exporter

import (
	"fmt"
)

// formatFloat formats a price-like value with exactly 2 decimal places so
// values like 13.4 appear as 13.40 in the output.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatRatio formats a ratio or growth-rate value with 4 decimal places.
func formatRatio(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

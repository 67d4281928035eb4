package format

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Price renders an amount as dollars with two decimals.
func Price(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Age formats a duration in a compact form: "now", "5m", "2h", "3d".
func Age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

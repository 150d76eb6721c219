package components

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Price formats a price with two decimals and thousands separators
func Price(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return humanize.FormatFloat("#,###.##", f)
}

// Signed formats a change with an explicit sign and two decimals
func Signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if !d.IsNegative() {
		s = "+" + s
	}
	return s
}

// Percent formats a percentage change with sign, two decimals and a % suffix
func Percent(d decimal.Decimal) string {
	return Signed(d) + "%"
}

// Ago formats t relative to now, e.g. "3 minutes ago"
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// TrendClass returns the CSS class for a gain or a loss
func TrendClass(gain bool) string {
	if gain {
		return "positive"
	}
	return "negative"
}

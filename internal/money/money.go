// Package money formats the game's float amounts for people. The game itself keeps
// plain float64 values; rounding happens only here, at display time.
package money

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const currency = money.USD

// Cents rounds v half away from zero to whole cents.
func Cents(v float64) int64 {
	return decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
}

// Round returns v rounded to cents, for JSON views.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Format renders v as US dollars, e.g. "$1,234.56".
func Format(v float64) string {
	return money.New(Cents(v), currency).Display()
}

// Signed renders a ledger delta with an explicit sign; zero is "$0.00".
func Signed(v float64) string {
	c := Cents(v)
	if c > 0 {
		return "+" + money.New(c, currency).Display()
	}
	return money.New(c, currency).Display()
}

// Percent renders a ratio such as 0.05 as "5.0%".
func Percent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Shift(2).StringFixed(1) + "%"
}

// Ago renders t relative to now, e.g. "3 minutes ago".
func Ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Count renders n with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Package format renders scores, places and timestamps for display.
package format

import (
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TimeLayout is used for absolute timestamps such as solve times.
const TimeLayout = "2006-01-02 15:04:05"

var printer = message.NewPrinter(language.English)

// Number formats n with thousands separators.
func Number(n int) string {
	return printer.Sprint(number.Decimal(n))
}

// Ordinal formats n as an English ordinal: 1st, 2nd, 3rd, 11th, 22nd.
func Ordinal(n int) string {
	return humanize.Ordinal(n)
}

// Plural formats a count with a singular noun, adding "s" unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return Number(n) + " " + word
	}
	return Number(n) + " " + word + "s"
}

// Timestamp formats t in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Relative describes t relative to now, e.g. "3 hours ago" or "2 days from now".
func Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

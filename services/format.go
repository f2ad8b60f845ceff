package services

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayDateLayout is the en-AU date format used on reports ("2 Jan 2006").
const DisplayDateLayout = "2 Jan 2006"

var titleCaser = cases.Title(language.English)

// FormatCurrency formats an amount in Australian dollars with thousands
// separators and exactly two decimal places (e.g., $1,234.56).
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	result := "$" + humanize.FormatFloat("#,###.##", round2(amount))
	if negative {
		result = "-" + result
	}
	return result
}

// FormatDate formats t in the report date layout. The zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// FormatDateString reformats a stored timestamp for display. Values that parse
// as neither RFC 3339, a PocketBase datetime nor a plain date are returned
// unchanged.
func FormatDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t)
		}
	}
	return s
}

// TitleCase capitalises each word of a label ("water damage" -> "Water Damage").
func TitleCase(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}

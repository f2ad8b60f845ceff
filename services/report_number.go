package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
)

// GetFinancialYear returns the Australian financial year string for a date.
// The financial year runs July to June.
// Jan 2026 → "25-26", Aug 2026 → "26-27"
func GetFinancialYear(t time.Time) string {
	startYear := t.Year()
	if t.Month() < time.July {
		startYear--
	}
	return fmt.Sprintf("%02d-%02d", startYear%100, (startYear+1)%100)
}

// formatReportNumber constructs the report number string from components.
func formatReportNumber(financialYear string, sequence int) string {
	return fmt.Sprintf("RPT-%s-%04d", financialYear, sequence)
}

// reportNumberSources are the collections and fields holding issued numbers.
// Inspections reserve a number before any report exists.
var reportNumberSources = []struct{ collection, field string }{
	{"reports", "report_number"},
	{"inspections", "report_id"},
}

// GenerateReportNumber creates the next report number.
// Format: RPT-{financial_year}-{sequence}
//   - financial_year: Australian financial year (Jul-Jun), e.g., "25-26"
//   - sequence: 4-digit zero-padded, per financial year, one past the highest
//     sequence issued to a report or inspection
func GenerateReportNumber(app *pocketbase.PocketBase, now time.Time) (string, error) {
	fy := GetFinancialYear(now)
	prefix := fmt.Sprintf("RPT-%s-", fy)

	highest := 0
	for _, src := range reportNumberSources {
		existing, err := app.FindRecordsByFilter(
			src.collection,
			src.field+" ~ {:prefix}",
			"",
			0,
			0,
			map[string]any{"prefix": prefix + "%"},
		)
		if err != nil {
			// If collection doesn't exist or no records, start at 1
			continue
		}
		for _, rec := range existing {
			seq, err := strconv.Atoi(strings.TrimPrefix(rec.GetString(src.field), prefix))
			if err == nil && seq > highest {
				highest = seq
			}
		}
	}

	return formatReportNumber(fy, highest+1), nil
}

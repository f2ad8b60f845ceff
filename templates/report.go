package templates

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"restoreassist/services"
)

// Variant selects the look and section set of the report viewer.
type Variant string

// Report viewer variants.
const (
	VariantStandard Variant = "standard"
	VariantDetailed Variant = "detailed"
	VariantClient   Variant = "client"
)

// ParseVariant maps a query value onto a Variant, defaulting to standard.
func ParseVariant(s string) Variant {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantDetailed:
		return VariantDetailed
	case VariantClient:
		return VariantClient
	}
	return VariantStandard
}

// Theme returns the accent colour of the variant.
func (v Variant) Theme() string {
	switch v {
	case VariantDetailed:
		return "#0f766e"
	case VariantClient:
		return "#7c3aed"
	}
	return "#1e40af"
}

// ShowsTechnicalDetail reports whether the variant prints the inspection
// form replica and the moisture table.
func (v Variant) ShowsTechnicalDetail() bool {
	return v != VariantClient
}

func reportTitle(r services.Report) string {
	if r.Header.Title == "" {
		return "Inspection Report"
	}
	return r.Header.Title
}

func preparedBy(h services.ReportHeader) string {
	return strings.Trim(strings.Join([]string{h.PreparedBy, h.Company}, ", "), ", ")
}

// executiveSummary returns the stored summary, or the narrative assembled
// from the report's own data when none was stored.
func executiveSummary(r services.Report) string {
	if s := strings.TrimSpace(r.Summary.Executive); s != "" {
		return s
	}
	return services.NarrativeSummary(r)
}

type detailRow struct {
	Label string
	Value string
}

// inspectionDetails returns the rows of the inspection form replica, with
// "-" for missing values, and whether any value is present.
func inspectionDetails(r services.Report) ([]detailRow, bool) {
	rows := []detailRow{
		{"Report number", r.Header.ReportNumber},
		{"Property address", r.Property.Address},
		{"Postcode", r.Property.Postcode},
		{"Property type", r.Property.PropertyType},
		{"Technician", r.Header.PreparedBy},
	}
	if !r.Incident.IsEmpty() {
		rows = append(rows,
			detailRow{"Date of loss", services.FormatDateString(r.Incident.DateOfLoss)},
			detailRow{"Cause", r.Incident.Cause},
			detailRow{"Water source", r.Incident.WaterSource},
		)
	}
	filled := false
	for i := range rows {
		if strings.TrimSpace(rows[i].Value) == "" {
			rows[i].Value = "-"
			continue
		}
		filled = true
	}
	return rows, filled
}

func hasClassification(c *services.ReportClassification) bool {
	return c != nil && (c.Category != "" || c.Class != "")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func areaOf(a services.AffectedArea) float64 {
	if a.Area > 0 {
		return a.Area
	}
	return services.Area(a.Length, a.Width)
}

func colspanAfterArea(variant Variant) int {
	if variant == VariantDetailed {
		return 3
	}
	return 1
}

func dailyRate(e services.ReportEquipment) string {
	if e.DailyRate <= 0 {
		return "-"
	}
	return services.FormatCurrency(e.DailyRate)
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

// photoURL drops URLs with unsafe schemes.
func photoURL(u string) string {
	return string(templ.URL(u))
}

func footerText(h services.ReportHeader) string {
	if h.Company == "" {
		return "Report " + h.ReportNumber
	}
	return h.Company + " · Report " + h.ReportNumber
}

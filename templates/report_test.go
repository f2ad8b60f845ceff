package templates

import (
	"bytes"
	"context"
	"testing"

	"restoreassist/services"
	"restoreassist/testhelpers"
)

func render(t *testing.T, r services.Report, v Variant) string {
	t.Helper()
	var buf bytes.Buffer
	if err := ReportPage(r, v).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render error: %v", err)
	}
	return buf.String()
}

func fullReport() services.Report {
	return services.Report{
		ReportID: "RPT-25-26-0001",
		Header: services.ReportHeader{
			ReportNumber: "RPT-25-26-0001",
			Title:        "Water Damage Inspection Report",
			Date:         "2025-08-14T00:00:00Z",
			PreparedBy:   "Sam Tech",
			Company:      "Dry Co",
		},
		Property: services.ReportProperty{Address: "42 Wallaby Way", Postcode: "2000"},
		Incident: services.ReportIncident{Cause: "Burst pipe", WaterSource: "Clean supply"},
		Environmental: &services.EnvironmentalReading{
			Temperature: 22, Humidity: 65, DewPoint: 15,
		},
		Classification: &services.ReportClassification{Category: "1", Class: "2", Advisory: true},
		Hazards:        []string{"Slip hazard"},
		AffectedAreas: []services.AffectedArea{
			{RoomType: "Kitchen", Length: 4, Width: 3, Materials: []string{"Carpet"}},
		},
		MoistureReadings: []services.MoistureReading{
			{Location: "North wall", SurfaceType: "Plasterboard", Level: 24.5, Depth: "Surface"},
		},
		ScopeItems:    []services.ScopeItem{{ItemType: "extract water", Selected: true}},
		CostEstimates: []services.CostEstimate{{Category: "labour", Description: "Technician", Quantity: 10, Unit: "hr", Rate: 75, Total: 750}},
		Equipment:     []services.ReportEquipment{{Type: "Air Mover", Quantity: 4, Days: 3, DailyRate: 40}},
		Photos: []services.ReportPhoto{
			{URL: "/api/files/photos/abc/kitchen.jpg", Caption: "Kitchen floor", Category: "Damage"},
			{URL: "/api/files/photos/abc/meter.jpg"},
		},
		Summary:             services.ReportSummary{Executive: "Inspection summary text.", Recommendations: []string{"Dry it"}},
		ComplianceStandards: []string{"IICRC S500"},
		Notes:               "Access via rear <gate>",
	}
}

func TestReportPage_StandardRendersAllSections(t *testing.T) {
	body := render(t, fullReport(), VariantStandard)
	testhelpers.AssertHTMLContains(t, body,
		"Water Damage Inspection Report",
		"RPT-25-26-0001",
		"14 Aug 2025",
		`id="executive-summary"`,
		`id="inspection-form"`,
		`id="environment"`,
		"Category 1",
		"Preliminary",
		`id="affected-areas"`,
		`id="moisture"`,
		`id="hazards"`,
		`id="scope"`,
		`id="equipment"`,
		`id="cost-estimates"`,
		"$750.00",
		`id="compliance"`,
		`id="photos"`,
		"Damage",
		"General",
		`id="notes"`,
		"@media print",
		"#1e40af",
	)
}

func TestReportPage_ClientOmitsTechnicalSections(t *testing.T) {
	body := render(t, fullReport(), VariantClient)
	testhelpers.AssertHTMLNotContains(t, body, `id="inspection-form"`, `id="moisture"`)
	testhelpers.AssertHTMLContains(t, body, `id="executive-summary"`, `id="cost-estimates"`, "#7c3aed")
}

func TestReportPage_DetailedAddsSeverity(t *testing.T) {
	body := render(t, fullReport(), VariantDetailed)
	testhelpers.AssertHTMLContains(t, body, "Severity", "Significant Saturation", "Carpet", "#0f766e")

	standard := render(t, fullReport(), VariantStandard)
	testhelpers.AssertHTMLNotContains(t, standard, "Severity")
}

func TestReportPage_EmptySectionsHidden(t *testing.T) {
	r := services.Report{
		Header:   services.ReportHeader{ReportNumber: "R-1"},
		Property: services.ReportProperty{Address: "1 Empty St"},
	}
	body := render(t, r, VariantStandard)
	testhelpers.AssertHTMLNotContains(t, body,
		`id="environment"`,
		`id="affected-areas"`,
		`id="moisture"`,
		`id="hazards"`,
		`id="equipment"`,
		`id="cost-estimates"`,
		`id="compliance"`,
		`id="photos"`,
		`id="notes"`,
	)
	testhelpers.AssertHTMLContains(t, body, "1 Empty St", "Inspection Report")
}

func TestReportPage_NarrativeWhenNoStoredSummary(t *testing.T) {
	tests := []struct {
		name  string
		level float64
		want  string
	}{
		{"significant", 25, "significant saturation"},
		{"elevated", 18, "readings are elevated"},
		{"moderate", 12, "moderate levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := services.Report{
				Header:           services.ReportHeader{ReportNumber: "RPT-25-26-0002"},
				MoistureReadings: []services.MoistureReading{{Location: "Hall", Level: tt.level}},
			}
			body := render(t, r, VariantStandard)
			testhelpers.AssertHTMLContains(t, body, `id="executive-summary"`, tt.want)
		})
	}
}

func TestReportPage_StoredSummaryWins(t *testing.T) {
	r := fullReport()
	body := render(t, r, VariantStandard)
	testhelpers.AssertHTMLContains(t, body, "Inspection summary text.")
	testhelpers.AssertHTMLNotContains(t, body, "An inspection was carried out")
}

func TestReportPage_InspectionDetailsHiddenWhenEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    services.Report
		want bool
	}{
		{"no values", services.Report{Notes: "Only notes"}, false},
		{"blank values", services.Report{Property: services.ReportProperty{Address: "  "}, Notes: "Only notes"}, false},
		{"one value", services.Report{Header: services.ReportHeader{PreparedBy: "Sam Tech"}}, true},
		{"description only", services.Report{Incident: services.ReportIncident{Description: "Ceiling leak"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := render(t, tt.r, VariantStandard)
			if tt.want {
				testhelpers.AssertHTMLContains(t, body, `id="inspection-form"`)
			} else {
				testhelpers.AssertHTMLNotContains(t, body, `id="inspection-form"`)
			}
		})
	}
}

func TestReportPage_EscapesContent(t *testing.T) {
	body := render(t, fullReport(), VariantStandard)
	testhelpers.AssertHTMLContains(t, body, "Access via rear &lt;gate&gt;")
	testhelpers.AssertHTMLNotContains(t, body, "<gate>")
}

func TestReportPage_BrokenImagePlaceholder(t *testing.T) {
	body := render(t, fullReport(), VariantStandard)
	testhelpers.AssertHTMLContains(t, body, "onerror=", "Image unavailable")
}

func TestReportPage_UnsafePhotoURL(t *testing.T) {
	r := fullReport()
	r.Photos = []services.ReportPhoto{{URL: "javascript:alert(1)"}}
	body := render(t, r, VariantStandard)
	testhelpers.AssertHTMLNotContains(t, body, "javascript:alert(1)")
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"", VariantStandard},
		{"standard", VariantStandard},
		{"DETAILED", VariantDetailed},
		{" client ", VariantClient},
		{"fancy", VariantStandard},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseVariant(tt.in); got != tt.want {
				t.Errorf("ParseVariant(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

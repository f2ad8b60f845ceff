package main

import (
	"bytes"
	"strings"
	"testing"

	"restoreassist/services"
)

func TestReadScopeDraft_Stdin(t *testing.T) {
	in := strings.NewReader(`{"reportId":"RPT-25-26-0001","site":{"affectedArea":40},"equipment":[{"type":"Air Mover","quantity":2,"durationDays":3}]}`)

	draft, err := readScopeDraft("-", in)
	if err != nil {
		t.Fatalf("readScopeDraft: %v", err)
	}
	if draft.ReportID != "RPT-25-26-0001" || len(draft.Equipment) != 1 || draft.Site.AffectedArea != 40 {
		t.Errorf("unexpected draft: %+v", draft)
	}
}

func TestReadScopeDraft_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		in   string
	}{
		{"invalid json", "-", "{"},
		{"missing file", "does-not-exist.json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readScopeDraft(tt.path, strings.NewReader(tt.in)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestWriteEstimate(t *testing.T) {
	draft := services.ScopeDraft{
		ReportID: "RPT-25-26-0001",
		Site:     services.SiteVariables{AffectedArea: 40},
		Labour:   []services.LabourRole{{Role: "Labourer", HourlyRate: 65, Hours: 4}},
		Equipment: []services.EquipmentLine{
			{Type: services.EquipmentAirMover, Quantity: 2, DurationDays: 3},
		},
	}
	summary := services.CalcScopeSummary(draft, services.DefaultCatalog())

	var buf bytes.Buffer
	if err := writeEstimate(&buf, draft, summary); err != nil {
		t.Fatalf("writeEstimate: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Scope RPT-25-26-0001",
		"Labourer",
		services.EquipmentAirMover,
		"Total:     " + services.FormatCurrency(summary.Total),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

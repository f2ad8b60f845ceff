package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"

	"restoreassist/services"
	"restoreassist/testhelpers"
)

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
		wantEmpty   bool
	}{
		{"valid", `{"reportId":"RPT-25-26-0001"}`, "application/json", false, false},
		{"charset suffix", `{"reportId":"RPT-25-26-0001"}`, "application/json; charset=utf-8", false, false},
		{"empty", ``, "application/json", true, true},
		{"malformed", `{"reportId":`, "application/json", true, false},
		{"not json", `reportId=1`, "text/plain", true, false},
		{"too large", `{"reportId":"` + strings.Repeat("x", maxJSONBody) + `"}`, "application/json", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scopes", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", tt.contentType)
			e := newTestRequestEvent(nil, req, httptest.NewRecorder())

			var got struct {
				ReportID string `json:"reportId"`
			}
			err := readJSON(e, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readJSON err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, errEmptyBody) != tt.wantEmpty {
				t.Errorf("errEmptyBody = %v, want %v", errors.Is(err, errEmptyBody), tt.wantEmpty)
			}
			if !tt.wantErr && got.ReportID != "RPT-25-26-0001" {
				t.Errorf("reportId = %q", got.ReportID)
			}
		})
	}
}

func TestCatalogFor_LogsPricingLoadFailure(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := asUser(t, app, httptest.NewRequest(http.MethodGet, "/", nil), "broken-pricing", services.TierPro, 0)

	col, err := app.FindCollectionByNameOrId("pricing_configs")
	if err != nil {
		t.Fatalf("find pricing_configs: %v", err)
	}
	if err := app.Delete(col); err != nil {
		t.Fatalf("delete pricing_configs: %v", err)
	}

	mem := memory.New()
	logger := log.Log.(*log.Logger)
	prev := logger.Handler
	logger.Handler = mem
	t.Cleanup(func() { logger.Handler = prev })

	catalog := catalogFor(newTestRequestEvent(app, req, httptest.NewRecorder()))

	line := services.EquipmentLine{Type: services.EquipmentAirMover, Quantity: 1, DurationDays: 1}
	want := services.CalcEquipmentLine(line, services.DefaultCatalog()).Cost
	if got := services.CalcEquipmentLine(line, catalog).Cost; got != want {
		t.Errorf("cost = %v, want default %v", got, want)
	}

	var warned bool
	for _, entry := range mem.Entries {
		if entry.Level == log.WarnLevel && entry.Fields["user"] == "broken-pricing" && entry.Fields["error"] != nil {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a warning for the pricing load failure, got %d entries", len(mem.Entries))
	}
}

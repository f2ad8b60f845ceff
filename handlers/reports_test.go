package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restoreassist/aiclient"
	"restoreassist/services"
	"restoreassist/testhelpers"
)

func TestHandleReportCreate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestReport(t, app, "RPT-25-26-0007", "7 Taken St")
	handler := HandleReportCreate(app)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"blank address", map[string]any{"reportId": "RPT-25-26-0100"}, http.StatusBadRequest},
		{"existing number", map[string]any{"reportId": "RPT-25-26-0007", "propertyAddress": "7 Other St"}, http.StatusConflict},
		{"explicit number", map[string]any{"reportId": "RPT-25-26-0100", "propertyAddress": "100 New St"}, http.StatusCreated},
		{"generated number", map[string]any{"propertyAddress": "101 New St"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, app, handler, newJSONRequest(t, http.MethodPost, "/api/reports", tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			id, _ := decodeBody(t, rec)["id"].(string)
			stored, err := app.FindRecordById("reports", id)
			if err != nil {
				t.Fatalf("expected report record %q: %v", id, err)
			}
			if stored.GetString("status") != services.ReportStatusDraft {
				t.Errorf("expected draft status, got %q", stored.GetString("status"))
			}
		})
	}
}

func TestHandleReportGet(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	report := testhelpers.CreateTestReport(t, app, "RPT-25-26-0008", "8 Found St")
	handler := HandleReportGet(app)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"by record id", report.Id, http.StatusOK},
		{"by report number", "RPT-25-26-0008", http.StatusOK},
		{"missing", "RPT-25-26-9999", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tt.id)
			rec := serve(t, app, handler, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			doc, _ := decodeBody(t, rec)["report"].(map[string]any)
			property, _ := doc["property"].(map[string]any)
			if property["address"] != "8 Found St" {
				t.Errorf("expected address 8 Found St, got %v", property["address"])
			}
			if doc["id"] != report.Id {
				t.Errorf("expected record id in document, got %v", doc["id"])
			}
		})
	}
}

func TestHandleReportView(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestReport(t, app, "RPT-25-26-0009", "9 <View> St")
	handler := HandleReportView(app)

	t.Run("client variant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/reports/RPT-25-26-0009/view?variant=client", nil)
		req.SetPathValue("id", "RPT-25-26-0009")
		rec := serve(t, app, handler, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		testhelpers.AssertHTMLContains(t, body, "report-client", "9 &lt;View&gt; St", "RPT-25-26-0009", "@media print")
		testhelpers.AssertHTMLNotContains(t, body, "9 <View> St")
	})

	t.Run("unknown variant falls back to standard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/reports/RPT-25-26-0009/view?variant=glossy", nil)
		req.SetPathValue("id", "RPT-25-26-0009")
		rec := serve(t, app, handler, req)

		testhelpers.AssertHTMLContains(t, rec.Body.String(), "report-standard")
	})

	t.Run("missing report", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/reports/nope/view", nil)
		req.SetPathValue("id", "nope")
		rec := serve(t, app, handler, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
		testhelpers.AssertHTMLContains(t, rec.Body.String(), "404", "Not Found")
	})
}

func TestHandleAnalyzeTechnicianReport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	text := "Burst pipe caused water damage to the kitchen."

	t.Run("blank text", func(t *testing.T) {
		rec := serve(t, app, HandleAnalyzeTechnicianReport(nil), newJSONRequest(t, http.MethodPost, "/", map[string]any{"text": "  "}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("fallback without service", func(t *testing.T) {
		rec := serve(t, app, HandleAnalyzeTechnicianReport(nil), newJSONRequest(t, http.MethodPost, "/", map[string]any{"text": text}))

		body := decodeBody(t, rec)
		if body["source"] != "fallback" {
			t.Errorf("expected fallback source, got %v", body["source"])
		}
		c, _ := body["classification"].(map[string]any)
		if c["serviceType"] != "Water Damage" {
			t.Errorf("expected Water Damage, got %v", c["serviceType"])
		}
		a, _ := body["analysis"].(map[string]any)
		if a["reportGrade"] != 2.0 {
			t.Errorf("expected fallback grade 2, got %v", a["reportGrade"])
		}
	})

	t.Run("service analysis", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"report_grade":4,"service_type":"Water Damage","summary":"Thorough","hazards":["Electrical"]}`))
		}))
		defer srv.Close()

		handler := HandleAnalyzeTechnicianReport(aiclient.New(srv.URL, "token", 5*time.Second))
		rec := serve(t, app, handler, newJSONRequest(t, http.MethodPost, "/", map[string]any{"text": text}))

		body := decodeBody(t, rec)
		if body["source"] != "ai" {
			t.Errorf("expected ai source, got %v", body["source"])
		}
		a, _ := body["analysis"].(map[string]any)
		if a["reportGrade"] != 4.0 || a["summary"] != "Thorough" {
			t.Errorf("unexpected analysis %v", a)
		}
	})

	t.Run("service failure falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		handler := HandleAnalyzeTechnicianReport(aiclient.New(srv.URL, "", 5*time.Second))
		rec := serve(t, app, handler, newJSONRequest(t, http.MethodPost, "/", map[string]any{"text": text}))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if body := decodeBody(t, rec); body["source"] != "fallback" {
			t.Errorf("expected fallback source, got %v", body["source"])
		}
	})
}

func TestHandleGenerateReport_Local(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	inspection := createCompleteInspection(t, app, "RPT-25-26-0010")
	_, err := services.UpsertScope(app, "", services.ScopeDraft{
		ReportID: "RPT-25-26-0010",
		Labour:   []services.LabourRole{{Role: "Labourer", HourlyRate: 50, Hours: 2}},
	}, services.DefaultCatalog())
	if err != nil {
		t.Fatalf("UpsertScope: %v", err)
	}

	req := newJSONRequest(t, http.MethodPost, "/", map[string]any{"reportId": "RPT-25-26-0010", "notes": "Keys with tenant"})
	rec := serve(t, app, HandleGenerateReport(app, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["source"] != "local" {
		t.Errorf("expected local source, got %v", body["source"])
	}

	stored, err := services.FindReport(app, "RPT-25-26-0010")
	if err != nil {
		t.Fatalf("expected stored report: %v", err)
	}
	if stored.GetString("status") != services.ReportStatusGenerated {
		t.Errorf("expected generated status, got %q", stored.GetString("status"))
	}
	if stored.GetString("inspection_id") != inspection.Id {
		t.Errorf("expected report linked to inspection")
	}
	report, err := services.ReportFromRecord(stored)
	if err != nil {
		t.Fatalf("ReportFromRecord: %v", err)
	}
	if report.Notes != "Keys with tenant" {
		t.Errorf("expected notes to be kept, got %q", report.Notes)
	}
	if len(report.CostEstimates) == 0 {
		t.Error("expected cost estimates from the saved scope")
	}
}

func TestHandleGenerateReport_Service(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	inspection := createCompleteInspection(t, app, "RPT-25-26-0011")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req aiclient.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reportId": "SOMETHING-ELSE",
			"header":   map[string]any{"reportNumber": "SOMETHING-ELSE", "title": "AI Report"},
			"property": map[string]any{"address": req.Inspection.PropertyAddress},
			"summary":  map[string]any{"executive": "Written by the service."},
		})
	}))
	defer srv.Close()

	req := newJSONRequest(t, http.MethodPost, "/", map[string]any{"inspectionId": inspection.Id})
	rec := serve(t, app, HandleGenerateReport(app, aiclient.New(srv.URL, "", 5*time.Second)), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["source"] != "ai" {
		t.Errorf("expected ai source, got %v", body["source"])
	}

	report, err := services.LoadReport(app, "RPT-25-26-0011")
	if err != nil {
		t.Fatalf("expected report stored under the inspection's number: %v", err)
	}
	if report.Summary.Executive != "Written by the service." {
		t.Errorf("unexpected executive summary %q", report.Summary.Executive)
	}
	if _, err := services.FindReport(app, "SOMETHING-ELSE"); err == nil {
		t.Error("expected the service's report number to be ignored")
	}
}

func TestHandleGenerateReport_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleGenerateReport(app, nil)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"no identifiers", map[string]any{}, http.StatusBadRequest},
		{"unknown report", map[string]any{"reportId": "RPT-00-00-0000"}, http.StatusNotFound},
		{"unknown inspection", map[string]any{"inspectionId": "missing"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, app, handler, newJSONRequest(t, http.MethodPost, "/", tt.body))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

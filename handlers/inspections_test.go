package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restoreassist/testhelpers"
)

func TestHandleInspectionLookup(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestInspection(t, app, "RA-2025-0001", "1 Harbour St")
	handler := HandleInspectionLookup(app)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFound  bool
	}{
		{"missing report id", "", http.StatusBadRequest, false},
		{"unknown report", "?reportId=RA-2025-9999", http.StatusOK, false},
		{"existing report", "?reportId=RA-2025-0001", http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/inspections"+tt.query, nil)
			rec := serve(t, app, handler, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decodeBody(t, rec)
			if found := body["inspection"] != nil; found != tt.wantFound {
				t.Errorf("expected found=%v, got body %v", tt.wantFound, body)
			}
		})
	}
}

func TestHandleInspectionCreate_BlankAddress(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleInspectionCreate(app)

	req := newJSONRequest(t, http.MethodPost, "/api/inspections", map[string]any{
		"reportId":         "RA-2025-0002",
		"propertyAddress":  "   ",
		"propertyPostcode": "",
	})
	rec := serve(t, app, handler, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	fields, _ := body["fields"].(map[string]any)
	for _, key := range []string{"propertyAddress", "propertyPostcode"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected field error for %s, got %v", key, fields)
		}
	}

	records, _ := app.FindAllRecords("inspections")
	if len(records) != 0 {
		t.Errorf("expected no inspection to be created, got %d", len(records))
	}
}

func TestHandleInspectionCreate_OncePerReport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleInspectionCreate(app)

	payload := map[string]any{
		"reportId":         "RA-2025-0003",
		"propertyAddress":  " 12 Ocean Rd ",
		"propertyPostcode": "2026",
		"technicianName":   "Sam",
	}

	first := serve(t, app, handler, newJSONRequest(t, http.MethodPost, "/api/inspections", payload))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", first.Code, first.Body.String())
	}
	body := decodeBody(t, first)
	if body["created"] != true {
		t.Errorf("expected created=true, got %v", body["created"])
	}
	inspection, _ := body["inspection"].(map[string]any)
	if inspection["propertyAddress"] != "12 Ocean Rd" {
		t.Errorf("expected trimmed address, got %v", inspection["propertyAddress"])
	}

	second := serve(t, app, handler, newJSONRequest(t, http.MethodPost, "/api/inspections", payload))
	if second.Code != http.StatusOK {
		t.Fatalf("expected status 200 for repeat create, got %d", second.Code)
	}
	if decodeBody(t, second)["created"] != false {
		t.Error("expected created=false for repeat create")
	}

	records, _ := app.FindAllRecords("inspections")
	if len(records) != 1 {
		t.Errorf("expected exactly one inspection, got %d", len(records))
	}
}

func TestHandleInspectionCreate_GeneratesReportID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleInspectionCreate(app)

	req := newJSONRequest(t, http.MethodPost, "/api/inspections", map[string]any{
		"propertyAddress":  "3 Bay St",
		"propertyPostcode": "2000",
	})
	rec := serve(t, app, handler, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	inspection, _ := decodeBody(t, rec)["inspection"].(map[string]any)
	reportID, _ := inspection["reportId"].(string)
	if !strings.HasPrefix(reportID, "RPT-") {
		t.Errorf("expected a generated RPT- report id, got %q", reportID)
	}
}

func TestHandleInspectionGet(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	inspection := testhelpers.CreateTestInspection(t, app, "RA-2025-0004", "4 Hill St")
	testhelpers.CreateTestSectionRecord(t, app, "moisture_readings", inspection.Id, map[string]any{
		"location": "Kitchen wall",
		"level":    22,
		"depth":    "Surface",
	})
	handler := HandleInspectionGet(app)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/inspections/"+inspection.Id, nil)
		req.SetPathValue("id", inspection.Id)
		rec := serve(t, app, handler, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		form, _ := decodeBody(t, rec)["inspection"].(map[string]any)
		readings, _ := form["moistureReadings"].([]any)
		if len(readings) != 1 {
			t.Errorf("expected 1 moisture reading, got %d", len(readings))
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/inspections/missing", nil)
		req.SetPathValue("id", "missing")
		rec := serve(t, app, handler, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandleClassificationPreview(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleClassificationPreview(app)

	advisory := testhelpers.CreateTestInspection(t, app, "RA-2025-0005", "5 Creek Rd")
	testhelpers.CreateTestSectionRecord(t, app, "affected_areas", advisory.Id, map[string]any{
		"room_type":    "Basement",
		"length":       12,
		"width":        10,
		"area":         120,
		"materials":    []string{"Concrete"},
		"water_source": "Sewage backup",
	})

	overridden := testhelpers.CreateTestInspection(t, app, "RA-2025-0006", "6 Creek Rd")
	overridden.Set("override_category", 2)
	if err := app.Save(overridden); err != nil {
		t.Fatalf("failed to save override: %v", err)
	}

	tests := []struct {
		name         string
		id           string
		wantCategory string
		wantClass    string
		wantAdvisory bool
	}{
		{"advisory preview", advisory.Id, "3", "3", true},
		{"override wins", overridden.Id, "2", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tt.id)
			rec := serve(t, app, handler, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}
			body := decodeBody(t, rec)
			c, _ := body["classification"].(map[string]any)
			if c["category"] != tt.wantCategory || c["class"] != tt.wantClass {
				t.Errorf("expected %s/%s, got %v/%v", tt.wantCategory, tt.wantClass, c["category"], c["class"])
			}
			if body["advisory"] != tt.wantAdvisory {
				t.Errorf("expected advisory=%v, got %v", tt.wantAdvisory, body["advisory"])
			}
		})
	}
}

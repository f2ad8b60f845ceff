package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"restoreassist/services"
	"restoreassist/testhelpers"
)

func newPricingForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/pricing", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

func TestHandlePricingPage(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	t.Run("anonymous", func(t *testing.T) {
		rec := serve(t, app, HandlePricingPage(app), httptest.NewRequest(http.MethodGet, "/pricing", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("free tier is read-only", func(t *testing.T) {
		req := asUser(t, app, httptest.NewRequest(http.MethodGet, "/pricing", nil), "page-free", services.TierFree, 0)
		rec := serve(t, app, HandlePricingPage(app), req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		testhelpers.AssertHTMLContains(t, rec.Body.String(), `id="upgrade-banner"`, "$95.00")
		testhelpers.AssertHTMLNotContains(t, rec.Body.String(), `<form method="post"`)
	})

	t.Run("pro tier gets the form", func(t *testing.T) {
		req := asUser(t, app, httptest.NewRequest(http.MethodGet, "/pricing", nil), "page-pro", services.TierPro, 0)
		rec := serve(t, app, HandlePricingPage(app), req)

		testhelpers.AssertHTMLContains(t, rec.Body.String(), `<form method="post"`, `name="labourer_rate"`, `name="custom.0.name"`)
		testhelpers.AssertHTMLNotContains(t, rec.Body.String(), `id="upgrade-banner"`)
	})
}

func TestHandlePricingSave_ReadOnlyTier(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := asUser(t, app, newPricingForm(url.Values{"labourer_rate": {"70"}}), "save-free", services.TierFree, 0)

	rec := serve(t, app, HandlePricingSave(app), req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected HX-Reswap: none on error")
	}
	if _, stored, _ := services.LoadPricingConfig(app, "save-free"); stored {
		t.Error("expected nothing to be stored")
	}
}

func TestHandlePricingSave_Valid(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	form := url.Values{}
	form.Set("master_technician_rate", "100")
	form.Set("qualified_technician_rate", "80")
	form.Set("labourer_rate", "60")
	form.Set("air_mover_daily", "35")
	form.Set("custom.0.category", "fees")
	form.Set("custom.0.name", " Parking ")
	form.Set("custom.0.value", "12.5")
	form.Set("custom.0.unit", "day")
	form.Set("custom.1.category", "")
	form.Set("custom.1.name", "")
	form.Set("custom.1.value", "")
	form.Set("csrf_token", "ignored")

	req := asUser(t, app, newPricingForm(form), "save-pro", services.TierPro, 0)
	rec := serve(t, app, HandlePricingSave(app), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "Pricing saved") {
		t.Errorf("expected success toast, got %q", rec.Header().Get("HX-Trigger"))
	}

	cfg, stored, err := services.LoadPricingConfig(app, "save-pro")
	if err != nil || !stored {
		t.Fatalf("expected stored config, err=%v", err)
	}
	if cfg.MasterTechnicianRate != 100 || cfg.LabourerRate != 60 || cfg.AirMoverDaily != 35 {
		t.Errorf("unexpected rates %+v", cfg)
	}
	if cfg.CalloutFee != 0 {
		t.Errorf("expected omitted callout fee to be zero, got %v", cfg.CalloutFee)
	}
	if len(cfg.CustomFields) != 1 {
		t.Fatalf("expected blank custom row to be dropped, got %d fields", len(cfg.CustomFields))
	}
	if got := cfg.CustomFields[0]; got.Name != "Parking" || got.Value != 12.5 || got.Category != services.CategoryFees {
		t.Errorf("unexpected custom field %+v", got)
	}
}

func TestHandlePricingSave_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name   string
		userID string
		form   url.Values
		want   string
	}{
		{
			name:   "negative rate",
			userID: "err-1",
			form:   url.Values{"labourer_rate": {"-5"}},
			want:   "must be no less than 0",
		},
		{
			name:   "not a number",
			userID: "err-2",
			form:   url.Values{"labourer_rate": {"abc"}},
			want:   "Enter a number",
		},
		{
			name:   "custom field without name",
			userID: "err-3",
			form:   url.Values{"custom.0.category": {"labour"}, "custom.0.value": {"40"}},
			want:   "cannot be blank",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(t, app, newPricingForm(tt.form), tt.userID, services.TierPro, 0)
			rec := serve(t, app, HandlePricingSave(app), req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected form to be re-rendered with 200, got %d", rec.Code)
			}
			testhelpers.AssertHTMLContains(t, rec.Body.String(), `class="error"`, tt.want)
			if !strings.Contains(rec.Header().Get("HX-Trigger"), ToastWarning) {
				t.Errorf("expected warning toast, got %q", rec.Header().Get("HX-Trigger"))
			}
			if _, stored, _ := services.LoadPricingConfig(app, tt.userID); stored {
				t.Error("expected nothing to be stored")
			}
		})
	}
}

func TestPricingErrorKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"labourer_rate", "labourerRate"},
		{"custom.2.value", "customFields.2.value"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := pricingErrorKey(tt.in); got != tt.want {
			t.Errorf("pricingErrorKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

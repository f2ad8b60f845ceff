package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pocketbase/pocketbase/core"
)

func newToastEvent() (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	return e, rec
}

// triggerEvents parses the HX-Trigger header of rec.
func triggerEvents(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger is not a JSON object: %v (%q)", err, raw)
	}
	return events
}

func shownToast(t *testing.T, rec *httptest.ResponseRecorder) toast {
	t.Helper()
	raw, ok := triggerEvents(t, rec)["showToast"]
	if !ok {
		t.Fatal("expected showToast event")
	}
	var got toast
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("showToast is not valid JSON: %v", err)
	}
	return got
}

func TestSetToast(t *testing.T) {
	tests := []struct {
		name      string
		toastType string
		message   string
	}{
		{"success", ToastSuccess, "Pricing saved"},
		{"error", ToastError, "Could not save affected area"},
		{"info", ToastInfo, "Sample data loaded"},
		{"warning", ToastWarning, "Please fix the errors below"},
		{"quotes", ToastInfo, `Room "Kitchen" saved`},
		{"markup", ToastInfo, `<script>alert("x")</script>`},
		{"newline", ToastInfo, "line1\nline2"},
		{"unicode", ToastInfo, "Saved ✔"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent()
			SetToast(e, tt.toastType, tt.message)

			got := shownToast(t, rec)
			if got.Type != tt.toastType || got.Message != tt.message {
				t.Errorf("expected %s %q, got %s %q", tt.toastType, tt.message, got.Type, got.Message)
			}
		})
	}
}

func TestSetToast_ExistingTrigger(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		wantEvent string
	}{
		{"merges with other events", `{"scopeSaved":{"id":"abc"}}`, "scopeSaved"},
		{"replaces previous toast", `{"showToast":{"message":"old","type":"info"}}`, ""},
		{"replaces invalid value", "notJSON", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent()
			rec.Header().Set("HX-Trigger", tt.existing)

			SetToast(e, ToastSuccess, "Report generated")

			events := triggerEvents(t, rec)
			if tt.wantEvent != "" {
				if _, ok := events[tt.wantEvent]; !ok {
					t.Errorf("expected %s to be kept, got %v", tt.wantEvent, events)
				}
			}
			if got := shownToast(t, rec); got.Message != "Report generated" {
				t.Errorf("expected new toast, got %+v", got)
			}
		})
	}
}

func TestSetToast_FlashCookie(t *testing.T) {
	e, rec := newToastEvent()
	SetToast(e, ToastSuccess, "Report generated")

	var flash *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			flash = c
		}
	}
	if flash == nil {
		t.Fatal("expected flash_toast cookie")
	}
	raw, err := url.QueryUnescape(flash.Value)
	if err != nil {
		t.Fatalf("cookie value is not query-escaped: %v", err)
	}
	var got toast
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("cookie value is not JSON: %v", err)
	}
	if got.Message != "Report generated" || got.Type != ToastSuccess {
		t.Errorf("unexpected flash toast %+v", got)
	}
	if flash.MaxAge != 10 || flash.Path != "/" {
		t.Errorf("unexpected cookie attributes: max-age %d, path %q", flash.MaxAge, flash.Path)
	}
}

func TestErrorToast(t *testing.T) {
	tests := []struct {
		name string
		code int
		msg  string
	}{
		{"unauthorized", http.StatusUnauthorized, "Sign in to edit pricing"},
		{"forbidden", http.StatusForbidden, "Upgrade your plan to edit pricing"},
		{"bad request", http.StatusBadRequest, "Invalid form data"},
		{"server error", http.StatusInternalServerError, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent()

			if err := ErrorToast(e, tt.code, tt.msg); err != nil {
				t.Fatalf("ErrorToast returned error: %v", err)
			}
			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
			if rec.Body.String() != tt.msg {
				t.Errorf("expected body %q, got %q", tt.msg, rec.Body.String())
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("expected HX-Reswap: none")
			}
			if got := shownToast(t, rec); got.Type != ToastError || got.Message != tt.msg {
				t.Errorf("unexpected toast %+v", got)
			}
		})
	}
}

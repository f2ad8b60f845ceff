package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restoreassist/services"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "tok", 2*time.Second)
}

func TestClient_Disabled(t *testing.T) {
	c := New("", "", time.Second)
	if c.Enabled() {
		t.Fatal("client without URL should be disabled")
	}
	ctx := context.Background()
	if _, err := c.Analyze(ctx, "text"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Analyze err = %v, want ErrDisabled", err)
	}
	if _, err := c.Generate(ctx, GenerateRequest{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Generate err = %v, want ErrDisabled", err)
	}
	if _, err := c.Classify(ctx, services.InspectionForm{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Classify err = %v, want ErrDisabled", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Error("nil client should be disabled")
	}
}

func TestAnalyze_MapsWireDocument(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"report_grade":4,"service_type":"Water Damage","summary":"ok","detected_standards":["IICRC S500"]}`))
	})

	a, err := c.Analyze(context.Background(), "burst pipe, water everywhere")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if gotPath != "/analyze" {
		t.Errorf("path = %q, want /analyze", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["text"] != "burst pipe, water everywhere" {
		t.Errorf("text = %q", gotBody["text"])
	}
	if a.ReportGrade != 4 || a.ServiceType != "Water Damage" {
		t.Errorf("analysis = %+v", a)
	}
	if len(a.DetectedStandards) != 1 {
		t.Errorf("standards = %v", a.DetectedStandards)
	}
	if a.Sections == nil || a.Questions == nil || a.Hazards == nil {
		t.Error("missing lists should be normalized to empty slices")
	}
}

func TestAnalyze_ErrorStatus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing text parameter"}`))
	})

	_, err := c.Analyze(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "Missing text parameter") {
		t.Errorf("error %q should carry the service message", err)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "", 20*time.Millisecond)
	if _, err := c.Analyze(context.Background(), "x"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestGenerate_ValidatesDocument(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"reportId":"R1","header":{"reportNumber":"R1"},"property":{"address":"1 Main St"}}`, false},
		{"missing address", `{"header":{"reportNumber":"R1"},"property":{}}`, true},
		{"not json", `<html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/generate" {
					t.Errorf("path = %q", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			})
			report, err := c.Generate(context.Background(), GenerateRequest{
				Inspection: services.InspectionForm{ReportID: "R1"},
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && report.Property.Address != "1 Main St" {
				t.Errorf("address = %q", report.Property.Address)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"category":"2","class":"3"}`, false},
		{"out of range", `{"category":"5","class":"3"}`, true},
		{"blank", `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.Classify(context.Background(), services.InspectionForm{ReportID: "R1"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Source != services.ClassificationSourceService || got.Advisory {
				t.Errorf("classification = %+v, want service-sourced and not advisory", got)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	short := "short report"
	if got := TruncateText(short); got != short {
		t.Errorf("TruncateText(short) = %q", got)
	}

	long := strings.Repeat("a", maxAnalyzeChars+10)
	got := TruncateText(long)
	if !strings.HasSuffix(got, truncatedMarker) {
		t.Error("truncated text should end with the marker")
	}
	if len(got) != maxAnalyzeChars+len(truncatedMarker) {
		t.Errorf("len = %d, want %d", len(got), maxAnalyzeChars+len(truncatedMarker))
	}
}

// Package aiclient talks to the external report-analysis service. Every call
// has a deadline; callers fall back to local rules when the service is not
// configured or fails.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"restoreassist/services"
)

// ErrDisabled is returned by every call when no service URL is configured.
var ErrDisabled = errors.New("ai service not configured")

// Texts longer than this are truncated before analysis.
const maxAnalyzeChars = 16000

const truncatedMarker = "\n\n[Text truncated for analysis...]"

// Client is a JSON client for the analysis service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for baseURL. An empty baseURL yields a disabled client.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the client has a service to talk to.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// analysisWire is the service's snake_case analysis document.
type analysisWire struct {
	ReportGrade       int      `json:"report_grade"`
	ServiceType       string   `json:"service_type"`
	Summary           string   `json:"summary"`
	Sections          []string `json:"sections"`
	Hazards           []string `json:"hazards"`
	DetectedStandards []string `json:"detected_standards"`
	Questions         []string `json:"questions"`
}

// Analyze asks the service for a structured analysis of a technician report.
func (c *Client) Analyze(ctx context.Context, text string) (services.Analysis, error) {
	if !c.Enabled() {
		return services.Analysis{}, ErrDisabled
	}
	var wire analysisWire
	if err := c.post(ctx, "/analyze", map[string]string{"text": TruncateText(text)}, &wire); err != nil {
		return services.Analysis{}, err
	}
	a := services.Analysis{
		ReportGrade:       wire.ReportGrade,
		ServiceType:       wire.ServiceType,
		Summary:           wire.Summary,
		Sections:          wire.Sections,
		Hazards:           wire.Hazards,
		DetectedStandards: wire.DetectedStandards,
		Questions:         wire.Questions,
	}
	a.Normalize()
	return a, nil
}

// GenerateRequest is the input of a report generation call.
type GenerateRequest struct {
	Inspection services.InspectionForm `json:"inspection"`
	Scope      *services.ScopeSummary  `json:"scope,omitempty"`
}

// Generate asks the service to write the report document for an inspection.
// The returned document is validated before use.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*services.Report, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/generate", req, &raw); err != nil {
		return nil, err
	}
	report, err := services.ParseReport(raw)
	if err != nil {
		return nil, fmt.Errorf("ai service returned an invalid report: %w", err)
	}
	return report, nil
}

// classificationWire is the service's classification result.
type classificationWire struct {
	Category string `json:"category"`
	Class    string `json:"class"`
}

// Classify asks the service for the classification of record of a submitted
// inspection.
func (c *Client) Classify(ctx context.Context, form services.InspectionForm) (services.Classification, error) {
	if !c.Enabled() {
		return services.Classification{}, ErrDisabled
	}
	var wire classificationWire
	if err := c.post(ctx, "/classify", form, &wire); err != nil {
		return services.Classification{}, err
	}
	if err := services.ValidateClassification(wire.Category, wire.Class); err != nil {
		return services.Classification{}, fmt.Errorf("ai service returned an invalid classification: %w", err)
	}
	return services.Classification{
		Category: wire.Category,
		Class:    wire.Class,
		Source:   services.ClassificationSourceService,
	}, nil
}

// TruncateText caps text at the analysis limit, marking the cut.
func TruncateText(text string) string {
	runes := []rune(text)
	if len(runes) <= maxAnalyzeChars {
		return text
	}
	return string(runes[:maxAnalyzeChars]) + truncatedMarker
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ai service %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("ai service %s: read body: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return fmt.Errorf("ai service %s: %d %s", path, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ai service %s: decode response: %w", path, err)
	}
	return nil
}

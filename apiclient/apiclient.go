// Package apiclient is a typed JSON client for the inspection API, used by
// the intake controller and command-line tools.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"restoreassist/services"
)

// DefaultTimeout bounds every request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client calls the API at baseURL on behalf of one user.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUser sends userID in the X-User-Id header.
func WithUser(userID string) Option {
	return func(c *Client) { c.userID = userID }
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateInspectionRequest is the body of an inspection create.
type CreateInspectionRequest struct {
	ReportID         string `json:"reportId,omitempty"`
	PropertyAddress  string `json:"propertyAddress"`
	PropertyPostcode string `json:"propertyPostcode"`
	TechnicianName   string `json:"technicianName,omitempty"`
}

// SubmitRequest carries the fields only sent with the final submission.
type SubmitRequest struct {
	Override   services.ClassificationOverride `json:"override"`
	Equipment  []services.EquipmentItem        `json:"equipment,omitempty"`
	DryingDays int                             `json:"dryingDays"`
}

// SubmitResult is the response to a submission. Classification is nil when
// no classifier ran.
type SubmitResult struct {
	Inspection     services.InspectionForm  `json:"inspection"`
	Classification *services.Classification `json:"classification"`
}

// PreviewResult is the advisory classification of an inspection.
type PreviewResult struct {
	Classification services.Classification `json:"classification"`
	TotalArea      float64                 `json:"totalArea"`
	Advisory       bool                    `json:"advisory"`
}

// Health reports whether the API is up and the AI service configured.
func (c *Client) Health(ctx context.Context) (aiEnabled bool, err error) {
	var out struct {
		Status    string `json:"status"`
		AIEnabled bool   `json:"aiEnabled"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return false, err
	}
	return out.AIEnabled, nil
}

// LookupInspection returns the inspection for reportID, or nil when none
// exists yet.
func (c *Client) LookupInspection(ctx context.Context, reportID string) (*services.InspectionForm, error) {
	var out struct {
		Inspection *services.InspectionForm `json:"inspection"`
	}
	path := "/api/inspections?reportId=" + url.QueryEscape(reportID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Inspection, nil
}

// CreateInspection creates the inspection, or returns the existing one for
// the same report ID.
func (c *Client) CreateInspection(ctx context.Context, req CreateInspectionRequest) (*services.InspectionForm, error) {
	var out struct {
		Inspection services.InspectionForm `json:"inspection"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/inspections", req, &out); err != nil {
		return nil, err
	}
	return &out.Inspection, nil
}

// GetInspection returns an inspection with all sections.
func (c *Client) GetInspection(ctx context.Context, id string) (*services.InspectionForm, error) {
	var out struct {
		Inspection services.InspectionForm `json:"inspection"`
	}
	if err := c.do(ctx, http.MethodGet, inspectionPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out.Inspection, nil
}

// AddEnvironmental appends an environmental reading.
func (c *Client) AddEnvironmental(ctx context.Context, id string, r services.EnvironmentalReading) (services.EnvironmentalReading, error) {
	var out struct {
		Reading services.EnvironmentalReading `json:"reading"`
	}
	err := c.do(ctx, http.MethodPost, inspectionPath(id, "/environmental"), r, &out)
	return out.Reading, err
}

// AddMoisture appends a moisture reading.
func (c *Client) AddMoisture(ctx context.Context, id string, r services.MoistureReading) (services.MoistureReading, error) {
	var out struct {
		Reading services.MoistureReading `json:"reading"`
	}
	err := c.do(ctx, http.MethodPost, inspectionPath(id, "/moisture"), r, &out)
	return out.Reading, err
}

// AddAffectedArea appends an affected area.
func (c *Client) AddAffectedArea(ctx context.Context, id string, a services.AffectedArea) (services.AffectedArea, error) {
	var out struct {
		Area services.AffectedArea `json:"area"`
	}
	err := c.do(ctx, http.MethodPost, inspectionPath(id, "/affected-areas"), a, &out)
	return out.Area, err
}

// AddScopeItem appends a scope item.
func (c *Client) AddScopeItem(ctx context.Context, id string, s services.ScopeItem) (services.ScopeItem, error) {
	var out struct {
		Item services.ScopeItem `json:"item"`
	}
	err := c.do(ctx, http.MethodPost, inspectionPath(id, "/scope-items"), s, &out)
	return out.Item, err
}

// AddEquipment appends deployed equipment.
func (c *Client) AddEquipment(ctx context.Context, id string, e services.EquipmentItem) (services.EquipmentItem, error) {
	var out struct {
		Equipment services.EquipmentItem `json:"equipment"`
	}
	err := c.do(ctx, http.MethodPost, inspectionPath(id, "/equipment"), e, &out)
	return out.Equipment, err
}

// UploadPhoto uploads one site photo and returns it with its URL.
func (c *Client) UploadPhoto(ctx context.Context, id, fileName string, content io.Reader, location, category string) (services.Photo, error) {
	fields := map[string]string{"location": location, "category": category}
	body, contentType, err := multipartBody(fields, "image", fileName, content)
	if err != nil {
		return services.Photo{}, err
	}
	var out struct {
		Photo services.Photo `json:"photo"`
	}
	err = c.send(ctx, http.MethodPost, inspectionPath(id, "/photos"), body, contentType, &out)
	return out.Photo, err
}

// UploadFloorPlan stores the floor plan. With a nil content only the points
// are replaced and the stored image is kept.
func (c *Client) UploadFloorPlan(ctx context.Context, id, fileName string, content io.Reader, points []services.FloorPlanPoint) (services.FloorPlan, error) {
	if points == nil {
		points = []services.FloorPlanPoint{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return services.FloorPlan{}, fmt.Errorf("encode floor plan points: %w", err)
	}

	method := http.MethodPost
	fileField := "image"
	if content == nil {
		method = http.MethodPut
		fileField = ""
	}
	body, contentType, err := multipartBody(map[string]string{"points": string(raw)}, fileField, fileName, content)
	if err != nil {
		return services.FloorPlan{}, err
	}
	var out struct {
		FloorPlan services.FloorPlan `json:"floorPlan"`
	}
	err = c.send(ctx, method, inspectionPath(id, "/floor-plan"), body, contentType, &out)
	return out.FloorPlan, err
}

// ClassificationPreview returns the advisory classification.
func (c *Client) ClassificationPreview(ctx context.Context, id string) (PreviewResult, error) {
	var out PreviewResult
	err := c.do(ctx, http.MethodGet, inspectionPath(id, "/classification-preview"), nil, &out)
	return out, err
}

// Submit finalises the inspection.
func (c *Client) Submit(ctx context.Context, id string, req SubmitRequest) (*SubmitResult, error) {
	var out SubmitResult
	if err := c.do(ctx, http.MethodPost, inspectionPath(id, "/submit"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuickFillCredits returns the caller's remaining Quick Fill credits.
func (c *Client) QuickFillCredits(ctx context.Context) (int, error) {
	var out struct {
		Credits int `json:"credits"`
	}
	err := c.do(ctx, http.MethodGet, "/api/user/quick-fill-credits", nil, &out)
	return out.Credits, err
}

// ConsumeQuickFill spends one credit and returns the sample form and the
// credits left. With none left the error is an *APIError with status 402.
func (c *Client) ConsumeQuickFill(ctx context.Context) (services.InspectionForm, int, error) {
	var out struct {
		Credits int                     `json:"credits"`
		Data    services.InspectionForm `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/api/user/quick-fill-credits", nil, &out)
	return out.Data, out.Credits, err
}

// PricingConfig returns the caller's pricing and whether they may edit it.
func (c *Client) PricingConfig(ctx context.Context) (services.PricingConfig, bool, error) {
	var out struct {
		Config  services.PricingConfig `json:"config"`
		CanEdit bool                   `json:"canEdit"`
	}
	err := c.do(ctx, http.MethodGet, "/api/pricing-config", nil, &out)
	return out.Config, out.CanEdit, err
}

// SaveScope upserts a scope and returns it with the server-computed summary.
func (c *Client) SaveScope(ctx context.Context, draft services.ScopeDraft) (*services.SavedScope, error) {
	var out struct {
		Scope services.SavedScope `json:"scope"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/scopes", draft, &out); err != nil {
		return nil, err
	}
	return &out.Scope, nil
}

// GenerateReport asks the server to build and store the report for a report
// number.
func (c *Client) GenerateReport(ctx context.Context, reportID, notes string) (*services.Report, error) {
	var out struct {
		Report services.Report `json:"report"`
	}
	body := map[string]string{"reportId": reportID, "notes": notes}
	if err := c.do(ctx, http.MethodPost, "/api/reports/generate-enhanced", body, &out); err != nil {
		return nil, err
	}
	return &out.Report, nil
}

func inspectionPath(id, suffix string) string {
	return "/api/inspections/" + url.PathEscape(id) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// newAPIError extracts the best message available: "error", then
// "message", then the status text.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var payload struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return apiErr
	}
	switch {
	case payload.Error != "":
		apiErr.Message = payload.Error
	case payload.Message != "":
		apiErr.Message = payload.Message
	}
	apiErr.Fields = payload.Fields
	return apiErr
}

func multipartBody(fields map[string]string, fileField, fileName string, content io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if fileField != "" && content != nil {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, content); err != nil {
			return nil, "", fmt.Errorf("copy form file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

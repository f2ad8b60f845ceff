package intake

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"restoreassist/apiclient"
	"restoreassist/services"
)

// fakeAPI records every call and can be told to fail specific operations.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []string
	failOn   map[string]error
	credits  int
	creates  atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32

	createDelay time.Duration
	uploadDelay time.Duration
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failOn: map[string]error{}, credits: 1}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) CreateInspection(_ context.Context, req apiclient.CreateInspectionRequest) (*services.InspectionForm, error) {
	f.creates.Add(1)
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}
	if err := f.record("create"); err != nil {
		return nil, err
	}
	reportID := req.ReportID
	if reportID == "" {
		reportID = "RPT-25-26-0001"
	}
	return &services.InspectionForm{
		ID:               "insp1",
		ReportID:         reportID,
		Status:           services.InspectionStatusDraft,
		PropertyAddress:  req.PropertyAddress,
		PropertyPostcode: req.PropertyPostcode,
	}, nil
}

func (f *fakeAPI) AddEnvironmental(_ context.Context, _ string, r services.EnvironmentalReading) (services.EnvironmentalReading, error) {
	r.ID = "env1"
	return r, f.record("environmental")
}

func (f *fakeAPI) AddMoisture(_ context.Context, _ string, r services.MoistureReading) (services.MoistureReading, error) {
	return r, f.record("moisture:" + r.Location)
}

func (f *fakeAPI) AddAffectedArea(_ context.Context, _ string, a services.AffectedArea) (services.AffectedArea, error) {
	return a, f.record("area:" + a.RoomType)
}

func (f *fakeAPI) AddScopeItem(_ context.Context, _ string, s services.ScopeItem) (services.ScopeItem, error) {
	return s, f.record("scope:" + s.ItemType)
}

func (f *fakeAPI) UploadPhoto(_ context.Context, _ string, fileName string, content io.Reader, location, category string) (services.Photo, error) {
	n := f.inFlight.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	defer f.inFlight.Add(-1)
	if f.uploadDelay > 0 {
		time.Sleep(f.uploadDelay)
	}
	if _, err := io.ReadAll(content); err != nil {
		return services.Photo{}, err
	}
	if err := f.record("photo:" + fileName); err != nil {
		return services.Photo{}, err
	}
	return services.Photo{ID: "srv-" + fileName, URL: "/api/files/photos/" + fileName, Location: location, Category: category}, nil
}

func (f *fakeAPI) UploadFloorPlan(_ context.Context, _ string, fileName string, content io.Reader, points []services.FloorPlanPoint) (services.FloorPlan, error) {
	call := "floorplan:points"
	if content != nil {
		call = "floorplan:" + fileName
	}
	if err := f.record(call); err != nil {
		return services.FloorPlan{}, err
	}
	return services.FloorPlan{ImageURL: "/api/files/plan.png", Points: points}, nil
}

func (f *fakeAPI) Submit(_ context.Context, id string, req apiclient.SubmitRequest) (*apiclient.SubmitResult, error) {
	if err := f.record("submit"); err != nil {
		return nil, err
	}
	cl := services.ApplyOverride(services.Classification{Category: "2", Class: "2", Source: services.ClassificationSourceService}, req.Override)
	return &apiclient.SubmitResult{
		Inspection:     services.InspectionForm{ID: id, Status: services.InspectionStatusClassified},
		Classification: &cl,
	}, nil
}

func (f *fakeAPI) QuickFillCredits(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credits, nil
}

func (f *fakeAPI) ConsumeQuickFill(context.Context) (services.InspectionForm, int, error) {
	if err := f.record("quickfill"); err != nil {
		return services.InspectionForm{}, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits--
	return services.QuickFillSample(), f.credits, nil
}

// toastLog collects notifications.
type toastLog struct {
	mu     sync.Mutex
	toasts []string
}

func (l *toastLog) Notify(kind, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toasts = append(l.toasts, kind+": "+message)
}

func (l *toastLog) All() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.toasts...)
}

func (l *toastLog) Has(fragment string) bool {
	for _, t := range l.All() {
		if strings.Contains(t, fragment) {
			return true
		}
	}
	return false
}

const testDebounce = 20 * time.Millisecond

func newTestController(t *testing.T, api *fakeAPI) (*Controller, *toastLog) {
	t.Helper()
	toasts := &toastLog{}
	c := New(api, WithDebounce(testDebounce), WithNotifier(toasts), WithUploadLimit(2))
	t.Cleanup(c.Close)
	return c, toasts
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func createdController(t *testing.T, api *fakeAPI) (*Controller, *toastLog) {
	t.Helper()
	c, toasts := newTestController(t, api)
	c.SetPropertyAddress("1 Test St")
	c.SetPropertyPostcode("2000")
	waitFor(t, "inspection create", func() bool { return c.InspectionID() != "" })
	return c, toasts
}

// ---------------------------------------------------------------------------
// Auto-create
// ---------------------------------------------------------------------------

func TestAutoCreate_DebouncesAndCreatesOnce(t *testing.T) {
	api := newFakeAPI()
	c, toasts := newTestController(t, api)

	for _, s := range []string{"1", "1 T", "1 Test", "1 Test St"} {
		c.SetPropertyAddress(s)
	}
	c.SetPropertyPostcode(" 2000 ")

	waitFor(t, "inspection create", func() bool { return c.InspectionID() != "" })

	// Further edits after creation must not create again.
	c.SetPropertyAddress("2 Other St")
	time.Sleep(3 * testDebounce)

	if got := api.creates.Load(); got != 1 {
		t.Errorf("expected 1 create, got %d", got)
	}
	form := c.Form()
	if form.ReportID != "RPT-25-26-0001" {
		t.Errorf("expected report id from server, got %q", form.ReportID)
	}
	if !toasts.Has("success: Inspection RPT-25-26-0001 created") {
		t.Errorf("expected create toast, got %v", toasts.All())
	}
}

func TestAutoCreate_Skipped(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		postcode string
	}{
		{"missing postcode", "1 Test St", ""},
		{"blank address", "   ", "2000"},
		{"both blank", "", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			c, _ := newTestController(t, api)
			c.SetPropertyAddress(tt.address)
			c.SetPropertyPostcode(tt.postcode)
			time.Sleep(4 * testDebounce)

			if got := api.creates.Load(); got != 0 {
				t.Errorf("expected no create, got %d", got)
			}
			if c.InspectionID() != "" {
				t.Errorf("expected no inspection id, got %q", c.InspectionID())
			}
		})
	}
}

func TestAutoCreate_NotStartedWhileInFlight(t *testing.T) {
	api := newFakeAPI()
	api.createDelay = 5 * testDebounce
	c, _ := newTestController(t, api)

	c.SetPropertyAddress("1 Test St")
	c.SetPropertyPostcode("2000")
	waitFor(t, "create to start", func() bool { return api.creates.Load() == 1 })

	// An edit while the create is running fires the timer again.
	c.SetPropertyPostcode("2001")
	waitFor(t, "inspection create", func() bool { return c.InspectionID() != "" })
	time.Sleep(2 * testDebounce)

	if got := api.creates.Load(); got != 1 {
		t.Errorf("expected 1 create, got %d", got)
	}
}

func TestAutoCreate_FailureToasts(t *testing.T) {
	api := newFakeAPI()
	api.failOn["create"] = errors.New("boom")
	c, toasts := newTestController(t, api)

	c.SetPropertyAddress("1 Test St")
	c.SetPropertyPostcode("2000")
	waitFor(t, "error toast", func() bool { return toasts.Has("error: Could not create the inspection") })

	if c.InspectionID() != "" {
		t.Errorf("expected no inspection id after failure")
	}
}

func TestClose_StopsPendingCreate(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(t, api)

	c.SetPropertyAddress("1 Test St")
	c.SetPropertyPostcode("2000")
	c.Close()
	time.Sleep(4 * testDebounce)

	if got := api.creates.Load(); got != 0 {
		t.Errorf("expected no create after Close, got %d", got)
	}
}

// ---------------------------------------------------------------------------
// Derived fields and optimistic edits
// ---------------------------------------------------------------------------

func TestSetEnvironmental_DerivesDewPoint(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())
	c.SetEnvironmental(25, 60, true)

	env := c.Form().Environmental
	if env.DewPoint != 17 {
		t.Errorf("expected dew point 17, got %v", env.DewPoint)
	}
	if !env.AirCirculation {
		t.Errorf("expected air circulation to be kept")
	}
}

func TestAffectedArea_AddResizeRemove(t *testing.T) {
	c, toasts := newTestController(t, newFakeAPI())

	id, err := c.AddAffectedArea(services.AffectedArea{
		RoomType: " Kitchen ", Length: 4, Width: 3, Materials: []string{"Carpet"},
	})
	if err != nil {
		t.Fatalf("AddAffectedArea: %v", err)
	}
	if !IsTemporaryID(id) {
		t.Errorf("expected temporary id, got %q", id)
	}
	if got := c.TotalArea(); got != 12 {
		t.Errorf("expected area 12, got %v", got)
	}

	if !c.SetAreaDimensions(id, 5, 3) {
		t.Fatalf("SetAreaDimensions returned false")
	}
	if got := c.Form().AffectedAreas[0].Area; got != 15 {
		t.Errorf("expected area 15 after resize, got %v", got)
	}
	if c.Form().AffectedAreas[0].RoomType != "Kitchen" {
		t.Errorf("expected trimmed room type")
	}

	if !c.RemoveAffectedArea(id) {
		t.Fatalf("RemoveAffectedArea returned false")
	}
	if c.RemoveAffectedArea(id) {
		t.Errorf("second remove should report false")
	}
	if len(c.Form().AffectedAreas) != 0 {
		t.Errorf("expected no areas")
	}
	if !toasts.Has("success: Affected area added") || !toasts.Has("info: Affected area removed") {
		t.Errorf("expected add and remove toasts, got %v", toasts.All())
	}
}

func TestAddEntries_Validation(t *testing.T) {
	c, toasts := newTestController(t, newFakeAPI())

	tests := []struct {
		name  string
		add   func() (string, error)
		toast string
	}{
		{"moisture without location", func() (string, error) {
			return c.AddMoistureReading(services.MoistureReading{Location: "  ", Level: 10})
		}, "Check the moisture reading"},
		{"moisture out of range", func() (string, error) {
			return c.AddMoistureReading(services.MoistureReading{Location: "Wall", Level: 140})
		}, "Check the moisture reading"},
		{"area without materials", func() (string, error) {
			return c.AddAffectedArea(services.AffectedArea{RoomType: "Hall", Length: 2, Width: 2})
		}, "Check the affected area"},
		{"equipment without quantity", func() (string, error) {
			return c.AddEquipment(services.EquipmentItem{Type: services.EquipmentAirMover})
		}, "Check the equipment entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.add()
			if err == nil {
				t.Fatalf("expected validation error, got id %q", id)
			}
			if !toasts.Has("error: " + tt.toast) {
				t.Errorf("expected toast %q, got %v", tt.toast, toasts.All())
			}
		})
	}

	form := c.Form()
	if len(form.MoistureReadings)+len(form.AffectedAreas)+len(form.Equipment) != 0 {
		t.Errorf("invalid entries must not be added: %+v", form)
	}
}

func TestMoistureAndEquipment_AddRemove(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())

	mid, err := c.AddMoistureReading(services.MoistureReading{Location: "Wall", Level: 22})
	if err != nil {
		t.Fatalf("AddMoistureReading: %v", err)
	}
	if got := c.Form().MoistureReadings[0].Depth; got != services.DepthSurface {
		t.Errorf("expected default depth Surface, got %q", got)
	}
	eid, err := c.AddEquipment(services.EquipmentItem{Type: services.EquipmentAirMover, Quantity: 3})
	if err != nil {
		t.Fatalf("AddEquipment: %v", err)
	}
	if mid == eid {
		t.Errorf("expected distinct temporary ids")
	}

	if !c.RemoveMoistureReading(mid) || !c.RemoveEquipment(eid) {
		t.Fatalf("expected both removes to succeed")
	}
	form := c.Form()
	if len(form.MoistureReadings) != 0 || len(form.Equipment) != 0 {
		t.Errorf("expected empty lists, got %+v", form)
	}
}

func TestSetScopeItem(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())

	if err := c.SetScopeItem("extract_water", "Extract water", true); err != nil {
		t.Fatalf("SetScopeItem: %v", err)
	}
	if err := c.SetScopeItem("extract_water", "Extract standing water", true); err != nil {
		t.Fatalf("SetScopeItem: %v", err)
	}
	if err := c.SetScopeItem("antimicrobial", "", true); err != nil {
		t.Fatalf("SetScopeItem: %v", err)
	}
	items := c.Form().ScopeItems
	if len(items) != 2 || items[0].Description != "Extract standing water" {
		t.Fatalf("unexpected scope items: %+v", items)
	}

	if err := c.SetScopeItem("extract_water", "", false); err != nil {
		t.Fatalf("SetScopeItem: %v", err)
	}
	items = c.Form().ScopeItems
	if len(items) != 1 || items[0].ItemType != "antimicrobial" {
		t.Errorf("expected only antimicrobial, got %+v", items)
	}

	if err := c.SetScopeItem(" ", "", true); err == nil {
		t.Errorf("expected error for blank item type")
	}
}

func TestPreview_AppliesOverride(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())
	if _, err := c.AddAffectedArea(services.AffectedArea{
		RoomType: "Basement", Length: 12, Width: 10, Materials: []string{"Concrete"}, WaterSource: "Sewage backup",
	}); err != nil {
		t.Fatalf("AddAffectedArea: %v", err)
	}

	got := c.Preview()
	if got.Category != "3" || got.Class != "3" || !got.Advisory {
		t.Errorf("unexpected preview: %+v", got)
	}

	if err := c.SetOverride(services.ClassificationOverride{Category: 5}); err == nil {
		t.Errorf("expected out-of-range override to fail")
	}
	if err := c.SetOverride(services.ClassificationOverride{Class: 4}); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	got = c.Preview()
	if got.Category != "3" || got.Class != "4" || got.Source != services.ClassificationSourceOverride {
		t.Errorf("unexpected overridden preview: %+v", got)
	}
}

func TestForm_ReturnsCopy(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())
	if _, err := c.AddAffectedArea(services.AffectedArea{
		RoomType: "Hall", Length: 2, Width: 2, Materials: []string{"Tile"},
	}); err != nil {
		t.Fatalf("AddAffectedArea: %v", err)
	}

	form := c.Form()
	form.AffectedAreas[0].Materials[0] = "Changed"
	form.AffectedAreas = nil

	again := c.Form()
	if len(again.AffectedAreas) != 1 || again.AffectedAreas[0].Materials[0] != "Tile" {
		t.Errorf("controller state was mutated through Form(): %+v", again.AffectedAreas)
	}
}

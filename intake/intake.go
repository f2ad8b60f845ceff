// Package intake drives the inspection form on the client side: it holds the
// technician's in-progress form, creates the inspection once an address is
// known, uploads photos and performs the final ordered submission against the
// HTTP API.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"restoreassist/apiclient"
	"restoreassist/services"
)

// DefaultDebounce is how long address edits must settle before the inspection
// is created.
const DefaultDebounce = 1500 * time.Millisecond

// DefaultUploadLimit bounds the number of photo uploads in flight.
const DefaultUploadLimit = 4

// tmpPrefix marks identifiers assigned locally before the server has seen the
// entry.
const tmpPrefix = "tmp-"

var (
	// ErrNoInspection is returned by operations that need the inspection to
	// exist on the server.
	ErrNoInspection = errors.New("intake: inspection has not been created yet")
	// ErrSubmitting is returned when Submit is called while a submission is
	// already running.
	ErrSubmitting = errors.New("intake: submission already in progress")
	// ErrNoCredits is returned by QuickFill when the account has no credits.
	ErrNoCredits = errors.New("intake: no quick fill credits remaining")
)

// ValidationError is returned by Submit when the form is incomplete. No
// request is made in that case.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "intake: " + services.FirstError(e.Fields)
}

// API is the subset of the HTTP client the controller needs.
// *apiclient.Client satisfies it.
type API interface {
	CreateInspection(ctx context.Context, req apiclient.CreateInspectionRequest) (*services.InspectionForm, error)
	AddEnvironmental(ctx context.Context, id string, r services.EnvironmentalReading) (services.EnvironmentalReading, error)
	AddMoisture(ctx context.Context, id string, r services.MoistureReading) (services.MoistureReading, error)
	AddAffectedArea(ctx context.Context, id string, a services.AffectedArea) (services.AffectedArea, error)
	AddScopeItem(ctx context.Context, id string, s services.ScopeItem) (services.ScopeItem, error)
	UploadPhoto(ctx context.Context, id, fileName string, content io.Reader, location, category string) (services.Photo, error)
	UploadFloorPlan(ctx context.Context, id, fileName string, content io.Reader, points []services.FloorPlanPoint) (services.FloorPlan, error)
	Submit(ctx context.Context, id string, req apiclient.SubmitRequest) (*apiclient.SubmitResult, error)
	QuickFillCredits(ctx context.Context) (int, error)
	ConsumeQuickFill(ctx context.Context) (services.InspectionForm, int, error)
}

// Toast kinds passed to a Notifier.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
	ToastWarning = "warning"
)

// Notifier receives the user-facing messages the controller emits.
type Notifier interface {
	Notify(kind, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(kind, message string)

// Notify calls f(kind, message).
func (f NotifierFunc) Notify(kind, message string) { f(kind, message) }

// logNotifier writes toasts to the log when no UI is attached.
type logNotifier struct{}

func (logNotifier) Notify(kind, message string) {
	entry := log.WithField("toast", kind)
	switch kind {
	case ToastError:
		entry.Error(message)
	case ToastWarning:
		entry.Warn(message)
	default:
		entry.Info(message)
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithUploadLimit overrides DefaultUploadLimit.
func WithUploadLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.uploadLimit = n
		}
	}
}

// WithNotifier sets where toasts go. The default logs them.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// pendingFloorPlan is a floor plan chosen locally and sent with the submission.
type pendingFloorPlan struct {
	fileName string
	content  []byte
	points   []services.FloorPlanPoint
}

// Controller owns one inspection form. All methods are safe for concurrent
// use.
type Controller struct {
	api         API
	notifier    Notifier
	debounce    time.Duration
	uploadLimit int

	mu         sync.Mutex
	form       services.InspectionForm
	timer      *time.Timer
	creating   bool
	submitting bool
	floorPlan  *pendingFloorPlan
	closed     bool
}

// New returns a controller for a fresh, empty form.
func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:         api,
		notifier:    logNotifier{},
		debounce:    DefaultDebounce,
		uploadLimit: DefaultUploadLimit,
		form: services.InspectionForm{
			Status: services.InspectionStatusDraft,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the pending auto-create timer. Requests already in flight run
// to completion.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Form returns a copy of the current form state.
func (c *Controller) Form() services.InspectionForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneForm(c.form)
}

// InspectionID returns the server id, or "" before the inspection exists.
func (c *Controller) InspectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.ID
}

func (c *Controller) notify(kind, message string) {
	if c.notifier != nil {
		c.notifier.Notify(kind, message)
	}
}

func newTempID() string {
	return tmpPrefix + uuid.NewString()
}

// IsTemporaryID reports whether id was assigned locally.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, tmpPrefix)
}

// ---------------------------------------------------------------------------
// Property details and auto-create
// ---------------------------------------------------------------------------

// SetReportID sets the report number sent with the create. It has no effect
// once the inspection exists.
func (c *Controller) SetReportID(reportID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form.ID == "" {
		c.form.ReportID = strings.TrimSpace(reportID)
	}
}

// SetTechnicianName sets the technician recorded on the inspection.
func (c *Controller) SetTechnicianName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.TechnicianName = name
}

// SetPropertyAddress updates the address and restarts the auto-create timer.
func (c *Controller) SetPropertyAddress(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.PropertyAddress = address
	c.scheduleCreateLocked()
}

// SetPropertyPostcode updates the postcode and restarts the auto-create timer.
func (c *Controller) SetPropertyPostcode(postcode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.PropertyPostcode = postcode
	c.scheduleCreateLocked()
}

// scheduleCreateLocked resets the debounce timer. Caller holds c.mu.
func (c *Controller) scheduleCreateLocked() {
	if c.form.ID != "" || c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.autoCreate)
}

// autoCreate runs when the address fields have been idle for the debounce
// window.
func (c *Controller) autoCreate() {
	c.mu.Lock()
	c.timer = nil
	address := strings.TrimSpace(c.form.PropertyAddress)
	postcode := strings.TrimSpace(c.form.PropertyPostcode)
	if c.form.ID != "" || c.creating || c.closed || address == "" || postcode == "" {
		c.mu.Unlock()
		return
	}
	c.creating = true
	req := apiclient.CreateInspectionRequest{
		ReportID:         c.form.ReportID,
		PropertyAddress:  address,
		PropertyPostcode: postcode,
		TechnicianName:   c.form.TechnicianName,
	}
	c.mu.Unlock()

	created, err := c.api.CreateInspection(context.Background(), req)

	c.mu.Lock()
	c.creating = false
	if err != nil {
		c.mu.Unlock()
		log.WithError(err).WithField("address", address).Error("intake: failed to create inspection")
		c.notify(ToastError, "Could not create the inspection")
		return
	}
	c.form.ID = created.ID
	if created.ReportID != "" {
		c.form.ReportID = created.ReportID
	}
	if created.Status != "" {
		c.form.Status = created.Status
	}
	reportID := c.form.ReportID
	c.mu.Unlock()

	log.WithField("inspection", created.ID).WithField("report", reportID).Info("intake: inspection created")
	c.notify(ToastSuccess, "Inspection "+reportID+" created")
}

// ---------------------------------------------------------------------------
// Environmental
// ---------------------------------------------------------------------------

// SetEnvironmental records the ambient conditions. The dew point is always
// derived from temperature and humidity.
func (c *Controller) SetEnvironmental(temperature, humidity float64, airCirculation bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Environmental = services.EnvironmentalReading{
		ID:             c.form.Environmental.ID,
		Temperature:    temperature,
		Humidity:       humidity,
		DewPoint:       services.DewPoint(temperature, humidity),
		AirCirculation: airCirculation,
	}
}

// SaveEnvironmental sends the current environmental reading on its own.
// A failure is logged and toasted; local state is kept.
func (c *Controller) SaveEnvironmental(ctx context.Context) error {
	c.mu.Lock()
	id := c.form.ID
	env := c.form.Environmental
	c.mu.Unlock()

	if id == "" {
		c.notify(ToastWarning, "Enter the property address first")
		return ErrNoInspection
	}
	saved, err := c.api.AddEnvironmental(ctx, id, env)
	if err != nil {
		log.WithError(err).WithField("inspection", id).Error("intake: failed to save environmental reading")
		c.notify(ToastError, "Could not save environmental data")
		return err
	}

	c.mu.Lock()
	c.form.Environmental.ID = saved.ID
	c.mu.Unlock()
	c.notify(ToastSuccess, "Environmental data saved")
	return nil
}

// ---------------------------------------------------------------------------
// Moisture readings
// ---------------------------------------------------------------------------

// AddMoistureReading validates r and appends it with a temporary id.
func (c *Controller) AddMoistureReading(r services.MoistureReading) (string, error) {
	r.Location = strings.TrimSpace(r.Location)
	if r.Depth == "" {
		r.Depth = services.DepthSurface
	}
	if err := services.ValidateMoisture(r); err != nil {
		c.notify(ToastError, "Check the moisture reading")
		return "", err
	}

	r.ID = newTempID()
	c.mu.Lock()
	c.form.MoistureReadings = append(c.form.MoistureReadings, r)
	c.mu.Unlock()

	c.notify(ToastSuccess, "Moisture reading added")
	return r.ID, nil
}

// RemoveMoistureReading drops the reading with the given id.
func (c *Controller) RemoveMoistureReading(id string) bool {
	c.mu.Lock()
	var removed bool
	c.form.MoistureReadings, removed = removeByID(c.form.MoistureReadings, id, func(r services.MoistureReading) string { return r.ID })
	c.mu.Unlock()

	if removed {
		c.notify(ToastInfo, "Moisture reading removed")
	}
	return removed
}

// ---------------------------------------------------------------------------
// Affected areas
// ---------------------------------------------------------------------------

// AddAffectedArea validates a, derives its floor area and appends it with a
// temporary id.
func (c *Controller) AddAffectedArea(a services.AffectedArea) (string, error) {
	a.RoomType = strings.TrimSpace(a.RoomType)
	if err := services.ValidateAffectedArea(a); err != nil {
		c.notify(ToastError, "Check the affected area")
		return "", err
	}
	a.Area = services.Area(a.Length, a.Width)
	a.ID = newTempID()

	c.mu.Lock()
	c.form.AffectedAreas = append(c.form.AffectedAreas, a)
	c.mu.Unlock()

	c.notify(ToastSuccess, "Affected area added")
	return a.ID, nil
}

// SetAreaDimensions changes an area's size and recomputes its floor area.
func (c *Controller) SetAreaDimensions(id string, length, width float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.form.AffectedAreas {
		if c.form.AffectedAreas[i].ID == id {
			c.form.AffectedAreas[i].Length = length
			c.form.AffectedAreas[i].Width = width
			c.form.AffectedAreas[i].Area = services.Area(length, width)
			return true
		}
	}
	return false
}

// RemoveAffectedArea drops the area with the given id.
func (c *Controller) RemoveAffectedArea(id string) bool {
	c.mu.Lock()
	var removed bool
	c.form.AffectedAreas, removed = removeByID(c.form.AffectedAreas, id, func(a services.AffectedArea) string { return a.ID })
	c.mu.Unlock()

	if removed {
		c.notify(ToastInfo, "Affected area removed")
	}
	return removed
}

// TotalArea returns the summed floor area of all affected areas.
func (c *Controller) TotalArea() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return services.TotalArea(c.form.AffectedAreas)
}

// ---------------------------------------------------------------------------
// Scope items and equipment
// ---------------------------------------------------------------------------

// SetScopeItem selects or clears a scope item. Selecting an item that is
// already present only updates its description.
func (c *Controller) SetScopeItem(itemType, description string, selected bool) error {
	item := services.ScopeItem{ItemType: strings.TrimSpace(itemType), Description: description, Selected: true}
	if err := services.ValidateScopeItem(item); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.form.ScopeItems {
		if s.ItemType != item.ItemType {
			continue
		}
		if !selected {
			c.form.ScopeItems = append(c.form.ScopeItems[:i], c.form.ScopeItems[i+1:]...)
			return nil
		}
		c.form.ScopeItems[i].Description = description
		return nil
	}
	if selected {
		item.ID = newTempID()
		c.form.ScopeItems = append(c.form.ScopeItems, item)
	}
	return nil
}

// AddEquipment validates e and appends it with a temporary id.
func (c *Controller) AddEquipment(e services.EquipmentItem) (string, error) {
	e.Type = strings.TrimSpace(e.Type)
	if err := services.ValidateEquipment(e); err != nil {
		c.notify(ToastError, "Check the equipment entry")
		return "", err
	}
	e.ID = newTempID()

	c.mu.Lock()
	c.form.Equipment = append(c.form.Equipment, e)
	c.mu.Unlock()

	c.notify(ToastSuccess, "Equipment added")
	return e.ID, nil
}

// RemoveEquipment drops the equipment entry with the given id.
func (c *Controller) RemoveEquipment(id string) bool {
	c.mu.Lock()
	var removed bool
	c.form.Equipment, removed = removeByID(c.form.Equipment, id, func(e services.EquipmentItem) string { return e.ID })
	c.mu.Unlock()

	if removed {
		c.notify(ToastInfo, "Equipment removed")
	}
	return removed
}

// SetDryingDays sets the estimated drying duration sent with the submission.
func (c *Controller) SetDryingDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if days < 0 {
		days = 0
	}
	c.form.DryingDays = days
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// SetOverride records a manual category and class. Zero clears a value.
func (c *Controller) SetOverride(o services.ClassificationOverride) error {
	if err := services.ValidateOverride(o); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Override = o
	return nil
}

// Preview returns the advisory classification for the current areas with any
// override applied. It is never stored as the classification of record.
func (c *Controller) Preview() services.Classification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return services.ApplyOverride(services.Preview(c.form.AffectedAreas), c.form.Override)
}

// ---------------------------------------------------------------------------
// Floor plan
// ---------------------------------------------------------------------------

// SetFloorPlan keeps an image and its annotation points for the submission.
// A nil content keeps only the points.
func (c *Controller) SetFloorPlan(fileName string, content []byte, points []services.FloorPlanPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.floorPlan = &pendingFloorPlan{
		fileName: fileName,
		content:  content,
		points:   append([]services.FloorPlanPoint(nil), points...),
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// removeByID returns items without the entry whose id matches.
func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	for i, item := range items {
		if idOf(item) == id {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

func cloneForm(f services.InspectionForm) services.InspectionForm {
	out := f
	out.MoistureReadings = append([]services.MoistureReading(nil), f.MoistureReadings...)
	out.AffectedAreas = make([]services.AffectedArea, len(f.AffectedAreas))
	for i, a := range f.AffectedAreas {
		a.Materials = append([]string(nil), a.Materials...)
		out.AffectedAreas[i] = a
	}
	out.Photos = append([]services.Photo(nil), f.Photos...)
	out.ScopeItems = append([]services.ScopeItem(nil), f.ScopeItems...)
	out.Equipment = append([]services.EquipmentItem(nil), f.Equipment...)
	if f.FloorPlan != nil {
		fp := *f.FloorPlan
		fp.Points = append([]services.FloorPlanPoint(nil), f.FloorPlan.Points...)
		out.FloorPlan = &fp
	}
	if f.Classification != nil {
		cl := *f.Classification
		out.Classification = &cl
	}
	return out
}

func wrapStep(step string, err error) error {
	return fmt.Errorf("intake: %s: %w", step, err)
}

// Package services holds the business rules shared by the API server and the
// intake client: derived measurements, validation, the advisory classification
// preview, the scoping engine, report assembly and formatting.
package services

// Depth values recorded against a moisture reading.
const (
	DepthSurface    = "Surface"
	DepthSubsurface = "Subsurface"
)

// DepthOptions lists the accepted moisture reading depths.
var DepthOptions = []string{DepthSurface, DepthSubsurface}

// Inspection statuses.
const (
	InspectionStatusDraft      = "draft"
	InspectionStatusSubmitted  = "submitted"
	InspectionStatusClassified = "classified"
)

// EnvironmentalReading is a single ambient reading taken on site.
type EnvironmentalReading struct {
	ID             string  `json:"id,omitempty"`
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	DewPoint       float64 `json:"dewPoint"`
	AirCirculation bool    `json:"airCirculation"`
}

// MoistureReading records a meter reading at one location.
type MoistureReading struct {
	ID          string  `json:"id,omitempty"`
	Location    string  `json:"location"`
	SurfaceType string  `json:"surfaceType"`
	Level       float64 `json:"level"`
	Depth       string  `json:"depth"`
}

// AffectedArea is a room or zone with recorded dimensions and water exposure.
type AffectedArea struct {
	ID             string   `json:"id,omitempty"`
	RoomType       string   `json:"roomType"`
	Length         float64  `json:"length"`
	Width          float64  `json:"width"`
	Area           float64  `json:"area"`
	Materials      []string `json:"materials"`
	WaterSource    string   `json:"waterSource"`
	HoursSinceLoss float64  `json:"hoursSinceLoss"`
}

// ScopeItem is one selectable line of the scope of works.
type ScopeItem struct {
	ID          string `json:"id,omitempty"`
	ItemType    string `json:"itemType"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
}

// EquipmentItem is equipment deployed on site.
type EquipmentItem struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// Photo references an uploaded site photo. Uploading is only ever true on the
// client while the file is in flight.
type Photo struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	Location  string `json:"location,omitempty"`
	Category  string `json:"category,omitempty"`
	Uploading bool   `json:"uploading,omitempty"`
}

// FloorPlanPoint marks a position of interest on the floor plan image.
type FloorPlanPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// FloorPlan is the optional floor plan image with point overlays.
type FloorPlan struct {
	ImageURL string           `json:"imageUrl"`
	Points   []FloorPlanPoint `json:"points"`
}

// ClassificationOverride is a technician's manual classification. Zero values
// mean "not overridden".
type ClassificationOverride struct {
	Category int `json:"category,omitempty"`
	Class    int `json:"class,omitempty"`
}

// IsSet reports whether either value was overridden.
func (o ClassificationOverride) IsSet() bool {
	return o.Category != 0 || o.Class != 0
}

// InspectionForm is the complete technician form as held by the intake client
// and as reassembled by the server from its stored sections.
type InspectionForm struct {
	ID               string                 `json:"id,omitempty"`
	ReportID         string                 `json:"reportId"`
	Status           string                 `json:"status,omitempty"`
	PropertyAddress  string                 `json:"propertyAddress"`
	PropertyPostcode string                 `json:"propertyPostcode"`
	TechnicianName   string                 `json:"technicianName"`
	Environmental    EnvironmentalReading   `json:"environmental"`
	MoistureReadings []MoistureReading      `json:"moistureReadings"`
	AffectedAreas    []AffectedArea         `json:"affectedAreas"`
	Photos           []Photo                `json:"photos"`
	FloorPlan        *FloorPlan             `json:"floorPlan,omitempty"`
	ScopeItems       []ScopeItem            `json:"scopeItems"`
	Override         ClassificationOverride `json:"override"`
	Equipment        []EquipmentItem        `json:"equipment"`
	DryingDays       int                    `json:"dryingDays"`
	Classification   *Classification        `json:"classification,omitempty"`
}

// Classification is a water category/class pair with its provenance.
type Classification struct {
	Category string `json:"category"`
	Class    string `json:"class"`
	Source   string `json:"source"`
	Advisory bool   `json:"advisory"`
}

// Classification sources.
const (
	ClassificationSourcePreview  = "preview"
	ClassificationSourceOverride = "override"
	ClassificationSourceService  = "service"
)

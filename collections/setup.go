package collections

import (
	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Subscription tiers stored on user_profiles.
var subscriptionTiers = []string{"free", "trial", "pro", "enterprise"}

var imageMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic"}

// Setup programmatically creates/ensures the user_profiles, inspections (and
// their section collections), pricing_configs, reports and scopes
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, "user_profiles", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "user_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "name"})
		c.Fields.Add(&core.TextField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "company"})
		c.Fields.Add(&core.SelectField{
			Name:      "subscription_tier",
			Required:  true,
			Values:    subscriptionTiers,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "quick_fill_credits", OnlyInt: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_user_profiles_user_id", true, "user_id", "")
	})

	inspections := ensureCollection(app, "inspections", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "report_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "user_id"})
		c.Fields.Add(&core.TextField{Name: "property_address", Required: true})
		c.Fields.Add(&core.TextField{Name: "property_postcode", Required: true})
		c.Fields.Add(&core.TextField{Name: "technician_name"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "submitted", "classified"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "override_category", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "override_class", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "drying_days", OnlyInt: true})
		c.Fields.Add(&core.JSONField{Name: "classification"})
		c.Fields.Add(&core.FileField{
			Name:      "floor_plan",
			MaxSelect: 1,
			MaxSize:   20 << 20,
			MimeTypes: imageMimeTypes,
		})
		c.Fields.Add(&core.JSONField{Name: "floor_plan_points"})
		c.Fields.Add(&core.DateField{Name: "submitted_at"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_inspections_report_id", true, "report_id", "")
	})

	inspectionRelation := func() *core.RelationField {
		return &core.RelationField{
			Name:          "inspection",
			Required:      true,
			CollectionId:  inspections.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		}
	}

	ensureCollection(app, "environmental_readings", func(c *core.Collection) {
		c.Fields.Add(inspectionRelation())
		c.Fields.Add(&core.NumberField{Name: "temperature"})
		c.Fields.Add(&core.NumberField{Name: "humidity"})
		c.Fields.Add(&core.NumberField{Name: "dew_point"})
		c.Fields.Add(&core.BoolField{Name: "air_circulation"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "moisture_readings", func(c *core.Collection) {
		c.Fields.Add(inspectionRelation())
		c.Fields.Add(&core.TextField{Name: "location", Required: true})
		c.Fields.Add(&core.TextField{Name: "surface_type"})
		c.Fields.Add(&core.NumberField{Name: "level"})
		c.Fields.Add(&core.SelectField{
			Name:      "depth",
			Values:    []string{"Surface", "Subsurface"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "affected_areas", func(c *core.Collection) {
		c.Fields.Add(inspectionRelation())
		c.Fields.Add(&core.TextField{Name: "room_type", Required: true})
		c.Fields.Add(&core.NumberField{Name: "length"})
		c.Fields.Add(&core.NumberField{Name: "width"})
		c.Fields.Add(&core.NumberField{Name: "area"})
		c.Fields.Add(&core.JSONField{Name: "materials"})
		c.Fields.Add(&core.TextField{Name: "water_source"})
		c.Fields.Add(&core.NumberField{Name: "hours_since_loss"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "scope_items", func(c *core.Collection) {
		c.Fields.Add(inspectionRelation())
		c.Fields.Add(&core.TextField{Name: "item_type", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.BoolField{Name: "selected"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "inspection_equipment", func(c *core.Collection) {
		c.Fields.Add(inspectionRelation())
		c.Fields.Add(&core.TextField{Name: "type", Required: true})
		c.Fields.Add(&core.NumberField{Name: "quantity", OnlyInt: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "photos", func(c *core.Collection) {
		c.Fields.Add(inspectionRelation())
		c.Fields.Add(&core.FileField{
			Name:      "image",
			Required:  true,
			MaxSelect: 1,
			MaxSize:   20 << 20,
			MimeTypes: imageMimeTypes,
		})
		c.Fields.Add(&core.TextField{Name: "location"})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "pricing_configs", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "user_id", Required: true})
		for _, name := range pricingRateFields {
			c.Fields.Add(&core.NumberField{Name: name})
		}
		c.Fields.Add(&core.JSONField{Name: "custom_fields"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_pricing_configs_user_id", true, "user_id", "")
	})

	ensureCollection(app, "reports", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "report_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "user_id"})
		c.Fields.Add(&core.TextField{Name: "inspection_id"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "generated"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "data", MaxSize: 5 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_reports_report_number", true, "report_number", "")
	})

	ensureCollection(app, "scopes", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "report_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "user_id"})
		c.Fields.Add(&core.JSONField{Name: "draft", MaxSize: 1 << 20})
		c.Fields.Add(&core.JSONField{Name: "summary", MaxSize: 1 << 20})
		c.Fields.Add(&core.NumberField{Name: "total"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_scopes_report_id", true, "report_id", "")
	})
}

// pricingRateFields are the flat rate columns of pricing_configs, in the order
// the editor shows them.
var pricingRateFields = []string{
	"master_technician_rate",
	"qualified_technician_rate",
	"labourer_rate",
	"air_mover_daily",
	"lgr_dehumidifier_daily",
	"desiccant_dehumidifier_daily",
	"air_scrubber_daily",
	"antimicrobial_per_sqm",
	"mould_remediation_per_sqm",
	"callout_fee",
	"administration_fee",
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.WithField("collection", name).Debug("collection already exists, skipping creation")
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.WithError(err).WithField("collection", name).Fatal("failed to create collection")
	}

	log.WithField("collection", name).WithField("id", collection.Id).Info("created collection")
	return collection
}

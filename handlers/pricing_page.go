package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/apex/log"
	"github.com/gorilla/schema"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
	"restoreassist/templates"
)

var pricingDecoder = newPricingDecoder()

func newPricingDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	return d
}

// HandlePricingPage renders the pricing editor for the caller.
// Route: GET /pricing
func HandlePricingPage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			e.Response.WriteHeader(http.StatusUnauthorized)
			return templates.ErrorPage(http.StatusUnauthorized, "Sign in to view pricing.").Render(e.Request.Context(), e.Response)
		}

		cfg, _, err := services.LoadPricingConfig(app, profile.UserID)
		if err != nil {
			log.WithError(err).WithField("user", profile.UserID).Error("pricing_page: could not load config")
			e.Response.WriteHeader(http.StatusInternalServerError)
			return templates.ErrorPage(http.StatusInternalServerError, "").Render(e.Request.Context(), e.Response)
		}

		data := templates.PricingPageData{
			Config:  cfg,
			Tier:    profile.SubscriptionTier,
			CanEdit: profile.CanEditPricing(),
			Errors:  make(map[string]string),
		}
		return templates.PricingPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandlePricingSave decodes the editor form, validates it and stores it. On
// validation errors the form is re-rendered with messages.
// Route: POST /pricing
func HandlePricingSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			return ErrorToast(e, http.StatusUnauthorized, "Sign in to edit pricing")
		}
		if !profile.CanEditPricing() {
			return ErrorToast(e, http.StatusForbidden, "Upgrade your plan to edit pricing")
		}

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		var cfg services.PricingConfig
		errs := make(map[string]string)
		if err := pricingDecoder.Decode(&cfg, e.Request.PostForm); err != nil {
			var multi schema.MultiError
			if errors.As(err, &multi) {
				for key := range multi {
					errs[pricingErrorKey(key)] = "Enter a number"
				}
			} else {
				errs["_"] = "Invalid form data"
			}
		}
		cfg.CustomFields = dropBlankCustomFields(cfg.CustomFields)

		if len(errs) == 0 {
			if err := services.ValidatePricingConfig(cfg); err != nil {
				errs = services.FieldErrors(err)
			}
		}

		data := templates.PricingPageData{
			Config:  cfg,
			Tier:    profile.SubscriptionTier,
			CanEdit: true,
			Errors:  errs,
		}
		if len(errs) > 0 {
			SetToast(e, ToastWarning, "Please fix the errors below")
			return templates.PricingPage(data).Render(e.Request.Context(), e.Response)
		}

		if err := services.SavePricingConfig(app, profile.UserID, cfg); err != nil {
			log.WithError(err).WithField("user", profile.UserID).Error("pricing_page: could not save config")
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		log.WithField("user", profile.UserID).Info("pricing configuration saved")
		SetToast(e, ToastSuccess, "Pricing saved")
		return templates.PricingPage(data).Render(e.Request.Context(), e.Response)
	}
}

// pricingJSONKeys maps schema form keys to the json names errors are keyed by.
var pricingJSONKeys = schemaToJSONKeys(reflect.TypeOf(services.PricingConfig{}))

func schemaToJSONKeys(t reflect.Type) map[string]string {
	keys := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		form := f.Tag.Get("schema")
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if form != "" && name != "" {
			keys[form] = name
		}
	}
	return keys
}

// pricingErrorKey converts a decoder error path such as "custom.2.value" to
// the json path "customFields.2.value". Custom field tags match on both sides.
func pricingErrorKey(formKey string) string {
	head, rest, found := strings.Cut(formKey, ".")
	if name, ok := pricingJSONKeys[head]; ok {
		head = name
	}
	if !found {
		return head
	}
	return head + "." + rest
}

// dropBlankCustomFields removes the editor's empty "add" rows.
func dropBlankCustomFields(fields []services.CustomField) []services.CustomField {
	out := make([]services.CustomField, 0, len(fields))
	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		f.Unit = strings.TrimSpace(f.Unit)
		if f.Name == "" && f.Category == "" && f.Value == 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

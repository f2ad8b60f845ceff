package handlers

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"restoreassist/services"
)

// HandleUserProfile returns the caller's profile including subscription tier.
// Route: GET /api/user/profile
func HandleUserProfile(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			return jsonError(e, http.StatusUnauthorized, "Missing user")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"profile":        profile,
			"canEditPricing": profile.CanEditPricing(),
		})
	}
}

// HandleQuickFillCredits returns the caller's remaining Quick Fill credits.
// Route: GET /api/user/quick-fill-credits
func HandleQuickFillCredits(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			return jsonError(e, http.StatusUnauthorized, "Missing user")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"credits": profile.QuickFillCredits,
			"tier":    profile.SubscriptionTier,
		})
	}
}

// HandleQuickFillConsume spends one Quick Fill credit and returns the sample
// form data. With no credits left it answers 402.
// Route: POST /api/user/quick-fill-credits
func HandleQuickFillConsume(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			return jsonError(e, http.StatusUnauthorized, "Missing user")
		}

		remaining, err := services.ConsumeQuickFillCredit(app, profile.UserID)
		if errors.Is(err, services.ErrNoCredits) {
			return e.JSON(http.StatusPaymentRequired, map[string]any{
				"error":   "No Quick Fill credits remaining",
				"credits": 0,
			})
		}
		if err != nil {
			log.WithError(err).WithField("user", profile.UserID).Error("quick_fill: could not consume credit")
			return jsonError(e, http.StatusInternalServerError, "Could not use Quick Fill")
		}

		log.WithField("user", profile.UserID).WithField("remaining", remaining).Info("quick fill credit used")
		return e.JSON(http.StatusOK, map[string]any{
			"credits": remaining,
			"data":    services.QuickFillSample(),
		})
	}
}

// HandlePricingConfigGet returns the caller's pricing configuration, or the
// defaults when none is stored.
// Route: GET /api/pricing-config
func HandlePricingConfigGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			return jsonError(e, http.StatusUnauthorized, "Missing user")
		}

		cfg, stored, err := services.LoadPricingConfig(app, profile.UserID)
		if err != nil {
			log.WithError(err).WithField("user", profile.UserID).Error("pricing_config: could not load")
			return jsonError(e, http.StatusInternalServerError, "Could not load pricing configuration")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"config":  cfg,
			"stored":  stored,
			"canEdit": profile.CanEditPricing(),
		})
	}
}

// HandlePricingConfigPut replaces the caller's pricing configuration. Tiers
// that cannot edit pricing get 403.
// Route: PUT /api/pricing-config
func HandlePricingConfigPut(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		profile := GetUserProfile(e.Request)
		if profile == nil {
			return jsonError(e, http.StatusUnauthorized, "Missing user")
		}
		if !profile.CanEditPricing() {
			return jsonError(e, http.StatusForbidden, "Upgrade your plan to edit pricing")
		}

		var cfg services.PricingConfig
		if err := readJSON(e, &cfg); err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		if cfg.CustomFields == nil {
			cfg.CustomFields = []services.CustomField{}
		}
		if err := services.ValidatePricingConfig(cfg); err != nil {
			return validationFailed(e, err)
		}

		if err := services.SavePricingConfig(app, profile.UserID, cfg); err != nil {
			log.WithError(err).WithField("user", profile.UserID).Error("pricing_config: could not save")
			return jsonError(e, http.StatusInternalServerError, "Could not save pricing configuration")
		}
		return e.JSON(http.StatusOK, map[string]any{"config": cfg, "stored": true})
	}
}

package collections

import (
	"fmt"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"

	"restoreassist/services"
)

// MigrateDefaultPricingConfigs gives every user profile that is missing one a
// pricing_configs record holding the default rates. Safe to call on every
// startup.
func MigrateDefaultPricingConfigs(app *pocketbase.PocketBase) error {
	profilesCol, err := app.FindCollectionByNameOrId("user_profiles")
	if err != nil {
		return fmt.Errorf("migrate_pricing: could not find user_profiles collection: %w", err)
	}

	profiles, err := app.FindAllRecords(profilesCol)
	if err != nil {
		return fmt.Errorf("migrate_pricing: could not query user_profiles: %w", err)
	}

	for _, profile := range profiles {
		userID := profile.GetString("user_id")
		existing, _ := app.FindRecordsByFilter(
			"pricing_configs",
			"user_id = {:userId}",
			"",
			1, 0,
			map[string]any{"userId": userID},
		)
		if len(existing) > 0 {
			continue
		}

		if err := services.SavePricingConfig(app, userID, services.DefaultPricingConfig()); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("migrate_pricing: failed to create default pricing config")
			continue
		}
	}

	return nil
}

package collections

import (
	"fmt"

	"github.com/apex/log"
	"github.com/pocketbase/pocketbase"

	"restoreassist/services"
)

// MigrateAffectedAreaSizes fills the derived area of affected_areas rows that
// were stored without one. Safe to call on every startup -- returns early if
// nothing to migrate.
func MigrateAffectedAreaSizes(app *pocketbase.PocketBase) error {
	areasCol, err := app.FindCollectionByNameOrId("affected_areas")
	if err != nil {
		return fmt.Errorf("migrate_areas: could not find affected_areas collection: %w", err)
	}

	missing, err := app.FindRecordsByFilter(
		areasCol,
		"area = 0 && length > 0 && width > 0",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate_areas: could not query affected areas: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	log.WithField("count", len(missing)).Info("migrate_areas: backfilling affected area sizes")

	for _, rec := range missing {
		rec.Set("area", services.Area(rec.GetFloat("length"), rec.GetFloat("width")))
		if err := app.Save(rec); err != nil {
			log.WithError(err).WithField("id", rec.Id).Error("migrate_areas: failed to update area")
			continue
		}
	}

	return nil
}

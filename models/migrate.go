package models

import (
	"bitbucket.org/gigdash/earnings_backend/config"
	"bitbucket.org/gigdash/earnings_backend/utils"
)

// MigrateTable runs AutoMigrate for the read models. In production both
// tables already exist (they are owned by the ingestion pipeline); this is
// for dev environments seeded from scratch.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&ActivityRecord{},
		&UserMetaData{},
	)
	utils.ErrorPanic(err)
}

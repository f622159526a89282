package db

import (
	types "github.com/fieldlens/photoverify/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Hash index
		&types.HashEntry{},

		// Materialized caches
		&types.DuplicateSnapshot{},
		&types.PhotoListPartition{},

		// Review decisions
		&types.Verification{},
	)
}

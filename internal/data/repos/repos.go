package repos

import (
	"gorm.io/gorm"

	"github.com/fieldlens/photoverify/internal/platform/logger"
)

// Repos bundles every store-backed repository the engine uses.
type Repos struct {
	HashEntries    HashEntryRepo
	DuplicateCache DuplicateCacheRepo
	PhotoListCache PhotoListCacheRepo
	Verifications  VerificationRepo
}

func New(db *gorm.DB, baseLog *logger.Logger) Repos {
	return Repos{
		HashEntries:    NewHashEntryRepo(db, baseLog),
		DuplicateCache: NewDuplicateCacheRepo(db, baseLog),
		PhotoListCache: NewPhotoListCacheRepo(db, baseLog),
		Verifications:  NewVerificationRepo(db, baseLog),
	}
}

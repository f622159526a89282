package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

type PhotoListCacheRepo interface {
	// ReplacePartition swaps one (project, photo_type, date) partition in
	// a single transaction. Other partitions are untouched.
	ReplacePartition(dbc dbctx.Context, row *types.PhotoListPartition) error
	GetPartition(dbc dbctx.Context, project string, photoType types.PhotoType, cacheDate string) (*types.PhotoListPartition, error)
	ListDates(dbc dbctx.Context, project string, photoType types.PhotoType) ([]string, error)
}

type photoListCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPhotoListCacheRepo(db *gorm.DB, baseLog *logger.Logger) PhotoListCacheRepo {
	return &photoListCacheRepo{
		db:  db,
		log: baseLog.With("repo", "PhotoListCacheRepo"),
	}
}

func (r *photoListCacheRepo) ReplacePartition(dbc dbctx.Context, row *types.PhotoListPartition) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ComputedAt.IsZero() {
		row.ComputedAt = time.Now().UTC()
	}

	replace := func(tx *gorm.DB) error {
		if err := tx.Where("project = ? AND photo_type = ? AND cache_date = ?",
			row.Project, row.PhotoType, row.CacheDate).
			Delete(&types.PhotoListPartition{}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	}

	if dbc.Tx != nil {
		return replace(dbc.Tx.WithContext(dbc.Ctx))
	}
	return r.db.WithContext(dbc.Ctx).Transaction(replace)
}

func (r *photoListCacheRepo) GetPartition(dbc dbctx.Context, project string, photoType types.PhotoType, cacheDate string) (*types.PhotoListPartition, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.PhotoListPartition
	err := t.WithContext(dbc.Ctx).
		Where("project = ? AND photo_type = ? AND cache_date = ?", project, photoType, cacheDate).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *photoListCacheRepo) ListDates(dbc dbctx.Context, project string, photoType types.PhotoType) ([]string, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []string
	err := t.WithContext(dbc.Ctx).
		Model(&types.PhotoListPartition{}).
		Where("project = ? AND photo_type = ?", project, photoType).
		Order("cache_date").
		Pluck("cache_date", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

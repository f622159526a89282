package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

type DuplicateCacheRepo interface {
	// ReplaceProject swaps the project's full snapshot set in one
	// transaction. A reader mid-swap sees either the old set or the new
	// one, never a mix; a failed swap rolls back to the old set.
	ReplaceProject(dbc dbctx.Context, project string, rows []*types.DuplicateSnapshot) error
	GetByProject(dbc dbctx.Context, project string) ([]*types.DuplicateSnapshot, error)
	CountByProject(dbc dbctx.Context, project string) (int64, error)
}

type duplicateCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDuplicateCacheRepo(db *gorm.DB, baseLog *logger.Logger) DuplicateCacheRepo {
	return &duplicateCacheRepo{
		db:  db,
		log: baseLog.With("repo", "DuplicateCacheRepo"),
	}
}

func (r *duplicateCacheRepo) ReplaceProject(dbc dbctx.Context, project string, rows []*types.DuplicateSnapshot) error {
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.Project = project
		if row.ComputedAt.IsZero() {
			row.ComputedAt = now
		}
	}

	replace := func(tx *gorm.DB) error {
		if err := tx.Where("project = ?", project).
			Delete(&types.DuplicateSnapshot{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(rows).Error
	}

	if dbc.Tx != nil {
		return replace(dbc.Tx.WithContext(dbc.Ctx))
	}
	return r.db.WithContext(dbc.Ctx).Transaction(replace)
}

func (r *duplicateCacheRepo) GetByProject(dbc dbctx.Context, project string) ([]*types.DuplicateSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.DuplicateSnapshot
	if err := t.WithContext(dbc.Ctx).
		Where("project = ?", project).
		Order("member_count DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *duplicateCacheRepo) CountByProject(dbc dbctx.Context, project string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.DuplicateSnapshot{}).
		Where("project = ?", project).
		Count(&n).Error
	return n, err
}

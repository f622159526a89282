package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

// DigestCount is one duplicated digest and how many entries share it.
type DigestCount struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

type HashEntryRepo interface {
	Exists(dbc dbctx.Context, project string, photoType types.PhotoType, photoID int64) (bool, error)
	Upsert(dbc dbctx.Context, row *types.HashEntry) error
	UpsertBatch(dbc dbctx.Context, rows []*types.HashEntry) error
	DuplicateDigests(dbc dbctx.Context, project string) ([]DigestCount, error)
	GetByDigest(dbc dbctx.Context, project string, digest string) ([]*types.HashEntry, error)
	CountByProject(dbc dbctx.Context, project string) (int64, error)
}

type hashEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHashEntryRepo(db *gorm.DB, baseLog *logger.Logger) HashEntryRepo {
	return &hashEntryRepo{
		db:  db,
		log: baseLog.With("repo", "HashEntryRepo"),
	}
}

func (r *hashEntryRepo) Exists(dbc dbctx.Context, project string, photoType types.PhotoType, photoID int64) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.HashEntry{}).
		Where("project = ? AND photo_type = ? AND photo_id = ?", project, photoType, photoID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *hashEntryRepo) Upsert(dbc dbctx.Context, row *types.HashEntry) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ScannedAt.IsZero() {
		row.ScannedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project"}, {Name: "photo_type"}, {Name: "photo_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"visit_id",
				"digest",
				"file_size",
				"relative_path",
				"scanned_at",
			}),
		}).
		Create(row).Error
}

// UpsertBatch writes one scan batch inside a single transaction so an
// interrupted scan loses at most the uncommitted tail.
func (r *hashEntryRepo) UpsertBatch(dbc dbctx.Context, rows []*types.HashEntry) error {
	if len(rows) == 0 {
		return nil
	}
	if dbc.Tx != nil {
		for _, row := range rows {
			if err := r.Upsert(dbc, row); err != nil {
				return err
			}
		}
		return nil
	}
	return r.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		for _, row := range rows {
			if err := r.Upsert(txc, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *hashEntryRepo) DuplicateDigests(dbc dbctx.Context, project string) ([]DigestCount, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []DigestCount
	err := t.WithContext(dbc.Ctx).
		Model(&types.HashEntry{}).
		Select("digest, COUNT(*) AS count").
		Where("project = ? AND digest <> ''", project).
		Group("digest").
		Having("COUNT(*) > 1").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *hashEntryRepo) GetByDigest(dbc dbctx.Context, project string, digest string) ([]*types.HashEntry, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.HashEntry
	if err := t.WithContext(dbc.Ctx).
		Where("project = ? AND digest = ?", project, digest).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *hashEntryRepo) CountByProject(dbc dbctx.Context, project string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.HashEntry{}).
		Where("project = ?", project).
		Count(&n).Error
	return n, err
}

package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

type VerificationRepo interface {
	Upsert(dbc dbctx.Context, row *types.Verification) error
	GetByPhoto(dbc dbctx.Context, project string, photoType types.PhotoType, photoID int64) (*types.Verification, error)
}

type verificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationRepo(db *gorm.DB, baseLog *logger.Logger) VerificationRepo {
	return &verificationRepo{
		db:  db,
		log: baseLog.With("repo", "VerificationRepo"),
	}
}

func (r *verificationRepo) Upsert(dbc dbctx.Context, row *types.Verification) error {
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
	if row.VerifiedAt.IsZero() {
		row.VerifiedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project"}, {Name: "photo_type"}, {Name: "photo_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"visit_id",
				"status",
				"note",
				"verified_by",
				"verified_at",
			}),
		}).
		Create(row).Error
}

func (r *verificationRepo) GetByPhoto(dbc dbctx.Context, project string, photoType types.PhotoType, photoID int64) (*types.Verification, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Verification
	err := t.WithContext(dbc.Ctx).
		Where("project = ? AND photo_type = ? AND photo_id = ?", project, photoType, photoID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

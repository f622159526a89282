package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
	VerificationSuspicious = "suspicious"
)

// Verification is a reviewer's decision on one photo. One row per
// (project, photo_type, photo_id); a new decision replaces the old one.
type Verification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Project   string    `gorm:"column:project;not null;uniqueIndex:uq_verifications_key" json:"project"`
	PhotoType PhotoType `gorm:"column:photo_type;not null;uniqueIndex:uq_verifications_key" json:"photo_type"`
	PhotoID   int64     `gorm:"column:photo_id;not null;uniqueIndex:uq_verifications_key" json:"photo_id"`
	VisitID   int64     `gorm:"column:visit_id" json:"visit_id"`

	Status     string    `gorm:"column:status;not null" json:"status"`
	Note       string    `gorm:"column:note" json:"note"`
	VerifiedBy string    `gorm:"column:verified_by" json:"verified_by"`
	VerifiedAt time.Time `gorm:"column:verified_at;not null" json:"verified_at"`
}

func (Verification) TableName() string { return "verifications" }

package domain

import (
	"time"

	"github.com/google/uuid"
)

// HashEntry is one indexed photo file. Rows are written once per
// (project, photo_type, photo_id) and upserted on re-scan; the engine
// never deletes them.
type HashEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Project   string    `gorm:"column:project;not null;index;uniqueIndex:uq_photo_hashes_key" json:"project"`
	PhotoType PhotoType `gorm:"column:photo_type;not null;uniqueIndex:uq_photo_hashes_key" json:"photo_type"`
	PhotoID   int64     `gorm:"column:photo_id;not null;uniqueIndex:uq_photo_hashes_key" json:"photo_id"`
	VisitID   int64     `gorm:"column:visit_id" json:"visit_id"`

	Digest       string `gorm:"column:digest;index" json:"digest"`
	FileSize     int64  `gorm:"column:file_size" json:"file_size"`
	RelativePath string `gorm:"column:relative_path" json:"relative_path"`

	ScannedAt time.Time `gorm:"column:scanned_at;not null" json:"scanned_at"`
}

func (HashEntry) TableName() string { return "photo_hashes" }

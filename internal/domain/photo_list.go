package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PhotoListPartition is one day's pre-materialized photo listing for a
// project/photo-type. Partitions are replaced independently; rebuilding
// one day never touches its neighbors.
type PhotoListPartition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Project   string    `gorm:"column:project;not null;uniqueIndex:uq_photo_list_cache_key" json:"project"`
	PhotoType PhotoType `gorm:"column:photo_type;not null;uniqueIndex:uq_photo_list_cache_key" json:"photo_type"`
	CacheDate string    `gorm:"column:cache_date;not null;uniqueIndex:uq_photo_list_cache_key" json:"cache_date"`

	Photos     datatypes.JSON `gorm:"column:photos" json:"photos"`
	PhotoCount int            `gorm:"column:photo_count;not null" json:"photo_count"`

	ComputedAt time.Time `gorm:"column:computed_at;not null" json:"computed_at"`
}

func (PhotoListPartition) TableName() string { return "photo_list_cache" }

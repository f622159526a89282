package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DuplicateMember is one photo inside a duplicate group, enriched with
// visit/customer metadata resolved from the photo source. DistanceKM is
// the great-circle distance between the visit's GPS fix and the customer's
// stored coordinates; nil unless both endpoints are known.
type DuplicateMember struct {
	PhotoID      int64      `json:"photo_id"`
	PhotoType    PhotoType  `json:"photo_type"`
	VisitID      int64      `json:"visit_id"`
	RelativePath string     `json:"relative_path"`
	Personnel    string     `json:"personnel"`
	CustomerName string     `json:"customer_name"`
	CustomerCode string     `json:"customer_code"`
	CapturedAt   *time.Time `json:"captured_at,omitempty"`
	VisitLat     *float64   `json:"visit_lat,omitempty"`
	VisitLon     *float64   `json:"visit_lon,omitempty"`
	CustomerLat  *float64   `json:"customer_lat,omitempty"`
	CustomerLon  *float64   `json:"customer_lon,omitempty"`
	DistanceKM   *float64   `json:"distance_km,omitempty"`
}

// DuplicateGroup is the set of photos sharing one content digest. Groups
// are derived from the hash index on every rebuild; a group exists only
// while it has more than one member.
type DuplicateGroup struct {
	Digest      string            `json:"digest"`
	MemberCount int               `json:"member_count"`
	Members     []DuplicateMember `json:"members"`
}

// DuplicateSnapshot is one persisted duplicate group, keyed by
// (project, digest). The full set for a project is replaced in one
// transaction per rebuild and read back verbatim until the next one.
type DuplicateSnapshot struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Project string    `gorm:"column:project;not null;index;uniqueIndex:uq_duplicate_cache_key" json:"project"`
	Digest  string    `gorm:"column:digest;not null;uniqueIndex:uq_duplicate_cache_key" json:"digest"`

	MemberCount int            `gorm:"column:member_count;not null" json:"member_count"`
	Members     datatypes.JSON `gorm:"column:members" json:"members"`

	ComputedAt time.Time `gorm:"column:computed_at;not null" json:"computed_at"`
}

func (DuplicateSnapshot) TableName() string { return "duplicate_cache" }

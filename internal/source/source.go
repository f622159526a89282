package source

import (
	"context"
	"time"

	types "github.com/fieldlens/photoverify/internal/domain"
)

// FilterSpec narrows photo listings without the caller ever building SQL.
// Zero values mean "no filter".
type FilterSpec struct {
	UserRoleID   *int
	UserID       *int64
	CustomerCode string
}

// Person is one field representative, for filter option lists.
type Person struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// Customer is one store location, for filter option lists.
type Customer struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Stats are the dashboard counts for a date window.
type Stats struct {
	ExhibitionCount int64 `json:"exhibition_count"`
	PlanogramCount  int64 `json:"planogram_count"`
	VisitCount      int64 `json:"visit_count"`
	UniqueVisits    int64 `json:"unique_visits"`
	ActivePersonnel int64 `json:"active_personnel"`
}

// PhotoSource reads one project's field-ops database. Implementations are
// external to the engine; the engine only lists photo windows and resolves
// single photos by key.
type PhotoSource interface {
	ListPhotos(ctx context.Context, photoType types.PhotoType, from, to time.Time, filter FilterSpec) ([]types.PhotoRecord, error)
	// GetPhotoDetail resolves one photo by its composite key. Returns
	// (nil, nil) when the photo no longer exists.
	GetPhotoDetail(ctx context.Context, photoID int64, photoType types.PhotoType, visitID int64) (*types.PhotoRecord, error)
	ListPersonnel(ctx context.Context, from, to time.Time) ([]Person, error)
	ListCustomers(ctx context.Context, from, to time.Time) ([]Customer, error)
	Stats(ctx context.Context, from, to time.Time) (Stats, error)
}

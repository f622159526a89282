package source

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

// GormPhotoSource reads a project's field-ops database (visits,
// exhibition_photos, planogram_photos, routes, customers, users). The
// schema is owned by the field application; this source only reads it.
type GormPhotoSource struct {
	db      *gorm.DB
	log     *logger.Logger
	project string
}

func NewGormPhotoSource(db *gorm.DB, baseLog *logger.Logger, project string) *GormPhotoSource {
	return &GormPhotoSource{
		db:      db,
		log:     baseLog.With("source", "GormPhotoSource", "project", project),
		project: project,
	}
}

var _ PhotoSource = (*GormPhotoSource)(nil)

type photoRow struct {
	PhotoID      int64
	VisitID      int64
	RawPath      string
	CapturedAt   *time.Time
	VisitLat     *float64
	VisitLon     *float64
	CustomerLat  *float64
	CustomerLon  *float64
	CustomerName string
	CustomerCode string
	Personnel    string
}

func (s *GormPhotoSource) ListPhotos(ctx context.Context, photoType types.PhotoType, from, to time.Time, filter FilterSpec) ([]types.PhotoRecord, error) {
	q, err := s.photoQuery(ctx, photoType)
	if err != nil {
		return nil, err
	}

	dateCol := "p.created_date"
	if photoType == types.PhotoTypeVisit {
		dateCol = "v.start_date"
	}
	q = q.Where(dateCol+" >= ? AND "+dateCol+" < ?", from, to).
		Order(dateCol + " DESC")
	q = s.applyFilter(q, filter)

	var rows []photoRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s photos: %w", photoType, err)
	}

	out := make([]types.PhotoRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToRecord(photoType, row))
	}
	return out, nil
}

func (s *GormPhotoSource) GetPhotoDetail(ctx context.Context, photoID int64, photoType types.PhotoType, visitID int64) (*types.PhotoRecord, error) {
	q, err := s.photoQuery(ctx, photoType)
	if err != nil {
		return nil, err
	}

	if photoType == types.PhotoTypeVisit {
		id := visitID
		if id == 0 {
			id = photoID
		}
		q = q.Where("v.id = ?", id)
	} else {
		q = q.Where("p.id = ?", photoID)
		if visitID != 0 {
			q = q.Where("p.visit_id = ?", visitID)
		}
	}

	var rows []photoRow
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("photo detail %s/%d: %w", photoType, photoID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rec := rowToRecord(photoType, rows[0])
	return &rec, nil
}

// photoQuery builds the per-type base query: photo rows joined to their
// visit, route, customer and personnel.
func (s *GormPhotoSource) photoQuery(ctx context.Context, photoType types.PhotoType) (*gorm.DB, error) {
	db := s.db.WithContext(ctx)

	const selectVisitJoined = `
		p.id AS photo_id,
		p.visit_id AS visit_id,
		p.image_path AS raw_path,
		p.created_date AS captured_at,
		v.latitude AS visit_lat,
		v.longitude AS visit_lon,
		c.latitude AS customer_lat,
		c.longitude AS customer_lon,
		c.customer_name AS customer_name,
		c.customer_code AS customer_code,
		u.name || ' ' || u.surname AS personnel`

	switch photoType {
	case types.PhotoTypeExhibition, types.PhotoTypePlanogram:
		table := "exhibition_photos"
		if photoType == types.PhotoTypePlanogram {
			table = "planogram_photos"
		}
		return db.Table(table+" AS p").
			Select(selectVisitJoined).
			Joins("INNER JOIN visits v ON v.id = p.visit_id").
			Joins("INNER JOIN routes r ON r.id = v.route_id").
			Joins("INNER JOIN customers c ON c.customer_code = r.customer_code").
			Joins("INNER JOIN users u ON u.id = v.user_id").
			Where("p.image_path IS NOT NULL AND p.is_deleted = ?", false), nil

	case types.PhotoTypeVisit:
		return db.Table("visits AS v").
			Select(`
				v.id AS photo_id,
				v.id AS visit_id,
				v.image_path AS raw_path,
				v.start_date AS captured_at,
				v.latitude AS visit_lat,
				v.longitude AS visit_lon,
				c.latitude AS customer_lat,
				c.longitude AS customer_lon,
				c.customer_name AS customer_name,
				c.customer_code AS customer_code,
				u.name || ' ' || u.surname AS personnel`).
			Joins("INNER JOIN routes r ON r.id = v.route_id").
			Joins("INNER JOIN customers c ON c.customer_code = r.customer_code").
			Joins("INNER JOIN users u ON u.id = v.user_id").
			Where("v.image_path IS NOT NULL AND v.is_deleted = ?", false), nil

	default:
		return nil, fmt.Errorf("unknown photo type %q", photoType)
	}
}

func (s *GormPhotoSource) applyFilter(q *gorm.DB, filter FilterSpec) *gorm.DB {
	if filter.UserRoleID != nil {
		q = q.Joins("INNER JOIN user_roles ur ON ur.user_id = v.user_id AND ur.role_id = ? AND ur.is_deleted = ?",
			*filter.UserRoleID, false)
	}
	if filter.UserID != nil {
		q = q.Where("v.user_id = ?", *filter.UserID)
	}
	if filter.CustomerCode != "" {
		q = q.Where("c.customer_code = ?", filter.CustomerCode)
	}
	return q
}

func (s *GormPhotoSource) ListPersonnel(ctx context.Context, from, to time.Time) ([]Person, error) {
	var rows []Person
	err := s.db.WithContext(ctx).
		Table("users AS u").
		Select(`DISTINCT u.id AS id, u.name || ' ' || u.surname AS full_name`).
		Joins("INNER JOIN visits v ON v.user_id = u.id").
		Where("u.is_deleted = ?", false).
		Where("v.start_date >= ? AND v.start_date < ?", from, to).
		Order("full_name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list personnel: %w", err)
	}
	for i := range rows {
		rows[i].FullName = FixTurkishChars(rows[i].FullName)
	}
	return rows, nil
}

func (s *GormPhotoSource) ListCustomers(ctx context.Context, from, to time.Time) ([]Customer, error) {
	var rows []Customer
	err := s.db.WithContext(ctx).
		Table("customers AS c").
		Select("DISTINCT c.customer_code AS code, c.customer_name AS name").
		Joins("INNER JOIN routes r ON r.customer_code = c.customer_code").
		Joins("INNER JOIN visits v ON v.route_id = r.id").
		Where("v.start_date >= ? AND v.start_date < ?", from, to).
		Order("name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	for i := range rows {
		rows[i].Name = FixTurkishChars(rows[i].Name)
	}
	return rows, nil
}

func (s *GormPhotoSource) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	db := s.db.WithContext(ctx)
	var out Stats

	count := func(q *gorm.DB, dst *int64) error {
		return q.Count(dst).Error
	}

	if err := count(db.Table("exhibition_photos AS p").
		Where("p.image_path IS NOT NULL AND p.is_deleted = ?", false).
		Where("p.created_date >= ? AND p.created_date < ?", from, to), &out.ExhibitionCount); err != nil {
		return out, fmt.Errorf("stats exhibition: %w", err)
	}
	if err := count(db.Table("planogram_photos AS p").
		Where("p.image_path IS NOT NULL AND p.is_deleted = ?", false).
		Where("p.created_date >= ? AND p.created_date < ?", from, to), &out.PlanogramCount); err != nil {
		return out, fmt.Errorf("stats planogram: %w", err)
	}
	if err := count(db.Table("visits AS v").
		Where("v.image_path IS NOT NULL AND v.is_deleted = ?", false).
		Where("v.start_date >= ? AND v.start_date < ?", from, to), &out.VisitCount); err != nil {
		return out, fmt.Errorf("stats visits: %w", err)
	}

	err := db.Table("exhibition_photos AS p").
		Where("p.created_date >= ? AND p.created_date < ?", from, to).
		Distinct("p.visit_id").
		Count(&out.UniqueVisits).Error
	if err != nil {
		return out, fmt.Errorf("stats unique visits: %w", err)
	}

	err = db.Table("visits AS v").
		Where("v.start_date >= ? AND v.start_date < ?", from, to).
		Distinct("v.user_id").
		Count(&out.ActivePersonnel).Error
	if err != nil {
		return out, fmt.Errorf("stats active personnel: %w", err)
	}

	return out, nil
}

func rowToRecord(photoType types.PhotoType, row photoRow) types.PhotoRecord {
	return types.PhotoRecord{
		PhotoID:      row.PhotoID,
		PhotoType:    photoType,
		VisitID:      row.VisitID,
		RawPath:      row.RawPath,
		Personnel:    FixTurkishChars(row.Personnel),
		CustomerCode: row.CustomerCode,
		CustomerName: FixTurkishChars(row.CustomerName),
		VisitLat:     row.VisitLat,
		VisitLon:     row.VisitLon,
		CustomerLat:  row.CustomerLat,
		CustomerLon:  row.CustomerLon,
		CapturedAt:   row.CapturedAt,
	}
}

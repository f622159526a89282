package domain

import "time"

// PhotoType identifies which capture table a photo row came from.
type PhotoType string

const (
	PhotoTypeExhibition PhotoType = "exhibition"
	PhotoTypePlanogram  PhotoType = "planogram"
	PhotoTypeVisit      PhotoType = "visit"
)

func (t PhotoType) Valid() bool {
	switch t {
	case PhotoTypeExhibition, PhotoTypePlanogram, PhotoTypeVisit:
		return true
	default:
		return false
	}
}

// PhotoRecord is one photo row as produced by a PhotoSource. The engine
// never writes these back; coordinates and capture time are nil when the
// source has no value for them.
type PhotoRecord struct {
	PhotoID      int64      `json:"photo_id"`
	PhotoType    PhotoType  `json:"photo_type"`
	VisitID      int64      `json:"visit_id"`
	RawPath      string     `json:"raw_path"`
	Personnel    string     `json:"personnel"`
	CustomerCode string     `json:"customer_code"`
	CustomerName string     `json:"customer_name"`
	VisitLat     *float64   `json:"visit_lat,omitempty"`
	VisitLon     *float64   `json:"visit_lon,omitempty"`
	CustomerLat  *float64   `json:"customer_lat,omitempty"`
	CustomerLon  *float64   `json:"customer_lon,omitempty"`
	CapturedAt   *time.Time `json:"captured_at,omitempty"`
}

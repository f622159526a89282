package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"github.com/fieldlens/photoverify/internal/data/repos"
	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
	"github.com/fieldlens/photoverify/internal/source"
)

const DefaultPhotoListDays = 7

const cacheDateLayout = "2006-01-02"

type PhotoListDeps struct {
	Source source.PhotoSource
	Cache  repos.PhotoListCacheRepo
	Log    *logger.Logger
}

type RebuildPhotoListInput struct {
	Project   string
	PhotoType types.PhotoType
	Days      int
	Filter    source.FilterSpec
}

type RebuildPhotoListOutput struct {
	Photos     int `json:"photos"`
	Partitions int `json:"partitions"`
	// Dropped counts records without a capture timestamp, which cannot be
	// assigned to a day partition.
	Dropped int `json:"dropped"`
	Failed  int `json:"failed"`
}

// RebuildPhotoList re-materializes the per-day photo listings for one
// project/photo-type. Each day partition is replaced in its own
// transaction, so one day's failure never corrupts its neighbors.
func RebuildPhotoList(ctx context.Context, deps PhotoListDeps, in RebuildPhotoListInput) (RebuildPhotoListOutput, error) {
	out := RebuildPhotoListOutput{}
	if deps.Source == nil || deps.Cache == nil || deps.Log == nil {
		return out, fmt.Errorf("rebuild photo list: missing deps")
	}
	if in.Project == "" || !in.PhotoType.Valid() {
		return out, fmt.Errorf("rebuild photo list: bad input %s/%s", in.Project, in.PhotoType)
	}
	days := in.Days
	if days <= 0 {
		days = DefaultPhotoListDays
	}
	log := deps.Log.With("step", "RebuildPhotoList", "project", in.Project, "photo_type", in.PhotoType)

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	photos, err := deps.Source.ListPhotos(ctx, in.PhotoType, from, to, in.Filter)
	if err != nil {
		return out, fmt.Errorf("photo window for %s/%s: %w", in.Project, in.PhotoType, err)
	}
	out.Photos = len(photos)

	byDate := make(map[string][]types.PhotoRecord)
	for _, photo := range photos {
		if photo.CapturedAt == nil {
			out.Dropped++
			continue
		}
		key := photo.CapturedAt.Format(cacheDateLayout)
		byDate[key] = append(byDate[key], photo)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	dbc := dbctx.Context{Ctx: ctx}
	for _, date := range dates {
		dayPhotos := byDate[date]
		payload, err := json.Marshal(dayPhotos)
		if err != nil {
			log.Error("partition marshal failed", "date", date, "error", err)
			out.Failed++
			continue
		}
		row := &types.PhotoListPartition{
			Project:    in.Project,
			PhotoType:  in.PhotoType,
			CacheDate:  date,
			Photos:     datatypes.JSON(payload),
			PhotoCount: len(dayPhotos),
		}
		if err := deps.Cache.ReplacePartition(dbc, row); err != nil {
			log.Error("partition swap failed", "date", date, "error", err)
			out.Failed++
			continue
		}
		out.Partitions++
	}

	log.Info("photo list cache rebuilt",
		"photos", out.Photos, "partitions", out.Partitions,
		"dropped", out.Dropped, "failed", out.Failed)
	return out, nil
}

// ReadPhotoList returns one cached day partition, or (nil, false) when the
// partition has never been built.
func ReadPhotoList(ctx context.Context, deps PhotoListDeps, project string, photoType types.PhotoType, date string) ([]types.PhotoRecord, bool, error) {
	if deps.Cache == nil {
		return nil, false, fmt.Errorf("read photo list: missing deps")
	}
	row, err := deps.Cache.GetPartition(dbctx.Context{Ctx: ctx}, project, photoType, date)
	if err != nil {
		return nil, false, fmt.Errorf("read photo list %s/%s/%s: %w", project, photoType, date, err)
	}
	if row == nil {
		return nil, false, nil
	}
	var photos []types.PhotoRecord
	if len(row.Photos) > 0 {
		if err := json.Unmarshal(row.Photos, &photos); err != nil {
			return nil, false, fmt.Errorf("decode photo list %s/%s/%s: %w", project, photoType, date, err)
		}
	}
	return photos, true, nil
}

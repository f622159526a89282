package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldlens/photoverify/internal/cache"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/scanner"
	"github.com/fieldlens/photoverify/internal/source"

	types "github.com/fieldlens/photoverify/internal/domain"
)

// ScanHashes runs the incremental hash scan for one project. Safe to
// re-run over the same window; already-indexed photos are skipped.
func (a *App) ScanHashes(ctx context.Context, project string, days int) (scanner.HashScanOutput, error) {
	cfg, src, err := a.projectSource(project)
	if err != nil {
		return scanner.HashScanOutput{}, err
	}
	if days <= 0 {
		days = a.Cfg.ScanDays
	}
	return scanner.HashScan(ctx, scanner.HashScanDeps{
		Source:      src,
		HashEntries: a.Repos.HashEntries,
		Log:         a.Log,
		ImageRoot:   cfg.ImageRoot,
	}, scanner.HashScanInput{
		Project:    project,
		PhotoTypes: cfg.PhotoTypes,
		Days:       days,
		Filter:     source.FilterSpec{UserRoleID: cfg.Filters.UserRoleID},
	})
}

// RebuildDuplicates recomputes and atomically swaps the project's
// duplicate cache.
func (a *App) RebuildDuplicates(ctx context.Context, project string) (cache.RebuildDuplicatesOutput, error) {
	_, src, err := a.projectSource(project)
	if err != nil {
		return cache.RebuildDuplicatesOutput{}, err
	}
	return cache.RebuildDuplicates(ctx, cache.DuplicateDeps{
		Source:      src,
		HashEntries: a.Repos.HashEntries,
		Cache:       a.Repos.DuplicateCache,
		Log:         a.Log,
	}, project)
}

// GetDuplicates reads the cached duplicate groups, falling back to a live
// grouping pass when the project has no snapshot.
func (a *App) GetDuplicates(ctx context.Context, project string) ([]types.DuplicateGroup, bool, error) {
	_, src, err := a.projectSource(project)
	if err != nil {
		return nil, false, err
	}
	return cache.ReadDuplicates(ctx, cache.DuplicateDeps{
		Source:      src,
		HashEntries: a.Repos.HashEntries,
		Cache:       a.Repos.DuplicateCache,
		Log:         a.Log,
	}, project)
}

// RebuildPhotoList re-materializes the day-partitioned photo listings for
// every photo type the project uses.
func (a *App) RebuildPhotoList(ctx context.Context, project string, days int) (cache.RebuildPhotoListOutput, error) {
	cfg, src, err := a.projectSource(project)
	if err != nil {
		return cache.RebuildPhotoListOutput{}, err
	}
	if days <= 0 {
		days = a.Cfg.PhotoListDays
	}

	var total cache.RebuildPhotoListOutput
	for _, photoType := range cfg.PhotoTypes {
		out, err := cache.RebuildPhotoList(ctx, cache.PhotoListDeps{
			Source: src,
			Cache:  a.Repos.PhotoListCache,
			Log:    a.Log,
		}, cache.RebuildPhotoListInput{
			Project:   project,
			PhotoType: photoType,
			Days:      days,
			Filter:    source.FilterSpec{UserRoleID: cfg.Filters.UserRoleID},
		})
		if err != nil {
			return total, err
		}
		total.Photos += out.Photos
		total.Partitions += out.Partitions
		total.Dropped += out.Dropped
		total.Failed += out.Failed
	}
	return total, nil
}

// GetPhotoList reads one cached day partition.
func (a *App) GetPhotoList(ctx context.Context, project string, photoType types.PhotoType, date string) ([]types.PhotoRecord, bool, error) {
	return cache.ReadPhotoList(ctx, cache.PhotoListDeps{
		Cache: a.Repos.PhotoListCache,
		Log:   a.Log,
	}, project, photoType, date)
}

type VerifyPhotoInput struct {
	PhotoID    int64
	PhotoType  types.PhotoType
	VisitID    int64
	Status     string
	Note       string
	VerifiedBy string
}

// VerifyPhoto records a reviewer's decision; a later decision on the same
// photo replaces the earlier one.
func (a *App) VerifyPhoto(ctx context.Context, project string, in VerifyPhotoInput) error {
	if _, ok := a.Cfg.Project(project); !ok {
		return fmt.Errorf("unknown project %q", project)
	}
	switch in.Status {
	case types.VerificationVerified, types.VerificationRejected, types.VerificationSuspicious:
	default:
		return fmt.Errorf("unknown verification status %q", in.Status)
	}
	if !in.PhotoType.Valid() {
		return fmt.Errorf("unknown photo type %q", in.PhotoType)
	}
	return a.Repos.Verifications.Upsert(dbctx.Context{Ctx: ctx}, &types.Verification{
		Project:    project,
		PhotoType:  in.PhotoType,
		PhotoID:    in.PhotoID,
		VisitID:    in.VisitID,
		Status:     in.Status,
		Note:       in.Note,
		VerifiedBy: in.VerifiedBy,
		VerifiedAt: time.Now().UTC(),
	})
}

// GetVerification returns the decision for one photo, or nil when the
// photo has not been reviewed.
func (a *App) GetVerification(ctx context.Context, project string, photoType types.PhotoType, photoID int64) (*types.Verification, error) {
	return a.Repos.Verifications.GetByPhoto(dbctx.Context{Ctx: ctx}, project, photoType, photoID)
}

// Stats returns the project's dashboard counts for the last `days` days.
func (a *App) Stats(ctx context.Context, project string, days int) (source.Stats, error) {
	_, src, err := a.projectSource(project)
	if err != nil {
		return source.Stats{}, err
	}
	if days <= 0 {
		days = 7
	}
	to := time.Now()
	from := to.AddDate(0, 0, -days)
	return src.Stats(ctx, from, to)
}

package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fieldlens/photoverify/internal/data/repos"
	"github.com/fieldlens/photoverify/internal/dedup"
	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
	"github.com/fieldlens/photoverify/internal/source"
)

const (
	DefaultWindowDays = 30
	DefaultBatchSize  = 100
)

type HashScanDeps struct {
	Source      source.PhotoSource
	HashEntries repos.HashEntryRepo
	Log         *logger.Logger

	// ImageRoot is the local directory the normalized relative paths
	// resolve under.
	ImageRoot string
	// BatchSize bounds how many new entries are committed per
	// transaction; defaults to DefaultBatchSize.
	BatchSize int
}

type HashScanInput struct {
	Project    string
	PhotoTypes []types.PhotoType
	Days       int
	Filter     source.FilterSpec
}

// HashScanOutput reports what the scan did. No category is fatal; the
// scan always runs to the end of the window and reports partial results.
type HashScanOutput struct {
	Found          int `json:"found"`
	Processed      int `json:"processed"`
	AlreadyIndexed int `json:"already_indexed"`
	FileNotFound   int `json:"file_not_found"`
	HashErrors     int `json:"hash_errors"`
}

// HashScan walks the project's photos in a bounded recent window and
// indexes each file's content digest. Re-running over the same window is
// idempotent: already-indexed photos are skipped, not re-hashed.
func HashScan(ctx context.Context, deps HashScanDeps, in HashScanInput) (HashScanOutput, error) {
	out := HashScanOutput{}
	if deps.Source == nil || deps.HashEntries == nil || deps.Log == nil || deps.ImageRoot == "" {
		return out, fmt.Errorf("hash scan: missing deps")
	}
	if in.Project == "" {
		return out, fmt.Errorf("hash scan: missing project")
	}
	days := in.Days
	if days <= 0 {
		days = DefaultWindowDays
	}
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	log := deps.Log.With("step", "HashScan", "project", in.Project)
	dbc := dbctx.Context{Ctx: ctx}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	batch := make([]*types.HashEntry, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := deps.HashEntries.UpsertBatch(dbc, batch); err != nil {
			return fmt.Errorf("commit scan batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, photoType := range in.PhotoTypes {
		if !photoType.Valid() {
			log.Warn("skipping unknown photo type", "photo_type", photoType)
			continue
		}

		photos, err := deps.Source.ListPhotos(ctx, photoType, from, to, in.Filter)
		if err != nil {
			// One type's source query failing should not sink the rest
			// of the scan.
			log.Error("photo window query failed, skipping type",
				"photo_type", photoType, "error", err)
			continue
		}
		out.Found += len(photos)
		log.Info("scanning photo window",
			"photo_type", photoType, "photos", len(photos), "days", days)

		for _, photo := range photos {
			exists, err := deps.HashEntries.Exists(dbc, in.Project, photo.PhotoType, photo.PhotoID)
			if err != nil {
				return out, fmt.Errorf("index lookup: %w", err)
			}
			if exists {
				out.AlreadyIndexed++
				continue
			}

			rel := dedup.NormalizePath(photo.RawPath)
			if rel == "" {
				out.FileNotFound++
				continue
			}
			localPath := filepath.Join(deps.ImageRoot, filepath.FromSlash(rel))

			digest, size, err := dedup.HashFile(localPath)
			if errors.Is(err, dedup.ErrFileNotFound) {
				out.FileNotFound++
				continue
			}
			if err != nil {
				log.Warn("hash failed", "path", rel, "error", err)
				out.HashErrors++
				continue
			}

			batch = append(batch, &types.HashEntry{
				Project:      in.Project,
				PhotoType:    photo.PhotoType,
				PhotoID:      photo.PhotoID,
				VisitID:      photo.VisitID,
				Digest:       digest,
				FileSize:     size,
				RelativePath: rel,
				ScannedAt:    time.Now().UTC(),
			})
			out.Processed++

			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return out, err
				}
			}
		}

		if err := flush(); err != nil {
			return out, err
		}
	}

	log.Info("scan finished",
		"found", out.Found,
		"processed", out.Processed,
		"already_indexed", out.AlreadyIndexed,
		"file_not_found", out.FileNotFound,
		"hash_errors", out.HashErrors)
	return out, nil
}

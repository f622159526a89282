package dedup

import (
	"context"
	"fmt"

	"github.com/fieldlens/photoverify/internal/data/repos"
	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
	"github.com/fieldlens/photoverify/internal/source"
)

type GroupDeps struct {
	Source      source.PhotoSource
	HashEntries repos.HashEntryRepo
	Log         *logger.Logger
}

// GroupDuplicates recomputes the project's duplicate groups from the hash
// index. A digest qualifies with more than one entry. Each member is
// enriched through a point lookup against the photo source; a member whose
// photo can no longer be resolved stays in the group with empty metadata.
// Member order follows the index's fetch order and is not significant.
func GroupDuplicates(ctx context.Context, deps GroupDeps, project string) ([]types.DuplicateGroup, error) {
	if deps.Source == nil || deps.HashEntries == nil || deps.Log == nil {
		return nil, fmt.Errorf("group duplicates: missing deps")
	}
	log := deps.Log.With("step", "GroupDuplicates", "project", project)
	dbc := dbctx.Context{Ctx: ctx}

	digests, err := deps.HashEntries.DuplicateDigests(dbc, project)
	if err != nil {
		return nil, fmt.Errorf("duplicate digests for %s: %w", project, err)
	}

	groups := make([]types.DuplicateGroup, 0, len(digests))
	for _, dc := range digests {
		entries, err := deps.HashEntries.GetByDigest(dbc, project, dc.Digest)
		if err != nil {
			return nil, fmt.Errorf("entries for digest %s: %w", dc.Digest, err)
		}

		members := make([]types.DuplicateMember, 0, len(entries))
		for _, entry := range entries {
			member := types.DuplicateMember{
				PhotoID:      entry.PhotoID,
				PhotoType:    entry.PhotoType,
				VisitID:      entry.VisitID,
				RelativePath: entry.RelativePath,
			}

			detail, err := deps.Source.GetPhotoDetail(ctx, entry.PhotoID, entry.PhotoType, entry.VisitID)
			if err != nil {
				log.Warn("member lookup failed, keeping bare member",
					"photo_id", entry.PhotoID, "photo_type", entry.PhotoType, "error", err)
			} else if detail != nil {
				member.Personnel = detail.Personnel
				member.CustomerName = detail.CustomerName
				member.CustomerCode = detail.CustomerCode
				member.CapturedAt = detail.CapturedAt
				member.VisitLat = detail.VisitLat
				member.VisitLon = detail.VisitLon
				member.CustomerLat = detail.CustomerLat
				member.CustomerLon = detail.CustomerLon

				if detail.VisitLat != nil && detail.VisitLon != nil &&
					detail.CustomerLat != nil && detail.CustomerLon != nil {
					d := DistanceKM(*detail.VisitLat, *detail.VisitLon, *detail.CustomerLat, *detail.CustomerLon)
					member.DistanceKM = &d
				}
			}

			members = append(members, member)
		}

		groups = append(groups, types.DuplicateGroup{
			Digest:      dc.Digest,
			MemberCount: len(members),
			Members:     members,
		})
	}

	log.Debug("grouping complete", "groups", len(groups))
	return groups, nil
}

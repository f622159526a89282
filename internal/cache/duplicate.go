package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/fieldlens/photoverify/internal/data/repos"
	"github.com/fieldlens/photoverify/internal/dedup"
	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
	"github.com/fieldlens/photoverify/internal/source"
)

type DuplicateDeps struct {
	Source      source.PhotoSource
	HashEntries repos.HashEntryRepo
	Cache       repos.DuplicateCacheRepo
	Log         *logger.Logger
}

type RebuildDuplicatesOutput struct {
	Groups  int           `json:"groups"`
	Members int           `json:"members"`
	Took    time.Duration `json:"took"`
}

// RebuildDuplicates recomputes the project's duplicate groups and swaps
// the persisted snapshot set in one transaction. A failure before commit
// leaves the previous cache intact; racing rebuilds resolve to whichever
// commits last.
func RebuildDuplicates(ctx context.Context, deps DuplicateDeps, project string) (RebuildDuplicatesOutput, error) {
	out := RebuildDuplicatesOutput{}
	if deps.Source == nil || deps.HashEntries == nil || deps.Cache == nil || deps.Log == nil {
		return out, fmt.Errorf("rebuild duplicates: missing deps")
	}
	log := deps.Log.With("step", "RebuildDuplicates", "project", project)
	started := time.Now()

	groups, err := dedup.GroupDuplicates(ctx, dedup.GroupDeps{
		Source:      deps.Source,
		HashEntries: deps.HashEntries,
		Log:         deps.Log,
	}, project)
	if err != nil {
		return out, err
	}

	rows := make([]*types.DuplicateSnapshot, 0, len(groups))
	computedAt := time.Now().UTC()
	for _, group := range groups {
		members, err := json.Marshal(group.Members)
		if err != nil {
			return out, fmt.Errorf("marshal members for digest %s: %w", group.Digest, err)
		}
		rows = append(rows, &types.DuplicateSnapshot{
			Project:     project,
			Digest:      group.Digest,
			MemberCount: group.MemberCount,
			Members:     datatypes.JSON(members),
			ComputedAt:  computedAt,
		})
		out.Members += group.MemberCount
	}

	if err := deps.Cache.ReplaceProject(dbctx.Context{Ctx: ctx}, project, rows); err != nil {
		return out, fmt.Errorf("swap duplicate cache for %s: %w", project, err)
	}

	out.Groups = len(rows)
	out.Took = time.Since(started)
	log.Info("duplicate cache rebuilt", "groups", out.Groups, "members", out.Members, "took", out.Took)
	return out, nil
}

// ReadDuplicates returns the project's duplicate groups. Snapshot rows,
// when present, are deserialized verbatim (cached=true) regardless of
// age; staleness is the rebuild scheduler's problem. With no snapshot the
// groups are computed live (cached=false).
func ReadDuplicates(ctx context.Context, deps DuplicateDeps, project string) ([]types.DuplicateGroup, bool, error) {
	if deps.Cache == nil || deps.Log == nil {
		return nil, false, fmt.Errorf("read duplicates: missing deps")
	}

	rows, err := deps.Cache.GetByProject(dbctx.Context{Ctx: ctx}, project)
	if err != nil {
		return nil, false, fmt.Errorf("read duplicate cache for %s: %w", project, err)
	}

	if len(rows) == 0 {
		groups, err := dedup.GroupDuplicates(ctx, dedup.GroupDeps{
			Source:      deps.Source,
			HashEntries: deps.HashEntries,
			Log:         deps.Log,
		}, project)
		if err != nil {
			return nil, false, err
		}
		return groups, false, nil
	}

	groups := make([]types.DuplicateGroup, 0, len(rows))
	for _, row := range rows {
		var members []types.DuplicateMember
		if len(row.Members) > 0 {
			if err := json.Unmarshal(row.Members, &members); err != nil {
				return nil, false, fmt.Errorf("decode snapshot %s/%s: %w", project, row.Digest, err)
			}
		}
		groups = append(groups, types.DuplicateGroup{
			Digest:      row.Digest,
			MemberCount: row.MemberCount,
			Members:     members,
		})
	}
	return groups, true, nil
}

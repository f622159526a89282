package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fieldlens/photoverify/internal/data/repos"
	types "github.com/fieldlens/photoverify/internal/domain"
	"github.com/fieldlens/photoverify/internal/platform/dbctx"
	"github.com/fieldlens/photoverify/internal/platform/logger"
	"github.com/fieldlens/photoverify/internal/source"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type stubHashRepo struct {
	entries map[string][]*types.HashEntry // digest -> entries
}

func (s *stubHashRepo) Exists(dbctx.Context, string, types.PhotoType, int64) (bool, error) {
	return false, nil
}
func (s *stubHashRepo) Upsert(dbctx.Context, *types.HashEntry) error        { return nil }
func (s *stubHashRepo) UpsertBatch(dbctx.Context, []*types.HashEntry) error { return nil }

func (s *stubHashRepo) DuplicateDigests(_ dbctx.Context, _ string) ([]repos.DigestCount, error) {
	var out []repos.DigestCount
	for digest, entries := range s.entries {
		if len(entries) > 1 {
			out = append(out, repos.DigestCount{Digest: digest, Count: len(entries)})
		}
	}
	return out, nil
}

func (s *stubHashRepo) GetByDigest(_ dbctx.Context, _ string, digest string) ([]*types.HashEntry, error) {
	return s.entries[digest], nil
}

func (s *stubHashRepo) CountByProject(dbctx.Context, string) (int64, error) { return 0, nil }

type stubSource struct {
	details map[int64]*types.PhotoRecord
	failIDs map[int64]bool
}

func (s *stubSource) ListPhotos(context.Context, types.PhotoType, time.Time, time.Time, source.FilterSpec) ([]types.PhotoRecord, error) {
	return nil, nil
}

func (s *stubSource) GetPhotoDetail(_ context.Context, photoID int64, _ types.PhotoType, _ int64) (*types.PhotoRecord, error) {
	if s.failIDs[photoID] {
		return nil, errors.New("source unavailable")
	}
	return s.details[photoID], nil
}

func (s *stubSource) ListPersonnel(context.Context, time.Time, time.Time) ([]source.Person, error) {
	return nil, nil
}
func (s *stubSource) ListCustomers(context.Context, time.Time, time.Time) ([]source.Customer, error) {
	return nil, nil
}
func (s *stubSource) Stats(context.Context, time.Time, time.Time) (source.Stats, error) {
	return source.Stats{}, nil
}

func ptr(f float64) *float64 { return &f }

func TestGroupDuplicatesThreshold(t *testing.T) {
	repo := &stubHashRepo{entries: map[string][]*types.HashEntry{
		"aaa": {
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 1, VisitID: 10, Digest: "aaa"},
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 2, VisitID: 11, Digest: "aaa"},
		},
		"bbb": {
			{Project: "p1", PhotoType: types.PhotoTypeVisit, PhotoID: 3, VisitID: 3, Digest: "bbb"},
		},
	}}
	src := &stubSource{details: map[int64]*types.PhotoRecord{}}

	groups, err := GroupDuplicates(context.Background(), GroupDeps{
		Source:      src,
		HashEntries: repo,
		Log:         testLogger(),
	}, "p1")
	if err != nil {
		t.Fatalf("GroupDuplicates: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (singletons excluded)", len(groups))
	}
	if groups[0].Digest != "aaa" || groups[0].MemberCount != 2 {
		t.Fatalf("unexpected group %+v", groups[0])
	}
}

func TestGroupDuplicatesEnrichment(t *testing.T) {
	captured := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo := &stubHashRepo{entries: map[string][]*types.HashEntry{
		"aaa": {
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 1, VisitID: 10, Digest: "aaa", RelativePath: "2025/06/01/a.jpg"},
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 2, VisitID: 11, Digest: "aaa", RelativePath: "2025/06/01/b.jpg"},
		},
	}}
	src := &stubSource{details: map[int64]*types.PhotoRecord{
		1: {
			PhotoID:      1,
			Personnel:    "Ayşe Yılmaz",
			CustomerCode: "C001",
			CustomerName: "Merkez Market",
			CapturedAt:   &captured,
			VisitLat:     ptr(41.0),
			VisitLon:     ptr(29.0),
			CustomerLat:  ptr(41.0),
			CustomerLon:  ptr(29.01),
		},
		// Photo 2 has no coordinates.
		2: {PhotoID: 2, Personnel: "Mehmet Kaya"},
	}}

	groups, err := GroupDuplicates(context.Background(), GroupDeps{
		Source:      src,
		HashEntries: repo,
		Log:         testLogger(),
	}, "p1")
	if err != nil {
		t.Fatalf("GroupDuplicates: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Members) != 2 {
		t.Fatalf("unexpected groups %+v", groups)
	}

	byID := map[int64]types.DuplicateMember{}
	for _, m := range groups[0].Members {
		byID[m.PhotoID] = m
	}

	m1 := byID[1]
	if m1.Personnel != "Ayşe Yılmaz" || m1.CustomerCode != "C001" {
		t.Fatalf("member 1 not enriched: %+v", m1)
	}
	if m1.DistanceKM == nil {
		t.Fatal("member 1 missing distance despite full coordinates")
	}
	if *m1.DistanceKM < 0.5 || *m1.DistanceKM > 1.5 {
		t.Fatalf("member 1 distance = %v, want ~0.84", *m1.DistanceKM)
	}

	m2 := byID[2]
	if m2.DistanceKM != nil {
		t.Fatalf("member 2 has distance %v without coordinates", *m2.DistanceKM)
	}
	if m2.RelativePath != "2025/06/01/b.jpg" {
		t.Fatalf("member 2 lost index fields: %+v", m2)
	}
}

func TestGroupDuplicatesKeepsBareMemberOnLookupFailure(t *testing.T) {
	repo := &stubHashRepo{entries: map[string][]*types.HashEntry{
		"aaa": {
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 1, Digest: "aaa", RelativePath: "x.jpg"},
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 2, Digest: "aaa", RelativePath: "y.jpg"},
		},
	}}
	src := &stubSource{
		details: map[int64]*types.PhotoRecord{1: {PhotoID: 1, Personnel: "Ali"}},
		failIDs: map[int64]bool{2: true},
	}

	groups, err := GroupDuplicates(context.Background(), GroupDeps{
		Source:      src,
		HashEntries: repo,
		Log:         testLogger(),
	}, "p1")
	if err != nil {
		t.Fatalf("GroupDuplicates: %v", err)
	}
	if len(groups) != 1 || groups[0].MemberCount != 2 {
		t.Fatalf("lookup failure shrank the group: %+v", groups)
	}
	for _, m := range groups[0].Members {
		if m.PhotoID == 2 && m.Personnel != "" {
			t.Fatalf("failed lookup produced enrichment: %+v", m)
		}
	}
}

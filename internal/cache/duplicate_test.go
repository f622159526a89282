package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

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
	entries map[string][]*types.HashEntry
}

func (s *stubHashRepo) Exists(dbctx.Context, string, types.PhotoType, int64) (bool, error) {
	return false, nil
}
func (s *stubHashRepo) Upsert(dbctx.Context, *types.HashEntry) error        { return nil }
func (s *stubHashRepo) UpsertBatch(dbctx.Context, []*types.HashEntry) error { return nil }

func (s *stubHashRepo) DuplicateDigests(dbctx.Context, string) ([]repos.DigestCount, error) {
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

type stubSource struct{}

func (stubSource) ListPhotos(context.Context, types.PhotoType, time.Time, time.Time, source.FilterSpec) ([]types.PhotoRecord, error) {
	return nil, nil
}
func (stubSource) GetPhotoDetail(context.Context, int64, types.PhotoType, int64) (*types.PhotoRecord, error) {
	return nil, nil
}
func (stubSource) ListPersonnel(context.Context, time.Time, time.Time) ([]source.Person, error) {
	return nil, nil
}
func (stubSource) ListCustomers(context.Context, time.Time, time.Time) ([]source.Customer, error) {
	return nil, nil
}
func (stubSource) Stats(context.Context, time.Time, time.Time) (source.Stats, error) {
	return source.Stats{}, nil
}

// memDuplicateCache swaps the whole per-project set under one lock, the
// same all-or-nothing contract the real repo provides via a transaction.
type memDuplicateCache struct {
	mu           sync.Mutex
	rows         map[string][]*types.DuplicateSnapshot
	replaceCalls int
	replaceErr   error
	swapDelay    time.Duration
}

func newMemDuplicateCache() *memDuplicateCache {
	return &memDuplicateCache{rows: map[string][]*types.DuplicateSnapshot{}}
}

func (m *memDuplicateCache) ReplaceProject(_ dbctx.Context, project string, rows []*types.DuplicateSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	if m.swapDelay > 0 {
		time.Sleep(m.swapDelay)
	}
	m.rows[project] = rows
	return nil
}

func (m *memDuplicateCache) GetByProject(_ dbctx.Context, project string) ([]*types.DuplicateSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.DuplicateSnapshot, len(m.rows[project]))
	copy(out, m.rows[project])
	return out, nil
}

func (m *memDuplicateCache) CountByProject(_ dbctx.Context, project string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows[project])), nil
}

func dupIndex() *stubHashRepo {
	return &stubHashRepo{entries: map[string][]*types.HashEntry{
		"aaa": {
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 1, Digest: "aaa"},
			{Project: "p1", PhotoType: types.PhotoTypeExhibition, PhotoID: 2, Digest: "aaa"},
		},
		"bbb": {
			{Project: "p1", PhotoType: types.PhotoTypeVisit, PhotoID: 3, Digest: "bbb"},
			{Project: "p1", PhotoType: types.PhotoTypeVisit, PhotoID: 4, Digest: "bbb"},
			{Project: "p1", PhotoType: types.PhotoTypeVisit, PhotoID: 5, Digest: "bbb"},
		},
	}}
}

func TestRebuildDuplicatesSwapsInOneCall(t *testing.T) {
	store := newMemDuplicateCache()
	// Stale snapshot from a previous rebuild.
	store.rows["p1"] = []*types.DuplicateSnapshot{
		{Project: "p1", Digest: "old", MemberCount: 2},
	}

	out, err := RebuildDuplicates(context.Background(), DuplicateDeps{
		Source:      stubSource{},
		HashEntries: dupIndex(),
		Cache:       store,
		Log:         testLogger(),
	}, "p1")
	if err != nil {
		t.Fatalf("RebuildDuplicates: %v", err)
	}
	if out.Groups != 2 || out.Members != 5 {
		t.Fatalf("unexpected output %+v", out)
	}
	if store.replaceCalls != 1 {
		t.Fatalf("replace calls = %d, want exactly 1 (one atomic swap)", store.replaceCalls)
	}

	rows := store.rows["p1"]
	if len(rows) != 2 {
		t.Fatalf("stored rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Digest == "old" {
			t.Fatal("stale snapshot survived the swap")
		}
		var members []types.DuplicateMember
		if err := json.Unmarshal(row.Members, &members); err != nil {
			t.Fatalf("stored members not valid JSON: %v", err)
		}
		if len(members) != row.MemberCount {
			t.Fatalf("member_count %d disagrees with payload %d", row.MemberCount, len(members))
		}
	}
}

func TestRebuildDuplicatesFailureKeepsOldCache(t *testing.T) {
	store := newMemDuplicateCache()
	store.rows["p1"] = []*types.DuplicateSnapshot{
		{Project: "p1", Digest: "old", MemberCount: 2},
	}
	store.replaceErr = errors.New("disk full")

	_, err := RebuildDuplicates(context.Background(), DuplicateDeps{
		Source:      stubSource{},
		HashEntries: dupIndex(),
		Cache:       store,
		Log:         testLogger(),
	}, "p1")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.rows["p1"]) != 1 || store.rows["p1"][0].Digest != "old" {
		t.Fatalf("failed rebuild disturbed the old cache: %+v", store.rows["p1"])
	}
}

func TestRebuildDuplicatesReaderSeesWholeSets(t *testing.T) {
	store := newMemDuplicateCache()
	store.rows["p1"] = []*types.DuplicateSnapshot{
		{Project: "p1", Digest: "old-1", MemberCount: 2},
		{Project: "p1", Digest: "old-2", MemberCount: 2},
	}
	store.swapDelay = 5 * time.Millisecond

	deps := DuplicateDeps{
		Source:      stubSource{},
		HashEntries: dupIndex(),
		Cache:       store,
		Log:         testLogger(),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := RebuildDuplicates(context.Background(), deps, "p1"); err != nil {
			t.Errorf("RebuildDuplicates: %v", err)
		}
	}()

	dbc := dbctx.Context{Ctx: context.Background()}
	for i := 0; i < 50; i++ {
		rows, err := store.GetByProject(dbc, "p1")
		if err != nil {
			t.Fatalf("GetByProject: %v", err)
		}
		old, fresh := 0, 0
		for _, row := range rows {
			if row.Digest == "old-1" || row.Digest == "old-2" {
				old++
			} else {
				fresh++
			}
		}
		if old > 0 && fresh > 0 {
			t.Fatalf("reader saw a mixed snapshot: %d old, %d new", old, fresh)
		}
	}
	<-done
}

func TestReadDuplicatesServesSnapshotVerbatim(t *testing.T) {
	// The snapshot deliberately disagrees with the live index; reads must
	// not recompute.
	members, _ := json.Marshal([]types.DuplicateMember{
		{PhotoID: 99, PhotoType: types.PhotoTypeExhibition},
		{PhotoID: 100, PhotoType: types.PhotoTypeExhibition},
	})
	store := newMemDuplicateCache()
	store.rows["p1"] = []*types.DuplicateSnapshot{
		{Project: "p1", Digest: "frozen", MemberCount: 2, Members: datatypes.JSON(members)},
	}

	groups, cached, err := ReadDuplicates(context.Background(), DuplicateDeps{
		Source:      stubSource{},
		HashEntries: dupIndex(),
		Cache:       store,
		Log:         testLogger(),
	}, "p1")
	if err != nil {
		t.Fatalf("ReadDuplicates: %v", err)
	}
	if !cached {
		t.Fatal("cached = false with snapshot rows present")
	}
	if len(groups) != 1 || groups[0].Digest != "frozen" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if len(groups[0].Members) != 2 || groups[0].Members[0].PhotoID != 99 {
		t.Fatalf("snapshot members not served verbatim: %+v", groups[0].Members)
	}
}

func TestReadDuplicatesFallsBackToLiveGrouping(t *testing.T) {
	store := newMemDuplicateCache()

	groups, cached, err := ReadDuplicates(context.Background(), DuplicateDeps{
		Source:      stubSource{},
		HashEntries: dupIndex(),
		Cache:       store,
		Log:         testLogger(),
	}, "p1")
	if err != nil {
		t.Fatalf("ReadDuplicates: %v", err)
	}
	if cached {
		t.Fatal("cached = true with empty snapshot")
	}
	if len(groups) != 2 {
		t.Fatalf("live fallback groups = %d, want 2", len(groups))
	}
	if len(store.rows["p1"]) != 0 {
		t.Fatal("read path must not write the cache")
	}
}

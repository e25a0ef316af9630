package repository

import (
	"errors"
	"testing"

	"github.com/loadbid-next/internal/models"
)

func TestAuctionRepositoryCreateRejectsDuplicate(t *testing.T) {
	db := setupAuctionRepositoryTest(t)
	repo := NewAuctionRepository(db)

	first := &models.Auction{AuctionID: "LB-1001", ReceivedAt: mustTime(t, "2025-11-03T12:00:00Z")}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create auction failed: %v", err)
	}
	dup := &models.Auction{AuctionID: "LB-1001", ReceivedAt: mustTime(t, "2025-11-03T13:00:00Z")}
	if err := repo.Create(dup); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}

	got, err := repo.GetByAuctionID("LB-1001")
	if err != nil || got == nil {
		t.Fatalf("get auction failed: %v", err)
	}
	if !got.ReceivedAt.Equal(first.ReceivedAt) {
		t.Fatalf("duplicate intake must not overwrite received_at, got %s", got.ReceivedAt)
	}
}

func TestAuctionRepositoryArchiveChunksAreIdempotent(t *testing.T) {
	db := setupAuctionRepositoryTest(t)
	repo := NewAuctionRepository(db)

	received := []string{
		"2025-11-03T00:00:00Z",
		"2025-11-03T12:00:00Z",
		"2025-11-04T04:59:59Z",
		"2025-11-04T05:00:20Z",
		"2025-11-02T23:59:59Z",
	}
	for i, raw := range received {
		a := &models.Auction{AuctionID: "LB-20" + string(rune('A'+i)), ReceivedAt: mustTime(t, raw)}
		if err := repo.Create(a); err != nil {
			t.Fatalf("create auction %d failed: %v", i, err)
		}
	}

	from := mustTime(t, "2025-11-03T00:00:00Z")
	to := mustTime(t, "2025-11-04T05:00:00Z")
	stamp := mustTime(t, "2025-11-04T04:59:59Z")

	var archived []ArchivedRef
	var cursor uint
	for {
		ids, err := repo.ListArchiveCandidateIDs(from, to, cursor, 2)
		if err != nil {
			t.Fatalf("list candidates failed: %v", err)
		}
		if len(ids) == 0 {
			break
		}
		cursor = ids[len(ids)-1]
		refs, err := repo.ArchiveByIDs(ids, stamp)
		if err != nil {
			t.Fatalf("archive chunk failed: %v", err)
		}
		archived = append(archived, refs...)
	}
	if len(archived) != 3 {
		t.Fatalf("expected 3 archived rows, got %d: %+v", len(archived), archived)
	}

	ids, err := repo.ListArchiveCandidateIDs(from, to, 0, 10)
	if err != nil {
		t.Fatalf("list candidates failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("second pass should find nothing, got %v", ids)
	}
	again, err := repo.ArchiveByIDs([]uint{1, 2, 3}, stamp)
	if err != nil {
		t.Fatalf("re-archive failed: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("re-archive should be a no-op, got %+v", again)
	}

	rows, total, err := repo.ListArchived(ArchivedListFilter{ArchivedAt: stamp})
	if err != nil {
		t.Fatalf("list archived failed: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("expected 3 rows under stamp, got total=%d len=%d", total, len(rows))
	}
	for _, row := range rows {
		if !row.IsArchived || row.ArchivedAt == nil || !row.ArchivedAt.Equal(stamp) {
			t.Fatalf("row %s not archived consistently: %+v", row.AuctionID, row)
		}
	}
}

func TestAuctionRepositoryListFilters(t *testing.T) {
	db := setupAuctionRepositoryTest(t)
	repo := NewAuctionRepository(db)

	seed := []models.Auction{
		{AuctionID: "TX-1", Tag: "TX", Published: true, ReceivedAt: mustTime(t, "2025-11-03T10:00:00Z")},
		{AuctionID: "TX-2", Tag: "TX", ReceivedAt: mustTime(t, "2025-11-03T11:00:00Z")},
		{AuctionID: "OK-1", Tag: "OK", Published: true, ReceivedAt: mustTime(t, "2025-11-03T12:00:00Z")},
	}
	for i := range seed {
		if err := repo.Create(&seed[i]); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	rows, total, err := repo.List(AuctionListFilter{Tag: "tx", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || rows[0].AuctionID != "TX-2" {
		t.Fatalf("unexpected tag listing: total=%d rows=%+v", total, rows)
	}

	rows, total, err = repo.List(AuctionListFilter{OnlyPublished: true, Search: "ok"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || rows[0].AuctionID != "OK-1" {
		t.Fatalf("unexpected published search: total=%d rows=%+v", total, rows)
	}

	found, err := repo.SetPublished("TX-2", true)
	if err != nil || !found {
		t.Fatalf("set published failed: found=%v err=%v", found, err)
	}
	found, err = repo.SetPublished("NOPE", true)
	if err != nil || found {
		t.Fatalf("unknown auction should not be found: found=%v err=%v", found, err)
	}
}

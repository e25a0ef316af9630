package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/queue"
	"github.com/loadbid-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSink struct {
	mu   sync.Mutex
	jobs []queue.NotificationPayload
	err  error
}

func (s *recordingSink) Deliver(_ context.Context, payload queue.NotificationPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, payload)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) byKind(kind string) []queue.NotificationPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []queue.NotificationPayload
	for _, job := range s.jobs {
		if job.Kind == kind {
			out = append(out, job)
		}
	}
	return out
}

type lifecycleFixture struct {
	db          *gorm.DB
	clock       *fakeClock
	sink        *recordingSink
	relay       *NotificationRelay
	lifecycle   *LifecycleRecorder
	eligibility *EligibilityService
	awards      *AwardService
	offers      *OfferService
	auctions    *AuctionService
	archive     *ArchiveService
	auctionRepo *repository.GormAuctionRepository
}

func setupLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:lifecycle_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	clock := &fakeClock{now: time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)}
	sink := &recordingSink{}
	relay := NewNotificationRelay(nil, sink, []string{"dispatch@example.com"})
	relay.nowFn = clock.Now

	auctionRepo := repository.NewAuctionRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	awardRepo := repository.NewAwardRepository(db)
	lifecycle := NewLifecycleRecorder(repository.NewLifecycleEventRepository(db))
	lifecycle.nowFn = clock.Now

	eligibility := NewEligibilityService(repository.NewEligibilityRepository(db), nil, 0)
	eligibility.nowFn = clock.Now

	awards := NewAwardService(auctionRepo, offerRepo, awardRepo, lifecycle, relay, DefaultWindowDuration)
	awards.nowFn = clock.Now
	offers := NewOfferService(auctionRepo, offerRepo, awardRepo, eligibility, awards, lifecycle, relay, DefaultWindowDuration)
	offers.nowFn = clock.Now

	businessClock, err := NewBusinessClock("UTC", DefaultArchiveCutoff)
	if err != nil {
		t.Fatalf("business clock failed: %v", err)
	}
	display, err := NewDisplayZone(DefaultDisplayTimezone)
	if err != nil {
		t.Fatalf("display zone failed: %v", err)
	}
	auctions := NewAuctionService(auctionRepo, offerRepo, awardRepo, awards, lifecycle, AuctionSettings{
		Window:  DefaultWindowDuration,
		Clock:   businessClock,
		Display: display,
	})
	auctions.nowFn = clock.Now
	archive := NewArchiveService(auctionRepo, awardRepo, lifecycle, businessClock, display, 2)
	archive.nowFn = clock.Now

	t.Cleanup(relay.Wait)
	return &lifecycleFixture{
		db:          db,
		clock:       clock,
		sink:        sink,
		relay:       relay,
		lifecycle:   lifecycle,
		eligibility: eligibility,
		awards:      awards,
		offers:      offers,
		auctions:    auctions,
		archive:     archive,
		auctionRepo: auctionRepo,
	}
}

func (f *lifecycleFixture) intake(t *testing.T, auctionID string, receivedAt time.Time) *models.Auction {
	t.Helper()
	auction, err := f.auctions.Intake(context.Background(), IntakeAuctionInput{
		AuctionID:  auctionID,
		Distance:   420,
		RouteStops: []string{"Dallas, TX", "Memphis, TN"},
		Tag:        "tx",
		ReceivedAt: &receivedAt,
	})
	if err != nil {
		t.Fatalf("intake %s failed: %v", auctionID, err)
	}
	return auction
}

func (f *lifecycleFixture) submit(t *testing.T, auctionID, bidderID string, amount int64) *OfferReceipt {
	t.Helper()
	receipt, err := f.offers.Submit(context.Background(), SubmitOfferInput{
		AuctionID:        auctionID,
		BidderID:         bidderID,
		OperatingNumber:  "MC-" + bidderID,
		AmountMinorUnits: amount,
	})
	if err != nil {
		t.Fatalf("submit offer %s/%s failed: %v", auctionID, bidderID, err)
	}
	return receipt
}

func (f *lifecycleFixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var total int64
	tx := f.db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&total).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return total
}

func requireRejection(t *testing.T, err error, reason string) *OfferRejection {
	t.Helper()
	var rejection *OfferRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected offer rejection %s, got %v", reason, err)
	}
	if rejection.Reason != reason {
		t.Fatalf("expected rejection reason %s, got %s", reason, rejection.Reason)
	}
	return rejection
}

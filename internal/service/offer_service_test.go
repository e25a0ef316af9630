package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
)

func TestIntakeRejectsDuplicateAuctionID(t *testing.T) {
	f := setupLifecycleFixture(t)
	auction := f.intake(t, "LB-100", f.clock.Now())
	if auction.Tag != "TX" {
		t.Fatalf("tag should be upper-cased, got %s", auction.Tag)
	}
	if !auction.Published {
		t.Fatalf("auction should be published by default")
	}

	receivedAt := f.clock.Now()
	_, err := f.auctions.Intake(context.Background(), IntakeAuctionInput{AuctionID: "LB-100", ReceivedAt: &receivedAt})
	if !errors.Is(err, ErrAuctionExists) {
		t.Fatalf("expected ErrAuctionExists, got %v", err)
	}
	if got := f.count(t, &models.Auction{}, ""); got != 1 {
		t.Fatalf("expected 1 auction row, got %d", got)
	}
	if got := f.count(t, &models.LifecycleEvent{}, "event_type = ?", models.EventReceived); got != 1 {
		t.Fatalf("expected 1 received event, got %d", got)
	}
}

func TestIntakeDefaultsReceivedAtToNow(t *testing.T) {
	f := setupLifecycleFixture(t)
	auction, err := f.auctions.Intake(context.Background(), IntakeAuctionInput{AuctionID: " LB-101 "})
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}
	if auction.AuctionID != "LB-101" {
		t.Fatalf("auction id should be trimmed, got %q", auction.AuctionID)
	}
	if !auction.ReceivedAt.Equal(f.clock.Now()) {
		t.Fatalf("received_at should default to now, got %s", auction.ReceivedAt)
	}
	if _, err := f.auctions.Intake(context.Background(), IntakeAuctionInput{AuctionID: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitOfferReturnsWindowAndLeader(t *testing.T) {
	f := setupLifecycleFixture(t)
	f.intake(t, "LB-200", f.clock.Now())

	f.clock.Advance(5 * time.Minute)
	first := f.submit(t, "LB-200", "carrier-a", 150000)
	if !first.Window.Open || first.Window.SecondsRemaining != 20*60 {
		t.Fatalf("unexpected window: %+v", first.Window)
	}
	if !first.IsLeading || first.OfferCount != 1 {
		t.Fatalf("first offer should lead: %+v", first)
	}

	f.clock.Advance(time.Minute)
	second := f.submit(t, "LB-200", "carrier-b", 140000)
	if !second.IsLeading {
		t.Fatalf("lower offer should lead")
	}

	third := f.submit(t, "LB-200", "carrier-a", 145000)
	if third.IsLeading {
		t.Fatalf("higher offer should not lead")
	}
	if third.LeadingOffer == nil || third.LeadingOffer.AmountMinor != 140000 {
		t.Fatalf("unexpected leading offer: %+v", third.LeadingOffer)
	}
	if third.LeadingOffer.BidderID != "" {
		t.Fatalf("leader identity must be hidden from other bidders, got %s", third.LeadingOffer.BidderID)
	}
	if third.OfferCount != 3 {
		t.Fatalf("expected 3 offers, got %d", third.OfferCount)
	}

	f.relay.Wait()
	if got := len(f.sink.byKind(constants.NotificationOfferAccepted)); got != 3 {
		t.Fatalf("expected 3 accepted notifications, got %d", got)
	}
	admin := f.sink.byKind(constants.NotificationBidReceived)
	if len(admin) != 3 || admin[0].RecipientType != constants.RecipientAdmin {
		t.Fatalf("expected admin bid_received notifications, got %+v", admin)
	}
	if got := f.count(t, &models.LifecycleEvent{}, "event_type = ?", models.EventBidPlaced); got != 3 {
		t.Fatalf("expected 3 bid_placed events, got %d", got)
	}
}

func TestSubmitOfferValidation(t *testing.T) {
	f := setupLifecycleFixture(t)
	f.intake(t, "LB-210", f.clock.Now())

	cases := []struct {
		name  string
		input SubmitOfferInput
		want  error
	}{
		{name: "missing auction", input: SubmitOfferInput{BidderID: "a", AmountMinorUnits: 1}, want: ErrInvalidAuctionID},
		{name: "missing bidder", input: SubmitOfferInput{AuctionID: "LB-210", AmountMinorUnits: 1}, want: ErrInvalidBidderID},
		{name: "zero amount", input: SubmitOfferInput{AuctionID: "LB-210", BidderID: "a"}, want: ErrInvalidAmount},
		{name: "negative amount", input: SubmitOfferInput{AuctionID: "LB-210", BidderID: "a", AmountMinorUnits: -5}, want: ErrInvalidAmount},
		{name: "unknown auction", input: SubmitOfferInput{AuctionID: "LB-404", BidderID: "a", AmountMinorUnits: 1}, want: ErrAuctionNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.offers.Submit(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if got := f.count(t, &models.Offer{}, ""); got != 0 {
		t.Fatalf("invalid offers must not persist, got %d", got)
	}
}

func TestSubmitOfferAfterExpiryRejectedAndAdjudicated(t *testing.T) {
	f := setupLifecycleFixture(t)
	receivedAt := f.clock.Now()
	f.intake(t, "LB-220", receivedAt)
	f.submit(t, "LB-220", "carrier-a", 99000)

	f.clock.Set(receivedAt.Add(25*time.Minute + time.Second))
	_, err := f.offers.Submit(context.Background(), SubmitOfferInput{
		AuctionID:        "LB-220",
		BidderID:         "carrier-b",
		AmountMinorUnits: 90000,
	})
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("expected ErrWindowClosed, got %v", err)
	}
	rejection := requireRejection(t, err, constants.RejectReasonWindowClosed)
	if rejection.SecondsRemaining != 0 {
		t.Fatalf("closed window should report 0 seconds, got %d", rejection.SecondsRemaining)
	}

	award, err := f.awards.GetAward("LB-220")
	if err != nil || award == nil {
		t.Fatalf("late offer should trigger adjudication, award=%+v err=%v", award, err)
	}
	if award.WinnerID != "carrier-a" || award.AwardedBy != constants.AwardedBySystem || award.Manual {
		t.Fatalf("unexpected award: %+v", award)
	}
	if got := f.count(t, &models.Offer{}, ""); got != 1 {
		t.Fatalf("late offer must not persist, got %d offers", got)
	}

	f.relay.Wait()
	rejected := f.sink.byKind(constants.NotificationOfferRejected)
	if len(rejected) != 1 || rejected[0].Recipient != "carrier-b" {
		t.Fatalf("expected one rejection notification for carrier-b, got %+v", rejected)
	}
}

func TestSubmitOfferOneSecondBeforeExpiryAccepted(t *testing.T) {
	f := setupLifecycleFixture(t)
	receivedAt := f.clock.Now()
	f.intake(t, "LB-225", receivedAt)
	f.clock.Set(receivedAt.Add(25*time.Minute - time.Second))
	receipt := f.submit(t, "LB-225", "carrier-a", 5000)
	if receipt.Window.SecondsRemaining != 1 {
		t.Fatalf("expected 1 second remaining, got %d", receipt.Window.SecondsRemaining)
	}
}

func TestSubmitOfferIneligibleUntilEnabled(t *testing.T) {
	f := setupLifecycleFixture(t)
	ctx := context.Background()
	f.intake(t, "LB-230", f.clock.Now())

	if _, err := f.eligibility.Disable(ctx, EligibilityChangeInput{
		OperatingNumber: "mc-777",
		Reason:          "insurance lapsed",
		Actor:           "admin-1",
	}); err != nil {
		t.Fatalf("disable failed: %v", err)
	}

	input := SubmitOfferInput{AuctionID: "LB-230", BidderID: "carrier-x", OperatingNumber: " MC-777 ", AmountMinorUnits: 1000}
	_, err := f.offers.Submit(ctx, input)
	if !errors.Is(err, ErrIneligible) {
		t.Fatalf("expected ErrIneligible, got %v", err)
	}
	rejection := requireRejection(t, err, constants.RejectReasonIneligible)
	if rejection.Detail != "insurance lapsed" {
		t.Fatalf("rejection should carry the deny reason, got %q", rejection.Detail)
	}
	if rejection.SecondsRemaining <= 0 {
		t.Fatalf("rejection should carry seconds remaining, got %d", rejection.SecondsRemaining)
	}

	if _, err := f.eligibility.Enable(ctx, EligibilityChangeInput{OperatingNumber: "MC-777", Actor: "admin-1"}); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if _, err := f.offers.Submit(ctx, input); err != nil {
		t.Fatalf("offer should succeed once entry is enabled: %v", err)
	}
}

func TestSubmitOfferDeniedByDotNumber(t *testing.T) {
	f := setupLifecycleFixture(t)
	ctx := context.Background()
	f.intake(t, "LB-235", f.clock.Now())
	if _, err := f.eligibility.Disable(ctx, EligibilityChangeInput{DotNumber: "1234567", Reason: "out of service"}); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	_, err := f.offers.Submit(ctx, SubmitOfferInput{
		AuctionID:        "LB-235",
		BidderID:         "carrier-y",
		OperatingNumber:  "MC-1",
		DotNumber:        "1234567",
		AmountMinorUnits: 1000,
	})
	requireRejection(t, err, constants.RejectReasonIneligible)
}

type failingEligibilityRepo struct {
	repository.EligibilityRepository
}

func (failingEligibilityRepo) FindByIdentifiers(string, string) ([]models.EligibilityEntry, error) {
	return nil, errors.New("connection refused")
}

func TestSubmitOfferFailsClosedWhenGateUnavailable(t *testing.T) {
	f := setupLifecycleFixture(t)
	f.intake(t, "LB-240", f.clock.Now())
	f.offers.gate = NewEligibilityService(failingEligibilityRepo{}, nil, 0)

	_, err := f.offers.Submit(context.Background(), SubmitOfferInput{
		AuctionID:        "LB-240",
		BidderID:         "carrier-a",
		OperatingNumber:  "MC-1",
		AmountMinorUnits: 1000,
	})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if got := f.count(t, &models.Offer{}, ""); got != 0 {
		t.Fatalf("offer must not persist when gate is unavailable, got %d", got)
	}
}

func TestConcurrentOffersAllPersist(t *testing.T) {
	f := setupLifecycleFixture(t)
	f.intake(t, "LB-250", f.clock.Now())

	const bidders = 24
	var wg sync.WaitGroup
	errs := make(chan error, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.offers.Submit(context.Background(), SubmitOfferInput{
				AuctionID:        "LB-250",
				BidderID:         fmt.Sprintf("carrier-%02d", i),
				AmountMinorUnits: int64(100000 + i*10),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent submit failed: %v", err)
		}
	}
	if got := f.count(t, &models.Offer{}, "auction_id = ?", "LB-250"); got != bidders {
		t.Fatalf("expected %d offers, got %d", bidders, got)
	}

	board, err := f.auctions.Leaderboard(context.Background(), "LB-250", Viewer{Admin: true})
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if board.OfferCount != bidders || board.LeadingOffer.BidderID != "carrier-00" {
		t.Fatalf("unexpected leaderboard: count=%d leader=%+v", board.OfferCount, board.LeadingOffer)
	}
}

func TestListByBidderRequiresBidder(t *testing.T) {
	f := setupLifecycleFixture(t)
	f.intake(t, "LB-260", f.clock.Now())
	f.submit(t, "LB-260", "carrier-a", 1000)
	f.submit(t, "LB-260", "carrier-b", 900)

	if _, _, err := f.offers.ListByBidder(repository.OfferListFilter{}); !errors.Is(err, ErrInvalidBidderID) {
		t.Fatalf("expected ErrInvalidBidderID, got %v", err)
	}
	offers, total, err := f.offers.ListByBidder(repository.OfferListFilter{BidderID: "carrier-a", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list offers failed: %v", err)
	}
	if total != 1 || len(offers) != 1 || offers[0].BidderID != "carrier-a" {
		t.Fatalf("unexpected bidder offers: total=%d offers=%+v", total, offers)
	}
}

func TestSubmitOfferOnUnpublishedAuctionIsNotFound(t *testing.T) {
	f := setupLifecycleFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	hidden := false
	if _, err := f.auctions.Intake(ctx, IntakeAuctionInput{AuctionID: "LB-250", ReceivedAt: &now, Published: &hidden}); err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	_, err := f.offers.Submit(ctx, SubmitOfferInput{AuctionID: "LB-250", BidderID: "carrier-a", OperatingNumber: "MC-carrier-a", AmountMinorUnits: 8000})
	if !errors.Is(err, ErrAuctionNotFound) {
		t.Fatalf("expected ErrAuctionNotFound, got %v", err)
	}
	if got := f.count(t, &models.Offer{}, "auction_id = ?", "LB-250"); got != 0 {
		t.Fatalf("no offer expected on hidden auction, got %d", got)
	}

	if _, err := f.auctions.Leaderboard(ctx, "LB-250", Viewer{BidderID: "carrier-a"}); !errors.Is(err, ErrAuctionNotFound) {
		t.Fatalf("hidden auction leaderboard: expected ErrAuctionNotFound, got %v", err)
	}
	// 未公开时公开读取不得触发自动裁决
	f.clock.Set(now.Add(30 * time.Minute))
	if _, err := f.auctions.Leaderboard(ctx, "LB-250", Viewer{}); !errors.Is(err, ErrAuctionNotFound) {
		t.Fatalf("expected ErrAuctionNotFound after expiry, got %v", err)
	}
	if got := f.count(t, &models.LifecycleEvent{}, "auction_id = ? AND event_type = ?", "LB-250", models.EventExpired); got != 0 {
		t.Fatalf("hidden auction must not be adjudicated by a public read, got %d expired events", got)
	}

	if err := f.auctions.SetPublished(ctx, "LB-250", true); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	board, err := f.auctions.Leaderboard(ctx, "LB-250", Viewer{Admin: true})
	if err != nil || board.State != AuctionStateExpired {
		t.Fatalf("published auction should be visible and expired: board=%+v err=%v", board, err)
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
)

// AwardOutcome 裁决结果类型
type AwardOutcome string

const (
	AwardCreated       AwardOutcome = "created"
	AwardAlreadyExists AwardOutcome = "already_exists"
	AwardNoOffers      AwardOutcome = "no_offers"
)

// AdjudicateInput 裁决参数
type AdjudicateInput struct {
	AuctionID string
	WinnerID  string // 人工指定中标人，空则取最低价
	Notes     string
	Actor     string // 空视为系统自动裁决
}

// AwardResult 裁决结果，重复裁决返回已有记录而非错误
type AwardResult struct {
	Outcome AwardOutcome  `json:"outcome"`
	Award   *models.Award `json:"award,omitempty"`
	Window  WindowState   `json:"window"`
}

// AwardService 中标裁决
type AwardService struct {
	auctionRepo repository.AuctionRepository
	offerRepo   repository.OfferRepository
	awardRepo   repository.AwardRepository
	lifecycle   *LifecycleRecorder
	relay       *NotificationRelay
	window      time.Duration
	nowFn       func() time.Time
}

// NewAwardService 创建裁决服务
func NewAwardService(
	auctionRepo repository.AuctionRepository,
	offerRepo repository.OfferRepository,
	awardRepo repository.AwardRepository,
	lifecycle *LifecycleRecorder,
	relay *NotificationRelay,
	window time.Duration,
) *AwardService {
	return &AwardService{
		auctionRepo: auctionRepo,
		offerRepo:   offerRepo,
		awardRepo:   awardRepo,
		lifecycle:   lifecycle,
		relay:       relay,
		window:      window,
		nowFn:       time.Now,
	}
}

// AutoAdjudicate 窗口结束后的自动裁决，窗口未结束返回 ErrAuctionNotExpired
func (s *AwardService) AutoAdjudicate(ctx context.Context, auctionID string) (*AwardResult, error) {
	return s.Adjudicate(ctx, AdjudicateInput{AuctionID: auctionID})
}

// Adjudicate 裁决中标人；唯一索引保证每个竞价单至多一条中标记录
func (s *AwardService) Adjudicate(ctx context.Context, input AdjudicateInput) (*AwardResult, error) {
	auctionID := strings.TrimSpace(input.AuctionID)
	if auctionID == "" {
		return nil, ErrInvalidAuctionID
	}
	actor := strings.TrimSpace(input.Actor)
	manualClose := actor != "" && actor != constants.AwardedBySystem
	if actor == "" {
		actor = constants.AwardedBySystem
	}
	log := logger.FromContext(ctx, "auction_id", auctionID, "actor", actor)

	auction, err := s.auctionRepo.GetByAuctionID(auctionID)
	if err != nil {
		return nil, dependencyError("load auction", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}
	now := s.nowFn().UTC()
	window := EvaluateWindow(auction.ReceivedAt, now, s.window)

	existing, err := s.awardRepo.GetByAuctionID(auctionID)
	if err != nil {
		return nil, dependencyError("load award", err)
	}
	if existing != nil {
		return &AwardResult{Outcome: AwardAlreadyExists, Award: existing, Window: window}, nil
	}
	if auction.ArchivedAt != nil {
		return nil, ErrAuctionArchived
	}
	if window.Open && !manualClose {
		return nil, ErrAuctionNotExpired
	}

	offers, err := s.offerRepo.ListByAuction(auctionID)
	if err != nil {
		return nil, dependencyError("list offers", err)
	}
	if len(offers) == 0 {
		if !window.Open && s.lifecycle.Record(ctx, auctionID, models.EventExpired, "", models.JSON{"offer_count": 0}) {
			log.Infow("auction_expired_without_offers")
			s.relay.Enqueue(ctx, s.relay.adminJobs(constants.NotificationAuctionExpired, auctionID, map[string]interface{}{
				"offer_count": 0,
			})...)
		}
		return &AwardResult{Outcome: AwardNoOffers, Window: window}, nil
	}

	lowest := ResolveLowestOffer(offers)
	winning := lowest
	notes := strings.TrimSpace(input.Notes)
	manual := false
	if winnerID := strings.TrimSpace(input.WinnerID); winnerID != "" {
		winning = BestOfferOf(offers, winnerID)
		if winning == nil {
			return nil, ErrWinnerHasNoOffer
		}
		manual = true
		if notes == "" {
			notes = "manual override by " + actor
		}
	}

	award := &models.Award{
		AuctionID:               auctionID,
		OfferID:                 winning.OfferID,
		WinnerID:                winning.BidderID,
		WinningAmountMinorUnits: winning.AmountMinorUnits,
		AwardedAt:               now.Truncate(time.Second),
		AdjudicatorNotes:        notes,
		AwardedBy:               actor,
		Manual:                  manual,
	}
	award.Fingerprint = ComputeAwardFingerprint(award.AuctionID, award.WinnerID, award.WinningAmountMinorUnits, award.AwardedAt)

	created, err := s.awardRepo.CreateIfAbsent(award)
	if err != nil {
		return nil, dependencyError("create award", err)
	}
	if !created {
		current, err := s.awardRepo.GetByAuctionID(auctionID)
		if err != nil {
			return nil, dependencyError("load award", err)
		}
		log.Debugw("award_already_exists")
		return &AwardResult{Outcome: AwardAlreadyExists, Award: current, Window: window}, nil
	}

	log.Infow("award_created",
		"winner_id", award.WinnerID,
		"amount_minor_units", award.WinningAmountMinorUnits,
		"manual", award.Manual,
		"early_close", window.Open,
		"offer_count", len(offers),
	)
	s.lifecycle.Record(ctx, auctionID, models.EventAwarded, "", models.JSON{
		"winner_id":          award.WinnerID,
		"offer_id":           award.OfferID,
		"amount_minor_units": award.WinningAmountMinorUnits,
		"manual":             award.Manual,
		"awarded_by":         award.AwardedBy,
		"early_close":        window.Open,
		"lowest_offer_id":    lowest.OfferID,
	})
	s.notifyAwarded(ctx, award, offers)
	return &AwardResult{Outcome: AwardCreated, Award: award, Window: window}, nil
}

func (s *AwardService) notifyAwarded(ctx context.Context, award *models.Award, offers []models.Offer) {
	amount := models.MoneyFromMinorUnits(award.WinningAmountMinorUnits).String()
	jobs := []NotificationJob{
		bidderJob(constants.NotificationAuctionWon, award.WinnerID, award.AuctionID, map[string]interface{}{
			"winning_amount": amount,
			"offer_id":       award.OfferID,
			"manual":         award.Manual,
		}),
	}
	for _, ranked := range RankBidders(offers) {
		if ranked.BidderID == award.WinnerID {
			continue
		}
		jobs = append(jobs, bidderJob(constants.NotificationAuctionLost, ranked.BidderID, award.AuctionID, map[string]interface{}{
			"winning_amount": amount,
			"your_amount":    models.MoneyFromMinorUnits(ranked.BestOffer.AmountMinorUnits).String(),
			"rank":           ranked.Rank,
		}))
	}
	s.relay.Enqueue(ctx, jobs...)
}

// GetAward 查询中标记录
func (s *AwardService) GetAward(auctionID string) (*models.Award, error) {
	award, err := s.awardRepo.GetByAuctionID(auctionID)
	if err != nil {
		return nil, dependencyError("load award", err)
	}
	return award, nil
}

// ListAwards 分页查询中标记录
func (s *AwardService) ListAwards(filter repository.AwardListFilter) ([]models.Award, int64, error) {
	awards, total, err := s.awardRepo.List(filter)
	if err != nil {
		return nil, 0, dependencyError("list awards", err)
	}
	return awards, total, nil
}

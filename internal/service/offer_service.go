package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"

	"github.com/google/uuid"
)

// eligibilityGate 出价前的资格校验
type eligibilityGate interface {
	IsEligible(ctx context.Context, operatingNumber, dotNumber string) (EligibilityDecision, error)
}

// SubmitOfferInput 出价参数
type SubmitOfferInput struct {
	AuctionID        string
	BidderID         string
	OperatingNumber  string
	DotNumber        string
	AmountMinorUnits int64
	Notes            string
}

// OfferReceipt 出价成功后的窗口状态与当前领先出价
type OfferReceipt struct {
	Offer        *models.Offer  `json:"offer"`
	Window       WindowState    `json:"window"`
	LeadingOffer *OfferSnapshot `json:"leading_offer"`
	OfferCount   int            `json:"offer_count"`
	IsLeading    bool           `json:"is_leading"`
}

// OfferService 出价写入
type OfferService struct {
	auctionRepo repository.AuctionRepository
	offerRepo   repository.OfferRepository
	awardRepo   repository.AwardRepository
	gate        eligibilityGate
	awards      *AwardService
	lifecycle   *LifecycleRecorder
	relay       *NotificationRelay
	window      time.Duration
	nowFn       func() time.Time
}

// NewOfferService 创建出价服务
func NewOfferService(
	auctionRepo repository.AuctionRepository,
	offerRepo repository.OfferRepository,
	awardRepo repository.AwardRepository,
	gate eligibilityGate,
	awards *AwardService,
	lifecycle *LifecycleRecorder,
	relay *NotificationRelay,
	window time.Duration,
) *OfferService {
	return &OfferService{
		auctionRepo: auctionRepo,
		offerRepo:   offerRepo,
		awardRepo:   awardRepo,
		gate:        gate,
		awards:      awards,
		lifecycle:   lifecycle,
		relay:       relay,
		window:      window,
		nowFn:       time.Now,
	}
}

// Submit 提交出价：窗口与资格在写入前同步校验，已写入的出价不会被事后撤销
func (s *OfferService) Submit(ctx context.Context, input SubmitOfferInput) (*OfferReceipt, error) {
	auctionID := strings.TrimSpace(input.AuctionID)
	bidderID := strings.TrimSpace(input.BidderID)
	if auctionID == "" {
		return nil, ErrInvalidAuctionID
	}
	if bidderID == "" {
		return nil, ErrInvalidBidderID
	}
	if input.AmountMinorUnits <= 0 {
		return nil, ErrInvalidAmount
	}
	log := logger.FromContext(ctx, "auction_id", auctionID, "bidder_id", bidderID)

	auction, err := s.auctionRepo.GetByAuctionID(auctionID)
	if err != nil {
		return nil, dependencyError("load auction", err)
	}
	// 未公开的竞价单对投标人不可见
	if auction == nil || !auction.Published {
		return nil, ErrAuctionNotFound
	}

	now := s.nowFn().UTC()
	window := EvaluateWindow(auction.ReceivedAt, now, s.window)
	if auction.ArchivedAt != nil {
		return nil, s.reject(ctx, auctionID, bidderID, &OfferRejection{
			Reason: constants.RejectReasonWindowClosed,
			Detail: "auction is archived",
			cause:  ErrWindowClosed,
		})
	}
	if !window.Open {
		s.autoAdjudicate(ctx, auctionID)
		return nil, s.reject(ctx, auctionID, bidderID, &OfferRejection{
			Reason: constants.RejectReasonWindowClosed,
			Detail: "bidding window expired at " + window.ExpiresAt.Format(time.RFC3339),
			cause:  ErrWindowClosed,
		})
	}

	award, err := s.awardRepo.GetByAuctionID(auctionID)
	if err != nil {
		return nil, dependencyError("load award", err)
	}
	if award != nil {
		return nil, s.reject(ctx, auctionID, bidderID, &OfferRejection{
			Reason:           constants.RejectReasonAlreadyAwarded,
			Detail:           "auction was closed early by an administrator",
			SecondsRemaining: window.SecondsRemaining,
			cause:            ErrWindowClosed,
		})
	}

	if s.gate != nil {
		decision, err := s.gate.IsEligible(ctx, input.OperatingNumber, input.DotNumber)
		if err != nil {
			log.Warnw("offer_eligibility_check_failed", "error", err)
			if errors.Is(err, ErrDependencyUnavailable) {
				return nil, err
			}
			return nil, dependencyError("eligibility check", err)
		}
		if !decision.Eligible {
			return nil, s.reject(ctx, auctionID, bidderID, &OfferRejection{
				Reason:           constants.RejectReasonIneligible,
				Detail:           decision.Reason,
				SecondsRemaining: window.SecondsRemaining,
				cause:            ErrIneligible,
			})
		}
	}

	offer := &models.Offer{
		OfferID:          uuid.NewString(),
		AuctionID:        auctionID,
		BidderID:         bidderID,
		OperatingNumber:  normalizeIdentifier(input.OperatingNumber),
		DotNumber:        normalizeIdentifier(input.DotNumber),
		AmountMinorUnits: input.AmountMinorUnits,
		Notes:            strings.TrimSpace(input.Notes),
		SubmittedAt:      now,
	}
	if err := s.offerRepo.Create(offer); err != nil {
		log.Errorw("offer_create_failed", "error", err)
		return nil, dependencyError("create offer", err)
	}
	log.Infow("offer_submitted", "offer_id", offer.OfferID, "amount_minor_units", offer.AmountMinorUnits)

	s.lifecycle.Record(ctx, auctionID, models.EventBidPlaced, offer.OfferID, models.JSON{
		"offer_id":           offer.OfferID,
		"bidder_id":          bidderID,
		"amount_minor_units": offer.AmountMinorUnits,
	})

	receipt := &OfferReceipt{Offer: offer, Window: window}
	if offers, err := s.offerRepo.ListByAuction(auctionID); err != nil {
		log.Warnw("offer_leaderboard_refresh_failed", "error", err)
	} else {
		receipt.OfferCount = len(offers)
		if leading := ResolveLowestOffer(offers); leading != nil {
			viewer := Viewer{BidderID: bidderID}
			receipt.LeadingOffer = snapshotOffer(leading, viewer)
			receipt.IsLeading = leading.OfferID == offer.OfferID
		}
	}

	amount := models.MoneyFromMinorUnits(offer.AmountMinorUnits).String()
	jobs := []NotificationJob{
		bidderJob(constants.NotificationOfferAccepted, bidderID, auctionID, map[string]interface{}{
			"offer_id":          offer.OfferID,
			"amount":            amount,
			"seconds_remaining": window.SecondsRemaining,
			"is_leading":        receipt.IsLeading,
		}),
	}
	jobs = append(jobs, s.relay.adminJobs(constants.NotificationBidReceived, auctionID, map[string]interface{}{
		"offer_id":  offer.OfferID,
		"bidder_id": bidderID,
		"amount":    amount,
	})...)
	s.relay.Enqueue(ctx, jobs...)
	return receipt, nil
}

// ListByBidder 投标人出价历史
func (s *OfferService) ListByBidder(filter repository.OfferListFilter) ([]models.Offer, int64, error) {
	if strings.TrimSpace(filter.BidderID) == "" {
		return nil, 0, ErrInvalidBidderID
	}
	offers, total, err := s.offerRepo.ListByBidder(filter)
	if err != nil {
		return nil, 0, dependencyError("list offers", err)
	}
	return offers, total, nil
}

func (s *OfferService) reject(ctx context.Context, auctionID, bidderID string, rejection *OfferRejection) error {
	logger.FromContext(ctx).Infow("offer_submit_rejected",
		"auction_id", auctionID,
		"bidder_id", bidderID,
		"reason", rejection.Reason,
		"detail", rejection.Detail,
	)
	s.relay.Enqueue(ctx, bidderJob(constants.NotificationOfferRejected, bidderID, auctionID, map[string]interface{}{
		"reason":            rejection.Reason,
		"detail":            rejection.Detail,
		"seconds_remaining": rejection.SecondsRemaining,
	}))
	return rejection
}

// autoAdjudicate 写路径观察到窗口结束时尽力触发裁决
func (s *OfferService) autoAdjudicate(ctx context.Context, auctionID string) {
	if s.awards == nil {
		return
	}
	if _, err := s.awards.AutoAdjudicate(ctx, auctionID); err != nil {
		logger.FromContext(ctx).Warnw("offer_auto_adjudicate_failed", "auction_id", auctionID, "error", err)
	}
}

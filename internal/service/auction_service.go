package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
)

// 竞价单派生状态
const (
	AuctionStateOpen     = "open"
	AuctionStateExpired  = "expired"
	AuctionStateAwarded  = "awarded"
	AuctionStateArchived = "archived"
)

// IntakeAuctionInput 接入竞价单参数
type IntakeAuctionInput struct {
	AuctionID     string
	Distance      float64
	RouteStops    []string
	Tag           string
	SourceChannel string
	PickupAt      *time.Time
	DeliveryAt    *time.Time
	ReceivedAt    *time.Time // 空则取当前时间
	Published     *bool
}

// Viewer 读取方身份，决定是否展示领先者信息
type Viewer struct {
	BidderID string
	Admin    bool
}

// OfferSnapshot 对外展示的出价
type OfferSnapshot struct {
	OfferID     string       `json:"offer_id"`
	BidderID    string       `json:"bidder_id,omitempty"`
	Amount      models.Money `json:"amount"`
	AmountMinor int64        `json:"amount_minor_units"`
	SubmittedAt time.Time    `json:"submitted_at"`
	IsYours     bool         `json:"is_yours"`
}

// Leaderboard 排行榜，每次读取都重新计算
type Leaderboard struct {
	Auction         *models.Auction `json:"auction"`
	State           string          `json:"state"`
	Window          WindowState     `json:"window"`
	LeadingOffer    *OfferSnapshot  `json:"leading_offer"`
	OfferCount      int             `json:"offer_count"`
	YourOffer       *OfferSnapshot  `json:"your_offer,omitempty"`
	Award           *models.Award   `json:"award,omitempty"`
	BusinessDay     string          `json:"business_day"`
	ReceivedAtLocal string          `json:"received_at_local"`
}

// AuctionListItem 列表项
type AuctionListItem struct {
	models.Auction
	State         string        `json:"state"`
	Window        WindowState   `json:"window"`
	OfferCount    int64         `json:"offer_count"`
	LeadingAmount *models.Money `json:"leading_amount"`
}

// AuctionSettings 竞价时钟配置
type AuctionSettings struct {
	Window  time.Duration
	Clock   BusinessClock
	Display DisplayZone
}

// AuctionService 竞价单接入、查询与排行榜
type AuctionService struct {
	auctionRepo repository.AuctionRepository
	offerRepo   repository.OfferRepository
	awardRepo   repository.AwardRepository
	awards      *AwardService
	lifecycle   *LifecycleRecorder
	settings    AuctionSettings
	nowFn       func() time.Time
}

// NewAuctionService 创建竞价单服务
func NewAuctionService(
	auctionRepo repository.AuctionRepository,
	offerRepo repository.OfferRepository,
	awardRepo repository.AwardRepository,
	awards *AwardService,
	lifecycle *LifecycleRecorder,
	settings AuctionSettings,
) *AuctionService {
	if settings.Window <= 0 {
		settings.Window = DefaultWindowDuration
	}
	return &AuctionService{
		auctionRepo: auctionRepo,
		offerRepo:   offerRepo,
		awardRepo:   awardRepo,
		awards:      awards,
		lifecycle:   lifecycle,
		settings:    settings,
		nowFn:       time.Now,
	}
}

// Intake 接入新竞价单，重复单号返回 ErrAuctionExists
func (s *AuctionService) Intake(ctx context.Context, input IntakeAuctionInput) (*models.Auction, error) {
	auctionID := strings.TrimSpace(input.AuctionID)
	if auctionID == "" {
		return nil, ErrInvalidAuctionID
	}
	receivedAt := s.nowFn().UTC()
	if input.ReceivedAt != nil {
		if input.ReceivedAt.IsZero() {
			return nil, ErrInvalidReceivedAt
		}
		receivedAt = input.ReceivedAt.UTC()
	}
	stops := make(models.StringArray, 0, len(input.RouteStops))
	for _, stop := range input.RouteStops {
		if stop = strings.TrimSpace(stop); stop != "" {
			stops = append(stops, stop)
		}
	}
	auction := &models.Auction{
		AuctionID:     auctionID,
		Distance:      input.Distance,
		RouteStops:    stops,
		Tag:           strings.ToUpper(strings.TrimSpace(input.Tag)),
		SourceChannel: strings.TrimSpace(input.SourceChannel),
		PickupAt:      utcPtr(input.PickupAt),
		DeliveryAt:    utcPtr(input.DeliveryAt),
		Published:     true,
		ReceivedAt:    receivedAt,
	}
	if input.Published != nil {
		auction.Published = *input.Published
	}
	if err := s.auctionRepo.Create(auction); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrAuctionExists
		}
		return nil, dependencyError("create auction", err)
	}
	s.lifecycle.Record(ctx, auctionID, models.EventReceived, "", models.JSON{
		"tag":            auction.Tag,
		"distance":       auction.Distance,
		"source_channel": auction.SourceChannel,
		"received_at":    receivedAt.Format(time.RFC3339),
	})
	logger.FromContext(ctx).Infow("auction_received", "auction_id", auctionID, "tag", auction.Tag, "received_at", receivedAt)
	return auction, nil
}

// Get 获取竞价单
func (s *AuctionService) Get(auctionID string) (*models.Auction, error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return nil, ErrInvalidAuctionID
	}
	auction, err := s.auctionRepo.GetByAuctionID(auctionID)
	if err != nil {
		return nil, dependencyError("load auction", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}
	return auction, nil
}

// Leaderboard 重新计算排行榜；发现窗口已结束且未裁决时触发自动裁决
func (s *AuctionService) Leaderboard(ctx context.Context, auctionID string, viewer Viewer) (*Leaderboard, error) {
	auction, err := s.Get(auctionID)
	if err != nil {
		return nil, err
	}
	if !auction.Published && !viewer.Admin {
		return nil, ErrAuctionNotFound
	}
	now := s.nowFn().UTC()
	window := EvaluateWindow(auction.ReceivedAt, now, s.settings.Window)

	award, err := s.awardRepo.GetByAuctionID(auction.AuctionID)
	if err != nil {
		return nil, dependencyError("load award", err)
	}
	if award == nil && !window.Open && auction.ArchivedAt == nil {
		award = s.tryAutoAdjudicate(ctx, auction.AuctionID)
	}

	offers, err := s.offerRepo.ListByAuction(auction.AuctionID)
	if err != nil {
		return nil, dependencyError("list offers", err)
	}
	board := &Leaderboard{
		Auction:         auction,
		State:           DeriveAuctionState(auction, window, award),
		Window:          window,
		OfferCount:      len(offers),
		Award:           award,
		BusinessDay:     s.settings.Clock.DayOf(auction.ReceivedAt),
		ReceivedAtLocal: s.settings.Display.Format(auction.ReceivedAt),
	}
	if leading := ResolveLowestOffer(offers); leading != nil {
		board.LeadingOffer = snapshotOffer(leading, viewer)
	}
	if viewer.BidderID != "" {
		var latest *models.Offer
		for i := range offers {
			if offers[i].BidderID == viewer.BidderID {
				latest = &offers[i]
			}
		}
		if latest != nil {
			board.YourOffer = snapshotOffer(latest, viewer)
		}
	}
	return board, nil
}

// tryAutoAdjudicate 读路径上的自动裁决，失败不影响读取
func (s *AuctionService) tryAutoAdjudicate(ctx context.Context, auctionID string) *models.Award {
	if s.awards == nil {
		return nil
	}
	result, err := s.awards.AutoAdjudicate(ctx, auctionID)
	if err != nil {
		logger.FromContext(ctx).Warnw("auction_auto_adjudicate_failed", "auction_id", auctionID, "error", err)
		return nil
	}
	return result.Award
}

// List 分页查询竞价单，附带派生状态与出价汇总
func (s *AuctionService) List(filter repository.AuctionListFilter) ([]AuctionListItem, int64, error) {
	auctions, total, err := s.auctionRepo.List(filter)
	if err != nil {
		return nil, 0, dependencyError("list auctions", err)
	}
	ids := make([]string, 0, len(auctions))
	for _, a := range auctions {
		ids = append(ids, a.AuctionID)
	}
	summaries, err := s.offerRepo.SummarizeByAuctions(ids)
	if err != nil {
		return nil, 0, dependencyError("summarize offers", err)
	}
	awards, err := s.awardRepo.MapByAuctionIDs(ids)
	if err != nil {
		return nil, 0, dependencyError("load awards", err)
	}

	now := s.nowFn().UTC()
	items := make([]AuctionListItem, 0, len(auctions))
	for _, a := range auctions {
		window := EvaluateWindow(a.ReceivedAt, now, s.settings.Window)
		var award *models.Award
		if aw, ok := awards[a.AuctionID]; ok {
			award = &aw
		}
		item := AuctionListItem{
			Auction: a,
			State:   DeriveAuctionState(&a, window, award),
			Window:  window,
		}
		if summary, ok := summaries[a.AuctionID]; ok && summary.OfferCount > 0 {
			item.OfferCount = summary.OfferCount
			leading := models.MoneyFromMinorUnits(summary.LowestMinor)
			item.LeadingAmount = &leading
		}
		items = append(items, item)
	}
	return items, total, nil
}

// ListOpen 仍在竞价窗口内的已发布竞价单
func (s *AuctionService) ListOpen(filter repository.AuctionListFilter) ([]AuctionListItem, int64, error) {
	from := s.nowFn().UTC().Add(-s.settings.Window)
	filter.ReceivedFrom = &from
	filter.OnlyActive = true
	filter.OnlyPublished = true
	return s.List(filter)
}

// SetPublished 更新展示标记
func (s *AuctionService) SetPublished(ctx context.Context, auctionID string, published bool) error {
	found, err := s.auctionRepo.SetPublished(auctionID, published)
	if err != nil {
		return dependencyError("update auction", err)
	}
	if !found {
		return ErrAuctionNotFound
	}
	logger.FromContext(ctx).Infow("auction_published_changed", "auction_id", auctionID, "published", published)
	return nil
}

// History 审计事件
func (s *AuctionService) History(auctionID string) ([]models.LifecycleEvent, error) {
	if _, err := s.Get(auctionID); err != nil {
		return nil, err
	}
	return s.lifecycle.History(strings.TrimSpace(auctionID))
}

// Offers 管理端查看全部出价与投标人排名
func (s *AuctionService) Offers(auctionID string) ([]models.Offer, []RankedBidder, error) {
	auction, err := s.Get(auctionID)
	if err != nil {
		return nil, nil, err
	}
	offers, err := s.offerRepo.ListByAuction(auction.AuctionID)
	if err != nil {
		return nil, nil, dependencyError("list offers", err)
	}
	return offers, RankBidders(offers), nil
}

// DeriveAuctionState 由归档标记、中标记录与窗口推导状态
func DeriveAuctionState(auction *models.Auction, window WindowState, award *models.Award) string {
	switch {
	case auction != nil && auction.ArchivedAt != nil:
		return AuctionStateArchived
	case award != nil:
		return AuctionStateAwarded
	case window.Open:
		return AuctionStateOpen
	default:
		return AuctionStateExpired
	}
}

func snapshotOffer(offer *models.Offer, viewer Viewer) *OfferSnapshot {
	if offer == nil {
		return nil
	}
	snap := &OfferSnapshot{
		OfferID:     offer.OfferID,
		Amount:      models.MoneyFromMinorUnits(offer.AmountMinorUnits),
		AmountMinor: offer.AmountMinorUnits,
		SubmittedAt: offer.SubmittedAt,
		IsYours:     viewer.BidderID != "" && offer.BidderID == viewer.BidderID,
	}
	if viewer.Admin || snap.IsYours {
		snap.BidderID = offer.BidderID
	}
	return snap
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

package service

import (
	"sort"

	"github.com/loadbid-next/internal/models"
)

// ResolveLowestOffer 选出最低报价；同价取最早提交，再同则取先写入者。无出价返回 nil。
// 纯函数，排行榜展示与中标裁决共用。
func ResolveLowestOffer(offers []models.Offer) *models.Offer {
	var best *models.Offer
	for i := range offers {
		candidate := &offers[i]
		if best == nil || offerBefore(candidate, best) {
			best = candidate
		}
	}
	if best == nil {
		return nil
	}
	winner := *best
	return &winner
}

// offerBefore 判断 a 是否严格优先于 b
func offerBefore(a, b *models.Offer) bool {
	if a.AmountMinorUnits != b.AmountMinorUnits {
		return a.AmountMinorUnits < b.AmountMinorUnits
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	if a.ID != 0 && b.ID != 0 {
		return a.ID < b.ID
	}
	return false
}

// RankedBidder 每个投标人的最优出价
type RankedBidder struct {
	Rank      int          `json:"rank"`
	BidderID  string       `json:"bidder_id"`
	BestOffer models.Offer `json:"best_offer"`
	Offers    int          `json:"offers"`
}

// RankBidders 按投标人取最优出价后排序，规则与 ResolveLowestOffer 一致
func RankBidders(offers []models.Offer) []RankedBidder {
	byBidder := make(map[string]*RankedBidder)
	order := make([]string, 0)
	for i := range offers {
		offer := offers[i]
		entry, ok := byBidder[offer.BidderID]
		if !ok {
			byBidder[offer.BidderID] = &RankedBidder{BidderID: offer.BidderID, BestOffer: offer, Offers: 1}
			order = append(order, offer.BidderID)
			continue
		}
		entry.Offers++
		if offerBefore(&offer, &entry.BestOffer) {
			entry.BestOffer = offer
		}
	}
	ranked := make([]RankedBidder, 0, len(order))
	for _, bidderID := range order {
		ranked = append(ranked, *byBidder[bidderID])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return offerBefore(&ranked[i].BestOffer, &ranked[j].BestOffer)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// BestOfferOf 返回指定投标人的最优出价
func BestOfferOf(offers []models.Offer, bidderID string) *models.Offer {
	var own []models.Offer
	for _, offer := range offers {
		if offer.BidderID == bidderID {
			own = append(own, offer)
		}
	}
	return ResolveLowestOffer(own)
}

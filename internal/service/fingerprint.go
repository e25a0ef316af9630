package service

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/loadbid-next/internal/models"
)

// ComputeAwardFingerprint 中标审计指纹
// SHA256(auction_id | winner_id | amount | awarded_at 秒级 unix)
func ComputeAwardFingerprint(auctionID, winnerID string, amountMinorUnits int64, awardedAt time.Time) string {
	data := fmt.Sprintf("%s|%s|%d|%d", auctionID, winnerID, amountMinorUnits, awardedAt.UTC().Unix())
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// VerifyAwardFingerprint 校验中标记录未被篡改
func VerifyAwardFingerprint(award *models.Award) bool {
	if award == nil || award.Fingerprint == "" {
		return false
	}
	return award.Fingerprint == ComputeAwardFingerprint(award.AuctionID, award.WinnerID, award.WinningAmountMinorUnits, award.AwardedAt)
}

package public

import (
	"strings"

	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitOfferRequest 出价请求，金额可用最小单位整数或十进制字符串
type SubmitOfferRequest struct {
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Amount           string `json:"amount"`
	Notes            string `json:"notes"`
}

func (r SubmitOfferRequest) minorUnits() (int64, error) {
	if r.AmountMinorUnits != 0 || strings.TrimSpace(r.Amount) == "" {
		return r.AmountMinorUnits, nil
	}
	money, err := models.ParseMoney(strings.TrimSpace(r.Amount))
	if err != nil {
		return 0, err
	}
	minor, err := money.ToMinorUnits()
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, service.ErrInvalidAmount
	}
	return minor, nil
}

// SubmitOffer 提交出价
func (h *Handler) SubmitOffer(c *gin.Context) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	var req SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	amount, err := req.minorUnits()
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, service.ErrInvalidAmount.Error(), nil)
		return
	}

	receipt, err := h.OfferService.Submit(c.Request.Context(), service.SubmitOfferInput{
		AuctionID:        c.Param("auction_id"),
		BidderID:         identity.Subject,
		OperatingNumber:  identity.OperatingNumber,
		DotNumber:        identity.DotNumber,
		AmountMinorUnits: amount,
		Notes:            req.Notes,
	})
	if err != nil {
		shared.RespondServiceError(c, err, "offer submit failed")
		return
	}
	response.Success(c, receipt)
}

// GetMyOffers 获取当前投标人的出价记录
func (h *Handler) GetMyOffers(c *gin.Context) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	offers, total, err := h.OfferService.ListByBidder(repository.OfferListFilter{
		Page:      page,
		PageSize:  pageSize,
		BidderID:  identity.Subject,
		AuctionID: strings.TrimSpace(c.Query("auction_id")),
	})
	if err != nil {
		shared.RespondServiceError(c, err, "offer list failed")
		return
	}
	response.SuccessWithPage(c, offers, shared.BuildPagination(page, pageSize, total))
}

// GetMyAwards 获取当前投标人的中标记录
func (h *Handler) GetMyAwards(c *gin.Context) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	awards, total, err := h.AwardService.ListAwards(repository.AwardListFilter{
		Page:     page,
		PageSize: pageSize,
		WinnerID: identity.Subject,
	})
	if err != nil {
		shared.RespondServiceError(c, err, "award list failed")
		return
	}
	response.SuccessWithPage(c, awards, shared.BuildPagination(page, pageSize, total))
}

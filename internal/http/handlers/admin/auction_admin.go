package admin

import (
	"strings"

	"github.com/loadbid-next/internal/http/handlers/public"
	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/repository"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SetPublishedRequest 展示标记更新请求
type SetPublishedRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// AdjudicateRequest 裁决请求，winner_id 为空时按最低价自动裁决
type AdjudicateRequest struct {
	WinnerID string `json:"winner_id"`
	Notes    string `json:"notes"`
}

// GetAdminAuctions 获取后台竞价单列表
func (h *Handler) GetAdminAuctions(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	filter := repository.AuctionListFilter{
		Page:       page,
		PageSize:   pageSize,
		Tag:        strings.TrimSpace(c.Query("tag")),
		Search:     strings.TrimSpace(c.Query("q")),
		OnlyActive: c.Query("include_archived") != "true",
	}
	var err error
	if filter.ReceivedFrom, err = shared.ParseTimeNullable(c.Query("received_from")); err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	if filter.ReceivedTo, err = shared.ParseTimeNullable(c.Query("received_to")); err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}

	items, total, err := h.AuctionService.List(filter)
	if err != nil {
		shared.RespondServiceError(c, err, "auction list failed")
		return
	}
	response.SuccessWithPage(c, items, shared.BuildPagination(page, pageSize, total))
}

// CreateAuction 后台手工录入竞价单
func (h *Handler) CreateAuction(c *gin.Context) {
	var req public.IntakeAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	if input.SourceChannel == "" {
		input.SourceChannel = "admin"
	}
	auction, err := h.AuctionService.Intake(c.Request.Context(), input)
	if err != nil {
		shared.RespondServiceError(c, err, "auction create failed")
		return
	}
	response.Success(c, auction)
}

// GetAdminAuction 获取竞价单详情（含领先者身份）
func (h *Handler) GetAdminAuction(c *gin.Context) {
	identity, _ := shared.LookupIdentity(c)
	board, err := h.AuctionService.Leaderboard(c.Request.Context(), c.Param("auction_id"), service.Viewer{
		BidderID: identity.Subject,
		Admin:    true,
	})
	if err != nil {
		shared.RespondServiceError(c, err, "auction fetch failed")
		return
	}
	response.Success(c, board)
}

// SetAuctionPublished 更新竞价单展示标记
func (h *Handler) SetAuctionPublished(c *gin.Context) {
	var req SetPublishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	auctionID := c.Param("auction_id")
	if err := h.AuctionService.SetPublished(c.Request.Context(), auctionID, *req.Published); err != nil {
		shared.RespondServiceError(c, err, "auction update failed")
		return
	}
	response.Success(c, gin.H{"auction_id": auctionID, "published": *req.Published})
}

// GetAuctionOffers 获取竞价单全部出价与投标人排名
func (h *Handler) GetAuctionOffers(c *gin.Context) {
	auctionID := c.Param("auction_id")
	offers, ranking, err := h.AuctionService.Offers(auctionID)
	if err != nil {
		shared.RespondServiceError(c, err, "offer list failed")
		return
	}
	award, err := h.AwardService.GetAward(auctionID)
	if err != nil {
		shared.RespondServiceError(c, err, "offer list failed")
		return
	}
	response.Success(c, gin.H{
		"offers":  offers,
		"ranking": ranking,
		"award":   award,
	})
}

// AdjudicateAuction 裁决竞价单，重复裁决返回已有结果
func (h *Handler) AdjudicateAuction(c *gin.Context) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	var req AdjudicateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
			return
		}
	}
	result, err := h.AwardService.Adjudicate(c.Request.Context(), service.AdjudicateInput{
		AuctionID: c.Param("auction_id"),
		WinnerID:  req.WinnerID,
		Notes:     req.Notes,
		Actor:     identity.Subject,
	})
	if err != nil {
		shared.RespondServiceError(c, err, "adjudication failed")
		return
	}
	response.Success(c, result)
}

// GetAuctionHistory 获取竞价单生命周期事件
func (h *Handler) GetAuctionHistory(c *gin.Context) {
	events, err := h.AuctionService.History(c.Param("auction_id"))
	if err != nil {
		shared.RespondServiceError(c, err, "history fetch failed")
		return
	}
	response.Success(c, events)
}

package public

import (
	"strings"

	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/repository"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAuctions 获取竞价窗口仍开放的竞价单
func (h *Handler) ListAuctions(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	items, total, err := h.AuctionService.ListOpen(repository.AuctionListFilter{
		Page:     page,
		PageSize: pageSize,
		Tag:      strings.TrimSpace(c.Query("tag")),
		Search:   strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		shared.RespondServiceError(c, err, "auction list failed")
		return
	}
	response.SuccessWithPage(c, items, shared.BuildPagination(page, pageSize, total))
}

// GetAuction 获取竞价单详情与排行榜
func (h *Handler) GetAuction(c *gin.Context) {
	viewer := service.Viewer{}
	if identity, ok := shared.LookupIdentity(c); ok {
		viewer.BidderID = identity.Subject
		viewer.Admin = identity.IsAdmin()
	}

	board, err := h.AuctionService.Leaderboard(c.Request.Context(), c.Param("auction_id"), viewer)
	if err != nil {
		shared.RespondServiceError(c, err, "auction fetch failed")
		return
	}
	response.Success(c, board)
}

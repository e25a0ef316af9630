package admin

import (
	"strconv"
	"strings"

	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminAwards 获取中标记录
func (h *Handler) GetAdminAwards(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	filter := repository.AwardListFilter{
		Page:     page,
		PageSize: pageSize,
		WinnerID: strings.TrimSpace(c.Query("winner_id")),
	}
	if raw := c.Query("manual"); raw != "" {
		manual, err := strconv.ParseBool(raw)
		if err != nil {
			shared.RespondError(c, response.CodeBadRequest, "manual must be a boolean", nil)
			return
		}
		filter.Manual = &manual
	}
	awardedTo, err := shared.ParseTimeNullable(c.Query("awarded_to"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	filter.AwardedTo = awardedTo

	awards, total, err := h.AwardService.ListAwards(filter)
	if err != nil {
		shared.RespondServiceError(c, err, "award list failed")
		return
	}
	response.SuccessWithPage(c, awards, shared.BuildPagination(page, pageSize, total))
}

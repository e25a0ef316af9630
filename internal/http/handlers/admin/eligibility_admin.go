package admin

import (
	"strconv"
	"strings"

	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/repository"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
)

// EligibilityChangeRequest 名单变更请求
type EligibilityChangeRequest struct {
	OperatingNumber string `json:"operating_number"`
	DotNumber       string `json:"dot_number"`
	Reason          string `json:"reason"`
}

// GetEligibilityEntries 获取资格名单
func (h *Handler) GetEligibilityEntries(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	filter := repository.EligibilityListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("q")),
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			shared.RespondError(c, response.CodeBadRequest, "is_active must be a boolean", nil)
			return
		}
		filter.IsActive = &active
	}
	entries, total, err := h.EligibilityService.List(filter)
	if err != nil {
		shared.RespondServiceError(c, err, "eligibility list failed")
		return
	}
	response.SuccessWithPage(c, entries, shared.BuildPagination(page, pageSize, total))
}

// DisableBidder 禁止承运人投标
func (h *Handler) DisableBidder(c *gin.Context) {
	h.changeEligibility(c, false)
}

// EnableBidder 恢复承运人投标资格
func (h *Handler) EnableBidder(c *gin.Context) {
	h.changeEligibility(c, true)
}

func (h *Handler) changeEligibility(c *gin.Context, enable bool) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	var req EligibilityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	input := service.EligibilityChangeInput{
		OperatingNumber: req.OperatingNumber,
		DotNumber:       req.DotNumber,
		Reason:          req.Reason,
		Actor:           identity.Subject,
	}
	change := h.EligibilityService.Disable
	if enable {
		change = h.EligibilityService.Enable
	}
	entry, err := change(c.Request.Context(), input)
	if err != nil {
		shared.RespondServiceError(c, err, "eligibility update failed")
		return
	}
	response.Success(c, entry)
}

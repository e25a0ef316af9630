package admin

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RunArchiveRequest 归档请求，day 为空时归档昨天
type RunArchiveRequest struct {
	Day string `json:"day"`
}

// RunEndOfDayArchive 执行日终归档
func (h *Handler) RunEndOfDayArchive(c *gin.Context) {
	identity, ok := shared.RequireIdentity(c)
	if !ok {
		return
	}
	var req RunArchiveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
			return
		}
	}
	if req.Day == "" {
		req.Day = c.Query("day")
	}

	report, err := h.ArchiveService.Run(c.Request.Context(), service.ArchiveInput{
		Day:   req.Day,
		Actor: identity.Subject,
	})
	if err != nil {
		if report != nil && errors.Is(err, service.ErrDependencyUnavailable) {
			shared.RequestLog(c).Errorw("admin_archive_partial", "day", report.Day, "archived", report.Archived, "error", err)
			response.ErrorWithData(c, response.CodeServiceUnavailable, "archive interrupted", report)
			return
		}
		shared.RespondServiceError(c, err, "archive failed")
		return
	}
	response.Success(c, report)
}

// GetArchivedAuctions 按归档日查询
func (h *Handler) GetArchivedAuctions(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	auctions, total, window, err := h.ArchiveService.ListArchived(c.Query("day"), page, pageSize)
	if err != nil {
		shared.RespondServiceError(c, err, "archive list failed")
		return
	}
	c.Header("X-Archive-Day", window.Day)
	response.SuccessWithPage(c, auctions, shared.BuildPagination(page, pageSize, total))
}

// ExportArchivedAuctions 导出某归档日的 xlsx
func (h *Handler) ExportArchivedAuctions(c *gin.Context) {
	var buf bytes.Buffer
	window, rows, err := h.ArchiveService.Export(c.Request.Context(), c.Query("day"), &buf)
	if err != nil {
		shared.RespondServiceError(c, err, "archive export failed")
		return
	}
	shared.RequestLog(c).Infow("admin_archive_exported", "day", window.Day, "rows", rows)
	response.Attachment(c, fmt.Sprintf("archived-auctions-%s.xlsx", window.Day), xlsxContentType, buf.Bytes())
}

package shared

import (
	"errors"

	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil || c.Request == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.FromContext(c.Request.Context())
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Fail(c, appErr)
}

// MappedError 业务错误到接口错误码的映射
type MappedError struct {
	Target error
	Code   int
	Msg    string // 为空时直接使用错误文本
}

// commonServiceErrors 各接口共用的业务错误映射
var commonServiceErrors = []MappedError{
	{Target: service.ErrAuctionNotFound, Code: response.CodeNotFound, Msg: "auction not found"},
	{Target: service.ErrEligibilityNotFound, Code: response.CodeNotFound, Msg: "eligibility entry not found"},
	{Target: service.ErrAuctionExists, Code: response.CodeConflict, Msg: "auction already exists"},
	{Target: service.ErrWindowClosed, Code: response.CodeConflict, Msg: "auction window closed"},
	{Target: service.ErrIneligible, Code: response.CodeForbidden, Msg: "bidder is not eligible"},
	{Target: service.ErrValidation, Code: response.CodeBadRequest},
	{Target: service.ErrDependencyUnavailable, Code: response.CodeServiceUnavailable, Msg: "service temporarily unavailable"},
}

// RespondServiceError 按业务错误类型返回响应，未识别的错误按 fallback 处理
func RespondServiceError(c *gin.Context, err error, fallbackMsg string, extra ...MappedError) {
	var rejection *service.OfferRejection
	if errors.As(err, &rejection) {
		respondOfferRejection(c, rejection)
		return
	}
	rules := append(append([]MappedError{}, extra...), commonServiceErrors...)
	for _, rule := range rules {
		if !errors.Is(err, rule.Target) {
			continue
		}
		msg := rule.Msg
		if msg == "" {
			msg = err.Error()
		}
		if rule.Code >= response.CodeInternal {
			RespondError(c, rule.Code, msg, err)
			return
		}
		RespondError(c, rule.Code, msg, nil)
		return
	}
	RespondError(c, response.CodeInternal, fallbackMsg, err)
}

func respondOfferRejection(c *gin.Context, rejection *service.OfferRejection) {
	code := response.CodeConflict
	if errors.Is(rejection, service.ErrIneligible) {
		code = response.CodeForbidden
	}
	RequestLog(c).Debugw("handler_offer_rejected", "reason", rejection.Reason, "detail", rejection.Detail)
	response.Fail(c, response.WrapError(code, rejection.Error(), rejection).WithData(gin.H{
		"reason":            rejection.Reason,
		"detail":            rejection.Detail,
		"seconds_remaining": rejection.SecondsRemaining,
	}))
}

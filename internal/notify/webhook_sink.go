package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/queue"

	"github.com/go-resty/resty/v2"
)

// SignatureHeader 通知签名请求头
const SignatureHeader = "X-Loadbid-Signature"

// WebhookSink 以 HTTP POST 推送通知
type WebhookSink struct {
	client *resty.Client
	url    string
	secret string
}

// NewWebhookSink 创建 Webhook 通道
func NewWebhookSink(cfg config.NotificationWebhookConfig) (*WebhookSink, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("notification webhook url is empty")
	}
	timeout := 5 * time.Second
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil || resp.StatusCode() >= 500
	})
	return &WebhookSink{client: client, url: url, secret: cfg.Secret}, nil
}

// Deliver 推送通知，非 2xx 视为失败交由队列重试
func (s *WebhookSink) Deliver(ctx context.Context, payload queue.NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req := s.client.R().SetContext(ctx).SetBody(body)
	if s.secret != "" {
		req.SetHeader(SignatureHeader, Sign(s.secret, body))
	}
	if payload.JobID != "" {
		req.SetHeader("Idempotency-Key", payload.JobID)
	}
	resp, err := req.Post(s.url)
	if err != nil {
		return fmt.Errorf("post notification webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification webhook responded %d", resp.StatusCode())
	}
	return nil
}

// Close 无需释放资源
func (s *WebhookSink) Close() error { return nil }

// Sign 计算 HMAC-SHA256 签名
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

package service

import (
	"math"
	"time"
)

// DefaultWindowDuration 竞价窗口默认时长
const DefaultWindowDuration = 25 * time.Minute

// WindowState 竞价窗口状态，每次读写都需重新计算
type WindowState struct {
	Open             bool      `json:"open"`
	SecondsRemaining int64     `json:"seconds_remaining"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// EvaluateWindow 根据接收时间与当前时间计算窗口状态
// 剩余秒数向上取整，保证 Open 与 SecondsRemaining>0 一致
func EvaluateWindow(receivedAt, now time.Time, window time.Duration) WindowState {
	if window <= 0 {
		window = DefaultWindowDuration
	}
	expiresAt := receivedAt.Add(window)
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return WindowState{Open: false, SecondsRemaining: 0, ExpiresAt: expiresAt.UTC()}
	}
	seconds := int64(math.Ceil(remaining.Seconds()))
	return WindowState{Open: seconds > 0, SecondsRemaining: seconds, ExpiresAt: expiresAt.UTC()}
}

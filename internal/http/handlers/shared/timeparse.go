package shared

import (
	"fmt"
	"strings"
	"time"
)

// ParseTimeNullable 解析 RFC3339 时间，空字符串返回 nil，结果统一为 UTC
func ParseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	t = t.UTC()
	return &t, nil
}

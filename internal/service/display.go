package service

import (
	"strings"
	"time"
	_ "time/tzdata" // 容器镜像可能缺少时区库
)

// DefaultDisplayTimezone 展示时区
const DefaultDisplayTimezone = "America/Chicago"

// DisplayZone 仅用于展示层的本地时区转换
type DisplayZone struct {
	loc *time.Location
}

// NewDisplayZone 加载展示时区，失败时退回 UTC
func NewDisplayZone(timezone string) (DisplayZone, error) {
	tz := strings.TrimSpace(timezone)
	if tz == "" {
		tz = DefaultDisplayTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return DisplayZone{loc: time.UTC}, err
	}
	return DisplayZone{loc: loc}, nil
}

// Location 展示时区
func (z DisplayZone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Format 转为展示时区字符串，零值返回空
func (z DisplayZone) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(z.Location()).Format("2006-01-02 15:04:05 MST")
}

// FormatPtr 同 Format，接受可空时间
func (z DisplayZone) FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return z.Format(*t)
}

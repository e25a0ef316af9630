package service

import (
	"fmt"
	"strings"
	"time"
)

// DefaultArchiveCutoff 次日归属截止时间（05:00:00）
const DefaultArchiveCutoff = 5 * time.Hour

// ArchiveDayLayout 归档日期格式
const ArchiveDayLayout = "2006-01-02"

// BusinessClock 无夏令时的业务时钟，归档边界只在此时区内计算
type BusinessClock struct {
	Location *time.Location
	Cutoff   time.Duration
}

// NewBusinessClock 创建业务时钟，时区不得有夏令时切换
func NewBusinessClock(timezone string, cutoff time.Duration) (BusinessClock, error) {
	loc := time.UTC
	if tz := strings.TrimSpace(timezone); tz != "" && !strings.EqualFold(tz, "UTC") {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return BusinessClock{}, fmt.Errorf("load business timezone %q: %w", tz, err)
		}
		if observesDST(l) {
			return BusinessClock{}, fmt.Errorf("business timezone %q observes daylight saving", tz)
		}
		loc = l
	}
	if cutoff <= 0 || cutoff >= 24*time.Hour {
		cutoff = DefaultArchiveCutoff
	}
	return BusinessClock{Location: loc, Cutoff: cutoff}, nil
}

func observesDST(loc *time.Location) bool {
	year := time.Now().Year()
	_, jan := time.Date(year, time.January, 1, 0, 0, 0, 0, loc).Zone()
	_, jul := time.Date(year, time.July, 1, 0, 0, 0, 0, loc).Zone()
	return jan != jul
}

func (c BusinessClock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c BusinessClock) cutoff() time.Duration {
	if c.Cutoff <= 0 {
		return DefaultArchiveCutoff
	}
	return c.Cutoff
}

// ArchiveWindow 某归档日对应的接收时间区间与统一归档时间戳
type ArchiveWindow struct {
	Day        string    `json:"day"`
	From       time.Time `json:"from"`        // 含，D 00:00:00
	To         time.Time `json:"to"`          // 不含，D+1 截止时间
	ArchivedAt time.Time `json:"archived_at"` // D+1 截止时间前一秒
}

// Contains 判断接收时间是否属于该归档日
func (w ArchiveWindow) Contains(receivedAt time.Time) bool {
	return !receivedAt.Before(w.From) && receivedAt.Before(w.To)
}

// ParseDay 解析归档日期
func (c BusinessClock) ParseDay(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(ArchiveDayLayout, strings.TrimSpace(raw), c.location())
	if err != nil {
		return time.Time{}, ErrInvalidArchiveDay
	}
	return day, nil
}

// WindowForDay 计算归档日 D 的区间 [D 00:00, D+1 cutoff)，归档时间为 D+1 cutoff-1s
func (c BusinessClock) WindowForDay(day time.Time) ArchiveWindow {
	loc := c.location()
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	nextMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	end := nextMidnight.Add(c.cutoff())
	return ArchiveWindow{
		Day:        start.Format(ArchiveDayLayout),
		From:       start.UTC(),
		To:         end.UTC(),
		ArchivedAt: end.Add(-time.Second).UTC(),
	}
}

// Yesterday 业务时钟下的昨天
func (c BusinessClock) Yesterday(now time.Time) time.Time {
	loc := c.location()
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, loc)
}

// DayOf 返回接收时间最早归属的归档日（截止时间前的凌晨记录归前一日）
func (c BusinessClock) DayOf(receivedAt time.Time) string {
	return receivedAt.In(c.location()).Add(-c.cutoff()).Format(ArchiveDayLayout)
}

package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/loadbid-next/internal/exporter"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
)

const (
	defaultArchiveBatchSize = 500
	archiveExportPageSize   = 500
)

// ArchiveInput 归档参数，Day 为空时归档业务时钟下的昨天
type ArchiveInput struct {
	Day   string
	Actor string
}

// ArchiveReport 归档结果；失败时 Archived 为已提交的部分数量
type ArchiveReport struct {
	Day        string    `json:"day"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	ArchivedAt time.Time `json:"archived_at"`
	Archived   int       `json:"archived"`
	Chunks     int       `json:"chunks"`
	Auto       bool      `json:"auto"`
}

// ArchiveService 按业务日分批归档竞价单
type ArchiveService struct {
	auctionRepo repository.AuctionRepository
	awardRepo   repository.AwardRepository
	lifecycle   *LifecycleRecorder
	clock       BusinessClock
	display     DisplayZone
	batchSize   int
	nowFn       func() time.Time
}

// NewArchiveService 创建归档服务
func NewArchiveService(
	auctionRepo repository.AuctionRepository,
	awardRepo repository.AwardRepository,
	lifecycle *LifecycleRecorder,
	clock BusinessClock,
	display DisplayZone,
	batchSize int,
) *ArchiveService {
	if batchSize <= 0 {
		batchSize = defaultArchiveBatchSize
	}
	return &ArchiveService{
		auctionRepo: auctionRepo,
		awardRepo:   awardRepo,
		lifecycle:   lifecycle,
		clock:       clock,
		display:     display,
		batchSize:   batchSize,
		nowFn:       time.Now,
	}
}

// ResolveWindow 解析归档日，空值取昨天
func (s *ArchiveService) ResolveWindow(day string) (ArchiveWindow, bool, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return s.clock.WindowForDay(s.clock.Yesterday(s.nowFn())), true, nil
	}
	parsed, err := s.clock.ParseDay(day)
	if err != nil {
		return ArchiveWindow{}, false, err
	}
	return s.clock.WindowForDay(parsed), false, nil
}

// Run 归档 [D 00:00, D+1 截止时间) 内尚未归档的竞价单，每块独立事务
// 重复执行同一天不会再归档任何记录
func (s *ArchiveService) Run(ctx context.Context, input ArchiveInput) (*ArchiveReport, error) {
	window, auto, err := s.ResolveWindow(input.Day)
	if err != nil {
		return nil, err
	}
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		actor = "system"
	}
	log := logger.FromContext(ctx, "day", window.Day, "actor", actor)
	report := &ArchiveReport{
		Day:        window.Day,
		From:       window.From,
		To:         window.To,
		ArchivedAt: window.ArchivedAt,
		Auto:       auto,
	}
	log.Infow("archive_run_started", "from", window.From, "to", window.To, "archived_at", window.ArchivedAt, "auto", auto)

	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			log.Warnw("archive_run_cancelled", "archived", report.Archived, "error", err)
			return report, fmt.Errorf("archive %s stopped after %d rows: %w", window.Day, report.Archived, err)
		}
		ids, err := s.auctionRepo.ListArchiveCandidateIDs(window.From, window.To, afterID, s.batchSize)
		if err != nil {
			log.Errorw("archive_candidates_failed", "archived", report.Archived, "error", err)
			return report, dependencyError(fmt.Sprintf("archive %s list candidates (archived %d)", window.Day, report.Archived), err)
		}
		if len(ids) == 0 {
			break
		}
		refs, err := s.auctionRepo.ArchiveByIDs(ids, window.ArchivedAt)
		if err != nil {
			log.Errorw("archive_chunk_failed", "chunk", report.Chunks+1, "size", len(ids), "archived", report.Archived, "error", err)
			return report, dependencyError(fmt.Sprintf("archive %s chunk %d (archived %d)", window.Day, report.Chunks+1, report.Archived), err)
		}
		report.Chunks++
		report.Archived += len(refs)
		s.lifecycle.RecordArchived(ctx, refs, window.Day, window.ArchivedAt)
		log.Debugw("archive_chunk_committed", "chunk", report.Chunks, "size", len(refs))

		afterID = ids[len(ids)-1]
		if len(ids) < s.batchSize {
			break
		}
	}
	log.Infow("archive_run_finished", "archived", report.Archived, "chunks", report.Chunks)
	return report, nil
}

// ListArchived 分页查询某归档日的竞价单
func (s *ArchiveService) ListArchived(day string, page, pageSize int) ([]models.Auction, int64, ArchiveWindow, error) {
	window, _, err := s.ResolveWindow(day)
	if err != nil {
		return nil, 0, ArchiveWindow{}, err
	}
	auctions, total, err := s.auctionRepo.ListArchived(repository.ArchivedListFilter{
		Page:       page,
		PageSize:   pageSize,
		ArchivedAt: window.ArchivedAt,
	})
	if err != nil {
		return nil, 0, window, dependencyError("list archived auctions", err)
	}
	return auctions, total, window, nil
}

// Export 导出某归档日的竞价单与中标结果，时间按展示时区输出
func (s *ArchiveService) Export(ctx context.Context, day string, w io.Writer) (ArchiveWindow, int, error) {
	window, _, err := s.ResolveWindow(day)
	if err != nil {
		return ArchiveWindow{}, 0, err
	}
	rows := make([]exporter.ArchiveRow, 0)
	for page := 1; ; page++ {
		auctions, total, err := s.auctionRepo.ListArchived(repository.ArchivedListFilter{
			Page:       page,
			PageSize:   archiveExportPageSize,
			ArchivedAt: window.ArchivedAt,
		})
		if err != nil {
			return window, 0, dependencyError("list archived auctions", err)
		}
		ids := make([]string, 0, len(auctions))
		for _, a := range auctions {
			ids = append(ids, a.AuctionID)
		}
		awards, err := s.awardRepo.MapByAuctionIDs(ids)
		if err != nil {
			return window, 0, dependencyError("load awards", err)
		}
		for _, a := range auctions {
			row := exporter.ArchiveRow{Auction: a}
			if award, ok := awards[a.AuctionID]; ok {
				awardCopy := award
				row.Award = &awardCopy
			}
			rows = append(rows, row)
		}
		if len(auctions) < archiveExportPageSize || int64(len(rows)) >= total {
			break
		}
	}

	book, err := exporter.NewArchiveWorkbook(window.Day, rows, s.display.Location())
	if err != nil {
		return window, 0, err
	}
	defer func() {
		_ = book.Close()
	}()
	if _, err := book.WriteTo(w); err != nil {
		return window, 0, fmt.Errorf("write archive workbook: %w", err)
	}
	logger.FromContext(ctx).Infow("archive_exported", "day", window.Day, "rows", len(rows))
	return window, len(rows), nil
}

package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/loadbid-next/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	archiveSheetName   = "Archived Auctions"
	archiveTimeLayout  = "2006-01-02 15:04:05 MST"
	defaultSheetToDrop = "Sheet1"
)

// ArchiveHeader 归档导出表头
var ArchiveHeader = []string{
	"Auction ID",
	"Tag",
	"Distance",
	"Route",
	"Source Channel",
	"Received At",
	"Archived At",
	"Winner",
	"Winning Amount",
	"Manual Award",
	"Adjudicator Notes",
	"Awarded At",
}

var archiveColumnWidths = []float64{22, 10, 10, 48, 16, 24, 24, 20, 16, 12, 36, 24}

// ArchiveRow 一条归档竞价单及其中标结果
type ArchiveRow struct {
	Auction models.Auction
	Award   *models.Award
}

// NewArchiveWorkbook 生成归档日导出工作簿，调用方负责 Close
func NewArchiveWorkbook(day string, rows []ArchiveRow, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	index, err := f.NewSheet(archiveSheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet(defaultSheetToDrop); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Archived auctions " + day,
		Subject: day,
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]interface{}, 0, len(ArchiveHeader))
	for _, h := range ArchiveHeader {
		header = append(header, h)
	}
	if err := f.SetSheetRow(archiveSheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(ArchiveHeader))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(archiveSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set header style: %w", err)
	}
	for i, width := range archiveColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetColWidth(archiveSheetName, col, col, width); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		values := archiveRowValues(row, loc)
		if err := f.SetSheetRow(archiveSheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func archiveRowValues(row ArchiveRow, loc *time.Location) []interface{} {
	a := row.Auction
	values := []interface{}{
		a.AuctionID,
		a.Tag,
		a.Distance,
		strings.Join(a.RouteStops, " -> "),
		a.SourceChannel,
		formatTime(&a.ReceivedAt, loc),
		formatTime(a.ArchivedAt, loc),
	}
	if row.Award == nil {
		return append(values, "", "", "", "", "")
	}
	return append(values,
		row.Award.WinnerID,
		models.MoneyFromMinorUnits(row.Award.WinningAmountMinorUnits).String(),
		yesNo(row.Award.Manual),
		row.Award.AdjudicatorNotes,
		formatTime(&row.Award.AwardedAt, loc),
	)
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(archiveTimeLayout)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

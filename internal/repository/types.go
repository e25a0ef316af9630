package repository

import "time"

// AuctionListFilter 查询竞价单列表的过滤条件
type AuctionListFilter struct {
	Page          int
	PageSize      int
	Tag           string
	Search        string
	OnlyPublished bool
	OnlyActive    bool       // 未归档
	ReceivedFrom  *time.Time // 含
	ReceivedTo    *time.Time // 不含
}

// ArchivedListFilter 查询某归档批次的过滤条件
type ArchivedListFilter struct {
	Page       int
	PageSize   int
	ArchivedAt time.Time
}

// OfferListFilter 查询出价记录的过滤条件
type OfferListFilter struct {
	Page      int
	PageSize  int
	BidderID  string
	AuctionID string
}

// AwardListFilter 查询中标记录的过滤条件
type AwardListFilter struct {
	Page      int
	PageSize  int
	WinnerID  string
	Manual    *bool
	AwardedTo *time.Time
}

// EligibilityListFilter 查询资格名单的过滤条件
type EligibilityListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	IsActive *bool
}

// OfferSummary 单个竞价单的出价汇总
type OfferSummary struct {
	AuctionID   string
	OfferCount  int64
	LowestMinor int64
}

// ArchivedRef 本批次归档的竞价单
type ArchivedRef struct {
	ID        uint
	AuctionID string
}

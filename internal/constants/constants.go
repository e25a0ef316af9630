package constants

// 队列与任务常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskNotificationDispatch = "notification:dispatch"
)

// 通知模板类型
const (
	NotificationOfferAccepted  = "offer_accepted"
	NotificationOfferRejected  = "offer_rejected"
	NotificationBidReceived    = "bid_received"
	NotificationAuctionExpired = "auction_expired"
	NotificationAuctionWon     = "auction_won"
	NotificationAuctionLost    = "auction_lost"
)

// 通知接收方类型
const (
	RecipientBidder = "bidder"
	RecipientAdmin  = "admin"
)

// 通知投递驱动
const (
	NotificationDriverLog     = "log"
	NotificationDriverWebhook = "webhook"
	NotificationDriverAMQP    = "amqp"
)

// 令牌角色
const (
	RoleCarrier    = "carrier"
	RoleDispatcher = "dispatcher"
	RoleAdmin      = "admin"
)

// 出价拒绝原因
const (
	RejectReasonWindowClosed   = "window_closed"
	RejectReasonIneligible     = "ineligible"
	RejectReasonAlreadyAwarded = "already_awarded"
)

// AwardedBySystem 自动裁决的操作者
const AwardedBySystem = "system"

package public

import (
	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/service"

	"github.com/gin-gonic/gin"
)

// IntakeAuctionRequest 上游推送的竞价单
type IntakeAuctionRequest struct {
	AuctionID     string   `json:"auction_id" binding:"required"`
	Distance      float64  `json:"distance"`
	RouteStops    []string `json:"route_stops"`
	Tag           string   `json:"tag"`
	SourceChannel string   `json:"source_channel"`
	PickupAt      string   `json:"pickup_at"`
	DeliveryAt    string   `json:"delivery_at"`
	ReceivedAt    string   `json:"received_at"`
	Published     *bool    `json:"published"`
}

// ToInput 转换为服务层参数
func (r IntakeAuctionRequest) ToInput() (service.IntakeAuctionInput, error) {
	pickupAt, err := shared.ParseTimeNullable(r.PickupAt)
	if err != nil {
		return service.IntakeAuctionInput{}, err
	}
	deliveryAt, err := shared.ParseTimeNullable(r.DeliveryAt)
	if err != nil {
		return service.IntakeAuctionInput{}, err
	}
	receivedAt, err := shared.ParseTimeNullable(r.ReceivedAt)
	if err != nil {
		return service.IntakeAuctionInput{}, err
	}
	return service.IntakeAuctionInput{
		AuctionID:     r.AuctionID,
		Distance:      r.Distance,
		RouteStops:    r.RouteStops,
		Tag:           r.Tag,
		SourceChannel: r.SourceChannel,
		PickupAt:      pickupAt,
		DeliveryAt:    deliveryAt,
		ReceivedAt:    receivedAt,
		Published:     r.Published,
	}, nil
}

// IntakeAuction 接入竞价单（Webhook）
func (h *Handler) IntakeAuction(c *gin.Context) {
	var req IntakeAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	if input.SourceChannel == "" {
		input.SourceChannel = "webhook"
	}

	auction, err := h.AuctionService.Intake(c.Request.Context(), input)
	if err != nil {
		shared.RespondServiceError(c, err, "auction intake failed")
		return
	}
	response.Success(c, auction)
}

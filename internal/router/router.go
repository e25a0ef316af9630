package router

import (
	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/constants"
	adminhandlers "github.com/loadbid-next/internal/http/handlers/admin"
	publichandlers "github.com/loadbid-next/internal/http/handlers/public"
	"github.com/loadbid-next/internal/http/response"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	requireToken := TokenAuthMiddleware(cfg.JWT, true)
	optionalToken := TokenAuthMiddleware(cfg.JWT, false)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 上游接入
		intake := apiV1.Group("/intake", IntakeKeyMiddleware(cfg.Intake.APIKey))
		{
			intake.POST("/auctions", publicHandler.IntakeAuction)
		}

		// 竞价大厅
		auctions := apiV1.Group("/auctions")
		{
			auctions.GET("", publicHandler.ListAuctions)
			auctions.GET("/:auction_id", optionalToken, publicHandler.GetAuction)
			auctions.POST("/:auction_id/offers", requireToken, RequireRoleMiddleware(constants.RoleCarrier), publicHandler.SubmitOffer)
		}

		// 投标人
		me := apiV1.Group("/me", requireToken)
		{
			me.GET("/offers", publicHandler.GetMyOffers)
			me.GET("/awards", publicHandler.GetMyAwards)
		}

		// 管理端
		admin := apiV1.Group("/admin", requireToken, AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/auctions", adminHandler.GetAdminAuctions)
			admin.POST("/auctions", adminHandler.CreateAuction)
			admin.GET("/auctions/:auction_id", adminHandler.GetAdminAuction)
			admin.PUT("/auctions/:auction_id/published", adminHandler.SetAuctionPublished)
			admin.GET("/auctions/:auction_id/offers", adminHandler.GetAuctionOffers)
			admin.POST("/auctions/:auction_id/award", adminHandler.AdjudicateAuction)
			admin.GET("/auctions/:auction_id/history", adminHandler.GetAuctionHistory)

			admin.GET("/awards", adminHandler.GetAdminAwards)

			admin.GET("/eligibility", adminHandler.GetEligibilityEntries)
			admin.POST("/eligibility/disable", adminHandler.DisableBidder)
			admin.POST("/eligibility/enable", adminHandler.EnableBidder)

			admin.POST("/archive/end-of-day", adminHandler.RunEndOfDayArchive)
			admin.GET("/archive", adminHandler.GetArchivedAuctions)
			admin.GET("/archive/export", adminHandler.ExportArchivedAuctions)

			admin.GET("/authz/roles", adminHandler.GetAuthzRoles)
			admin.GET("/authz/operators/:subject/roles", adminHandler.GetOperatorRoles)
			admin.PUT("/authz/operators/:subject/roles", adminHandler.SetOperatorRoles)
		}
	}

	return r
}

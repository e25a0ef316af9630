package provider

import (
	"github.com/loadbid-next/internal/authz"
	"github.com/loadbid-next/internal/cache"
	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/notify"
	"github.com/loadbid-next/internal/queue"
	"github.com/loadbid-next/internal/repository"
	"github.com/loadbid-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Sink        notify.Sink

	// 缓存
	LocalCache  *cache.LocalStore
	SharedCache *cache.RedisStore

	// Repositories
	AuctionRepo     repository.AuctionRepository
	OfferRepo       repository.OfferRepository
	AwardRepo       repository.AwardRepository
	LifecycleRepo   repository.LifecycleEventRepository
	EligibilityRepo repository.EligibilityRepository

	// Services
	AuthzService       *authz.Service
	Lifecycle          *service.LifecycleRecorder
	NotificationRelay  *service.NotificationRelay
	EligibilityService *service.EligibilityService
	AwardService       *service.AwardService
	OfferService       *service.OfferService
	AuctionService     *service.AuctionService
	ArchiveService     *service.ArchiveService
}

// NewContainer 使用全局数据库初始化容器
func NewContainer(cfg *config.Config) *Container {
	c, err := NewContainerWithDB(cfg, models.DB)
	if err != nil {
		logger.Errorw("provider_init_failed", "error", err)
		panic(err)
	}
	return c
}

// NewContainerWithDB 使用指定数据库初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     db,
	}

	// 1. 基础设施
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) initInfrastructure() error {
	c.SharedCache = cache.NewRedisStore(&c.Config.Redis)

	if c.Config.Eligibility.LocalCache {
		local, err := cache.NewLocalStore()
		if err != nil {
			logger.Warnw("provider_init_local_cache_failed", "error", err)
		} else {
			c.LocalCache = local
		}
	}

	queueClient, err := queue.NewClient(&c.Config.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	} else {
		c.QueueClient = queueClient
	}

	sink, err := notify.NewSink(c.Config.Notification)
	if err != nil {
		logger.Warnw("provider_init_notification_sink_failed",
			"driver", c.Config.Notification.Driver,
			"error", err,
		)
		sink = notify.NewLogSink()
	}
	c.Sink = sink
	return nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.AuctionRepo = repository.NewAuctionRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.AwardRepo = repository.NewAwardRepository(db)
	c.LifecycleRepo = repository.NewLifecycleEventRepository(db)
	c.EligibilityRepo = repository.NewEligibilityRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	auctionCfg := c.Config.Auction
	window := auctionCfg.WindowDuration()
	cutoff, err := auctionCfg.CutoffOffset()
	if err != nil {
		return err
	}
	businessClock, err := service.NewBusinessClock(auctionCfg.BusinessTimezone, cutoff)
	if err != nil {
		return err
	}
	display, err := service.NewDisplayZone(auctionCfg.DisplayTimezone)
	if err != nil {
		return err
	}

	c.Lifecycle = service.NewLifecycleRecorder(c.LifecycleRepo)
	c.NotificationRelay = service.NewNotificationRelay(c.QueueClient, c.Sink, c.Config.Notification.AdminRecipients)
	c.EligibilityService = service.NewEligibilityService(c.EligibilityRepo, c.eligibilityCache(), c.Config.Eligibility.CacheTTL())
	c.AwardService = service.NewAwardService(c.AuctionRepo, c.OfferRepo, c.AwardRepo, c.Lifecycle, c.NotificationRelay, window)
	c.OfferService = service.NewOfferService(
		c.AuctionRepo,
		c.OfferRepo,
		c.AwardRepo,
		c.EligibilityService,
		c.AwardService,
		c.Lifecycle,
		c.NotificationRelay,
		window,
	)
	c.AuctionService = service.NewAuctionService(c.AuctionRepo, c.OfferRepo, c.AwardRepo, c.AwardService, c.Lifecycle, service.AuctionSettings{
		Window:  window,
		Clock:   businessClock,
		Display: display,
	})
	c.ArchiveService = service.NewArchiveService(
		c.AuctionRepo,
		c.AwardRepo,
		c.Lifecycle,
		businessClock,
		display,
		auctionCfg.ArchiveBatchSize,
	)
	return nil
}

// eligibilityCache 组合本地与共享缓存，均未启用时返回 nil
func (c *Container) eligibilityCache() cache.Store {
	var local, shared cache.Store
	if c.LocalCache != nil {
		local = c.LocalCache
	}
	if c.SharedCache != nil {
		shared = c.SharedCache
	}
	switch {
	case local == nil && shared == nil:
		return nil
	case shared == nil:
		return local
	case local == nil:
		return shared
	default:
		return cache.NewTiered(local, shared).WithBackfillTTL(c.Config.Eligibility.CacheTTL())
	}
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.NotificationRelay != nil {
		c.NotificationRelay.Wait()
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if c.Sink != nil {
		if err := c.Sink.Close(); err != nil {
			logger.Warnw("provider_close_notification_sink_failed", "error", err)
		}
	}
	if c.LocalCache != nil {
		_ = c.LocalCache.Close()
	}
	if c.SharedCache != nil {
		_ = c.SharedCache.Close()
	}
}

package provider

import (
	"github.com/aura-harvest/aura-admin/internal/cache"
	"github.com/aura-harvest/aura-admin/internal/config"
	"github.com/aura-harvest/aura-admin/internal/logger"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/queue"
	"github.com/aura-harvest/aura-admin/internal/repository"
	"github.com/aura-harvest/aura-admin/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	UserRepo        repository.UserRepository
	CollectionRepo  repository.CollectionRepository
	ProductRepo     repository.ProductRepository
	OrderRepo       repository.OrderRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository

	// Services
	AuthService        *service.AuthService
	CollectionService  *service.CollectionService
	ProductService     *service.ProductService
	UserService        *service.UserService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	OrderService       *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CollectionRepo = repository.NewCollectionRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CollectionService = service.NewCollectionService(c.CollectionRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CollectionRepo)
	c.UserService = service.NewUserService(c.UserRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CollectionRepo)
	c.OrderService = service.NewOrderService(models.DB, c.Config, c.OrderRepo, c.ProductRepo, c.CouponService, c.QueueClient)
}

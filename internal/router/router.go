package router

import (
	"fmt"
	"strings"

	"github.com/aura-harvest/aura-admin/internal/cache"
	"github.com/aura-harvest/aura-admin/internal/config"
	adminhandlers "github.com/aura-harvest/aura-admin/internal/http/handlers/admin"
	publichandlers "github.com/aura-harvest/aura-admin/internal/http/handlers/public"
	"github.com/aura-harvest/aura-admin/internal/logger"
	"github.com/aura-harvest/aura-admin/internal/provider"

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
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "aura"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/collections", publicHandler.GetCollections)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
		}

		// 结算接口
		checkout := apiV1.Group("/checkout")
		{
			checkout.POST("/coupons/preview", publicHandler.PreviewCoupon)
			checkout.POST("/orders", publicHandler.CreateOrder)
			checkout.GET("/orders/:order_no", publicHandler.GetOrder)
			checkout.POST("/orders/:order_no/cancel", publicHandler.CancelOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 仪表盘
				authorized.GET("/dashboard", adminHandler.GetAdminDashboard)

				// 集合管理
				authorized.GET("/collections", adminHandler.GetAdminCollections)
				authorized.POST("/collections", adminHandler.CreateCollection)
				authorized.PUT("/collections/:id", adminHandler.UpdateCollection)
				authorized.DELETE("/collections/:id", adminHandler.DeleteCollection)

				// 商品管理
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				// 优惠券管理
				authorized.GET("/coupons", adminHandler.GetAdminCoupons)
				authorized.GET("/coupons/:id", adminHandler.GetAdminCoupon)
				authorized.GET("/coupons/:id/usages", adminHandler.GetAdminCouponUsages)
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.DELETE("/coupons/:id", adminHandler.DeleteCoupon)

				// 订单管理
				authorized.GET("/orders", adminHandler.GetAdminOrders)
				authorized.GET("/orders/:id", adminHandler.GetAdminOrder)
				authorized.PATCH("/orders/:id", adminHandler.UpdateAdminOrderStatus)
				authorized.POST("/orders/:id/mark-paid", adminHandler.MarkAdminOrderPaid)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.POST("/users", adminHandler.CreateUser)
				authorized.PUT("/users/:id", adminHandler.UpdateUser)
				authorized.DELETE("/users/:id", adminHandler.DeleteUser)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

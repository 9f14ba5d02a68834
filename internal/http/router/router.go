package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/creator-escrow/internal/config"
	"github.com/ignatzorin/creator-escrow/internal/http/handlers"
	"github.com/ignatzorin/creator-escrow/internal/http/middleware"
)

// Handlers - набор хэндлеров, которые публикует роутер.
type Handlers struct {
	Order      *handlers.OrderHandler
	Payment    *handlers.PaymentHandler
	Seller     *handlers.SellerHandler
	Resolution *handlers.ResolutionHandler
	Chat       *handlers.ChatHandler
	Admin      *handlers.AdminHandler
	WS         *handlers.WSHandler
	Health     *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.AccessParser) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	// Операции с деньгами дополнительно ограничены по частоте на субъекта.
	moneyLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	order := protected.Group("/order")
	{
		order.POST("/create", h.Order.CreateOrder)
		order.GET("/my", h.Order.ListMyOrders)
		order.POST("/resolution", h.Resolution.Submit)
		order.GET("/:id", middleware.UUIDValidator("id"), h.Order.GetOrder)
		order.GET("/:id/history", middleware.UUIDValidator("id"), h.Order.GetHistory)
		order.PUT("/:id/accept", middleware.UUIDValidator("id"), h.Order.AcceptOrder)
		order.PUT("/:id/reject", middleware.UUIDValidator("id"), h.Order.RejectOrder)
		order.GET("/:id/chat", middleware.UUIDValidator("id"), h.Chat.ListMessages)
		order.POST("/:id/chat", middleware.UUIDValidator("id"), h.Chat.SendMessage)
		order.GET("/:id/resolutions", middleware.UUIDValidator("id"), h.Resolution.ListByOrder)
	}

	payment := protected.Group("/payment")
	payment.Use(moneyLimit)
	{
		payment.POST("/initiate", h.Payment.Initiate)
		payment.POST("/verify", h.Payment.Verify)
		payment.POST("/request-release", h.Payment.RequestRelease)
		payment.POST("/release-milestone", h.Payment.ReleaseMilestone)
		payment.GET("/order/:orderId", middleware.UUIDValidator("orderId"), h.Payment.GetForOrder)
	}

	seller := protected.Group("/seller")
	{
		seller.GET("/earnings", h.Seller.Earnings)
		seller.POST("/withdraw", moneyLimit, h.Seller.Withdraw)
		seller.GET("/withdrawals", h.Seller.ListWithdrawals)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/payment/refund-milestone", h.Admin.RefundMilestone)
		admin.PUT("/order/:id/cancel", middleware.UUIDValidator("id"), h.Admin.CancelOrder)
		admin.PUT("/withdrawals/:id/approve", middleware.UUIDValidator("id"), h.Admin.ApproveWithdrawal)
		admin.PUT("/withdrawals/:id/reject", middleware.UUIDValidator("id"), h.Admin.RejectWithdrawal)
		admin.PUT("/resolutions/:id/status", middleware.UUIDValidator("id"), h.Admin.UpdateResolutionStatus)
	}

	return r
}

package router

import (
	"fmt"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/handler"
	"github.com/blues/fundraiser/internal/logic"
	"github.com/blues/fundraiser/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup 注册路由，limiter 为 nil 时不限流
func Setup(db *gorm.DB, gateway logic.PaymentGateway, cfg *config.Config, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	r := gin.New()

	// 限流按 ClientIP，只信任配置的代理转发的 X-Forwarded-For
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(corsMiddleware(cfg.Server.AllowOrigins))

	eventHandler := handler.NewEventHandler(logic.NewEventLogic(db))
	donationHandler := handler.NewDonationHandler(logic.NewDonationLogic(db, gateway), cfg.Paystack.CallbackURL)

	donate := []gin.HandlerFunc{donationHandler.Donate}
	if limiter != nil {
		donate = append([]gin.HandlerFunc{limiter.Middleware()}, donate...)
	}

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/event", eventHandler.GetActiveEvent)
		api.POST("/donate", donate...)
		api.GET("/verify_payment", donationHandler.VerifyPayment)
		api.GET("/donations", donationHandler.ListDonations)
		api.GET("/donations/:reference/qrcode", donationHandler.PaymentQRCode)
	}

	return r, nil
}

// corsMiddleware 未配置或包含 * 时允许所有来源
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

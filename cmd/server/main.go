package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/database"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/middleware"
	"github.com/blues/fundraiser/internal/paystack"
	"github.com/blues/fundraiser/internal/router"
	"github.com/blues/fundraiser/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库，失败直接退出
	db, err := database.Init(cfg.Database, cfg.Event)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化支付网关
	gateway := paystack.New(cfg.Paystack)
	defer gateway.Close()
	if !gateway.Configured() {
		logger.Warn("Paystack API key not found, set PAYSTACK_SECRET_KEY; payments will be rejected")
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst)
	}

	// 初始化路由
	r, err := router.Setup(db, gateway, cfg, limiter)
	if err != nil {
		logger.Fatal("Failed to setup router: %v", err)
	}

	// 启动定时任务
	if cfg.Scheduler.Enabled {
		manager, err := scheduler.Start(db, cfg, limiter)
		if err != nil {
			logger.Fatal("Failed to start scheduler: %v", err)
		}
		defer manager.Stop()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}

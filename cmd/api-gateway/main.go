// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/smart-booking-backend/internal/common/cache"
	"github.com/dumeirei/smart-booking-backend/internal/common/config"
	"github.com/dumeirei/smart-booking-backend/internal/common/database"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	"github.com/dumeirei/smart-booking-backend/internal/common/tracing"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	"github.com/dumeirei/smart-booking-backend/internal/scheduler"
	notifyService "github.com/dumeirei/smart-booking-backend/internal/service/notify"
)

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Smart Booking Backend",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化指标
	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Server.Name)
	}

	// 初始化追踪
	if cfg.Tracing.Enabled {
		tracer, err := tracing.Init(&tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Server.Mode,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
			Enabled:     true,
		})
		if err != nil {
			log.Fatal("Failed to init tracing", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracer.Shutdown(ctx)
		}()
	}

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// 初始化 Redis 连接
	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected successfully")

	// 设置 Gin 模式
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由
	if err := setupRouter(engine, cfg, log, db, redisClient); err != nil {
		log.Fatal("Failed to setup router", zap.Error(err))
	}

	// 启动定时任务调度器
	smsSender, err := newSmsSender(&cfg.SMS)
	if err != nil {
		log.Fatal("Failed to init sms sender", zap.Error(err))
	}
	notifySvc := notifyService.NewService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		smsSender,
		cfg.Business.Refund.NotifyTimeoutSec,
	)
	sched := scheduler.NewScheduler()
	scheduler.NewTaskHandler(
		repository.NewBookingRepository(db),
		repository.NewNotificationRepository(db),
		notifySvc,
	).Register(sched)
	sched.Start()
	log.Info("Scheduler started")

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 停止定时任务
	sched.Stop()

	// 创建超时上下文用于优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 等待异步通知发送完成
	notifySvc.Flush()

	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	log.Info("Server exited")
}

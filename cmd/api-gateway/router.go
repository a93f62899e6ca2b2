// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/dumeirei/smart-booking-backend/docs"
	"github.com/dumeirei/smart-booking-backend/internal/common/config"
	"github.com/dumeirei/smart-booking-backend/internal/common/jwt"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/smart-booking-backend/internal/common/middleware"
	adminHandler "github.com/dumeirei/smart-booking-backend/internal/handler/admin"
	authHandler "github.com/dumeirei/smart-booking-backend/internal/handler/auth"
	bookingHandler "github.com/dumeirei/smart-booking-backend/internal/handler/booking"
	notifyHandler "github.com/dumeirei/smart-booking-backend/internal/handler/notify"
	paymentruleHandler "github.com/dumeirei/smart-booking-backend/internal/handler/paymentrule"
	propertyHandler "github.com/dumeirei/smart-booking-backend/internal/handler/property"
	refundHandler "github.com/dumeirei/smart-booking-backend/internal/handler/refund"
	"github.com/dumeirei/smart-booking-backend/internal/middleware"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	adminService "github.com/dumeirei/smart-booking-backend/internal/service/admin"
	authService "github.com/dumeirei/smart-booking-backend/internal/service/auth"
	bookingService "github.com/dumeirei/smart-booking-backend/internal/service/booking"
	notifyService "github.com/dumeirei/smart-booking-backend/internal/service/notify"
	paymentruleService "github.com/dumeirei/smart-booking-backend/internal/service/paymentrule"
	propertyService "github.com/dumeirei/smart-booking-backend/internal/service/property"
	refundService "github.com/dumeirei/smart-booking-backend/internal/service/refund"
	"github.com/dumeirei/smart-booking-backend/pkg/oss"
	"github.com/dumeirei/smart-booking-backend/pkg/paymentgw"
	"github.com/dumeirei/smart-booking-backend/pkg/sms"
)

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) error {
	// JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 仓储
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	refundCommentRepo := repository.NewRefundCommentRepository(db)
	refundDocumentRepo := repository.NewRefundDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	operationLogRepo := repository.NewOperationLogRepository(db)

	// 外部服务客户端
	smsSender, err := newSmsSender(&cfg.SMS)
	if err != nil {
		return err
	}

	var uploader oss.Uploader
	if cfg.OSS.Provider == "aliyun" {
		aliyunUploader, err := oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.OSS.Endpoint,
			AccessKeyID:     cfg.OSS.AccessKeyID,
			AccessKeySecret: cfg.OSS.AccessKeySecret,
			BucketName:      cfg.OSS.Bucket,
			Domain:          cfg.OSS.CustomDomain,
			BasePath:        cfg.OSS.UploadDir,
		})
		if err != nil {
			return err
		}
		uploader = aliyunUploader
	} else {
		uploader = oss.NewMockUploader()
	}

	gateway, err := paymentgw.NewGateway(&paymentgw.Config{
		Provider:   cfg.Payment.Provider,
		MerchantID: cfg.Payment.MerchantID,
		APIKey:     cfg.Payment.APIKey,
		BaseURL:    cfg.Payment.BaseURL,
		NotifyURL:  cfg.Payment.NotifyURL,
		TimeoutSec: cfg.Payment.TimeoutSec,
	})
	if err != nil {
		return err
	}

	// 服务
	codeSvc := authService.NewCodeService(redisClient, smsSender, nil)
	authSvc := authService.NewAuthService(userRepo, jwtManager, codeSvc)
	adminAuthSvc := adminService.NewAuthService(adminRepo, jwtManager)

	notifySvc := notifyService.NewService(notificationRepo, userRepo, smsSender, cfg.Business.Refund.NotifyTimeoutSec)

	resolver := paymentruleService.NewResolver(ruleRepo,
		time.Duration(cfg.Business.PaymentRule.ResolverCacheTTL)*time.Second)
	ruleSvc := paymentruleService.NewRuleService(ruleRepo, roomRepo, resolver)

	propertySvc := propertyService.NewPropertyService(propertyRepo, roomRepo)
	bookingSvc := bookingService.NewBookingService(bookingRepo, roomRepo, resolver)

	refundSvc := refundService.NewRefundService(
		refundRepo, refundCommentRepo, bookingRepo, gateway, cfg.Payment.Provider, notifySvc)
	commentSvc := refundService.NewCommentService(refundCommentRepo, refundRepo, notifySvc)
	documentSvc := refundService.NewDocumentService(
		refundDocumentRepo, refundRepo, uploader,
		cfg.Business.Refund.MaxDocuments, int64(cfg.Business.Refund.MaxDocumentSize))

	// 处理器
	authH := authHandler.NewHandler(authSvc, codeSvc)
	adminAuthH := adminHandler.NewAuthHandler(adminAuthSvc)
	propertyH := propertyHandler.NewHandler(propertySvc)
	propertyAdminH := propertyHandler.NewAdminHandler(propertySvc)
	ruleH := paymentruleHandler.NewHandler(ruleSvc, resolver)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	bookingAdminH := bookingHandler.NewAdminHandler(bookingSvc)
	refundH := refundHandler.NewHandler(refundSvc, commentSvc, documentSvc)
	refundAdminH := refundHandler.NewAdminHandler(refundSvc, commentSvc, documentSvc)
	callbackH := refundHandler.NewCallbackHandler(refundSvc)
	notifyH := notifyHandler.NewHandler(notifySvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(logger))
	if cfg.Metrics.Enabled {
		r.Use(metrics.GetMetrics().Middleware())
	}
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 公开接口
		public := v1.Group("")
		{
			public.POST("/auth/sms/send", middleware.SmsRateLimit(redisClient), authH.SendSmsCode)
			public.POST("/auth/login/sms", authH.SmsLogin)
			public.POST("/auth/refresh", authH.RefreshToken)

			public.GET("/properties", propertyH.ListProperties)
			public.GET("/properties/:id", propertyH.GetProperty)
			public.GET("/rooms/:id", propertyH.GetRoom)
		}

		// 退款渠道回调（验签在网关实现内部）
		v1.POST("/callback/refund", callbackH.GatewayNotify)

		// 用户端接口
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			user.GET("/user/profile", authH.GetProfile)
			user.PUT("/user/profile", authH.UpdateProfile)

			user.POST("/bookings", bookingH.CreateBooking)
			user.GET("/bookings", bookingH.ListBookings)
			user.GET("/bookings/:id", bookingH.GetBooking)
			user.POST("/bookings/:id/cancel", bookingH.CancelBooking)
			user.POST("/bookings/:id/schedule/:item_id/pay", bookingH.PayScheduleItem)
			user.GET("/bookings/:id/qrcode", bookingH.CheckinQRCode)

			user.POST("/refunds", refundH.CreateRefund)
			user.GET("/refunds", refundH.ListRefunds)
			user.GET("/refunds/:id", refundH.GetRefund)
			user.GET("/refunds/:id/activity", refundH.GetActivity)
			user.POST("/refunds/:id/comments", refundH.AddComment)
			user.GET("/refunds/:id/comments", refundH.ListComments)
			user.POST("/refunds/:id/documents", refundH.UploadDocument)
			user.GET("/refunds/:id/documents", refundH.ListDocuments)
			user.DELETE("/refunds/:id/documents/:doc_id", refundH.DeleteDocument)

			user.GET("/notifications", notifyH.ListNotifications)
			user.GET("/notifications/unread-count", notifyH.CountUnread)
			user.POST("/notifications/:id/read", notifyH.MarkRead)
			user.POST("/notifications/read-all", notifyH.MarkAllRead)
		}
	}

	// 管理后台 API
	operationLog := commonMiddleware.NewOperationLogger(operationLogRepo)

	admin := r.Group("/api/admin")
	{
		admin.POST("/auth/login", adminAuthH.Login)
		admin.POST("/auth/refresh", adminAuthH.RefreshToken)

		authed := admin.Group("")
		authed.Use(middleware.AdminAuth(jwtManager))
		authed.Use(operationLog.Log())
		{
			authed.GET("/auth/profile", adminAuthH.GetProfile)
			authed.PUT("/auth/password", adminAuthH.ChangePassword)
			authed.POST("/auth/logout", adminAuthH.Logout)

			// 物业与房间（物业经理）
			manager := middleware.RequireManager()
			authed.POST("/properties", manager, propertyAdminH.CreateProperty)
			authed.GET("/properties", propertyAdminH.ListProperties)
			authed.PUT("/properties/:id", manager, propertyAdminH.UpdateProperty)
			authed.PUT("/properties/:id/status", manager, propertyAdminH.SetPropertyStatus)
			authed.POST("/rooms", manager, propertyAdminH.CreateRoom)
			authed.PUT("/rooms/:id", manager, propertyAdminH.UpdateRoom)
			authed.PUT("/rooms/:id/status", manager, propertyAdminH.SetRoomStatus)

			// 支付规则（物业经理）
			authed.POST("/payment-rules", manager, ruleH.CreateRule)
			authed.GET("/payment-rules", ruleH.ListRules)
			authed.GET("/payment-rules/resolve", ruleH.ResolveRule)
			authed.POST("/payment-rules/preview", ruleH.PreviewSchedule)
			authed.GET("/payment-rules/:id", ruleH.GetRule)
			authed.PUT("/payment-rules/:id", manager, ruleH.UpdateRule)
			authed.PUT("/payment-rules/:id/status", manager, ruleH.UpdateStatus)
			authed.DELETE("/payment-rules/:id", manager, ruleH.DeleteRule)
			authed.GET("/payment-rules/:id/rooms", ruleH.ListAssignments)
			authed.POST("/payment-rules/:id/rooms/:room_id", manager, ruleH.AssignRoom)
			authed.DELETE("/payment-rules/:id/rooms/:room_id", manager, ruleH.UnassignRoom)

			// 预订
			authed.GET("/bookings", bookingAdminH.ListBookings)
			authed.GET("/bookings/:id", bookingAdminH.GetBooking)
			authed.POST("/bookings/:id/confirm", bookingAdminH.ConfirmBooking)

			// 退款审核
			authed.GET("/refunds", refundAdminH.ListRefunds)
			authed.GET("/refunds/:id", refundAdminH.GetRefund)
			authed.GET("/refunds/:id/activity", refundAdminH.GetActivity)
			finance := middleware.RequireFinance()
			authed.POST("/refunds/:id/review", refundAdminH.TakeReview)
			authed.POST("/refunds/:id/approve", finance, refundAdminH.Approve)
			authed.POST("/refunds/:id/reject", finance, refundAdminH.Reject)
			authed.POST("/refunds/:id/process", finance, refundAdminH.StartProcessing)
			authed.POST("/refunds/:id/comments", refundAdminH.AddComment)
			authed.GET("/refunds/:id/comments", refundAdminH.ListComments)
			authed.POST("/refunds/:id/documents/:doc_id/verify", refundAdminH.VerifyDocument)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	return nil
}

// newSmsSender 根据配置选择短信发送实现，未配置阿里云时使用 Mock
func newSmsSender(cfg *config.SMSConfig) (sms.Sender, error) {
	if cfg.Provider == "aliyun" {
		client, err := sms.NewClient(&sms.Config{
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			SignName:        cfg.SignName,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return sms.NewMockClient(cfg.SignName), nil
}

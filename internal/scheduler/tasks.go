// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dumeirei/smart-booking-backend/internal/common/cache"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	notifyService "github.com/dumeirei/smart-booking-backend/internal/service/notify"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	bookingRepo      *repository.BookingRepository
	notificationRepo *repository.NotificationRepository
	notifyService    *notifyService.Service

	reminderAhead    time.Duration // 到期前多久提醒
	notificationKeep time.Duration // 站内通知保留时长
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	bookingRepo *repository.BookingRepository,
	notificationRepo *repository.NotificationRepository,
	notifySvc *notifyService.Service,
) *TaskHandler {
	return &TaskHandler{
		bookingRepo:      bookingRepo,
		notificationRepo: notificationRepo,
		notifyService:    notifySvc,
		reminderAhead:    3 * 24 * time.Hour,
		notificationKeep: 90 * 24 * time.Hour,
	}
}

// RemindDuePayments 发送应付款到期提醒
// 对 3 天内到期且未支付的款项发送通知；用 Redis SetNX 做当日去重，
// Redis 不可用时退化为每次运行都发送。
func (h *TaskHandler) RemindDuePayments(ctx context.Context) error {
	dueBefore := time.Now().Add(h.reminderAhead)

	items, err := h.bookingRepo.ListDueScheduleItems(ctx, dueBefore, 200)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	sent := 0
	for _, item := range items {
		booking := item.Booking
		if booking == nil {
			continue
		}
		if booking.Status == models.BookingStatusCancelled {
			continue
		}
		if !h.markReminded(ctx, item.ID) {
			continue
		}
		h.notifyService.PaymentDueSoon(booking, item)
		sent++
	}

	if sent > 0 {
		logger.Info("付款到期提醒已发送", logger.Int64("count", int64(sent)))
	}
	return nil
}

// markReminded 当日去重，返回 true 表示本次应发送
func (h *TaskHandler) markReminded(ctx context.Context, itemID int64) bool {
	if cache.GetClient() == nil {
		return true
	}
	key := fmt.Sprintf("notify:due:%s:%d", time.Now().Format("2006-01-02"), itemID)
	ok, err := cache.SetNX(ctx, key, "1", 24*time.Hour)
	if err != nil {
		return true
	}
	return ok
}

// CleanupNotifications 清理过期站内通知
func (h *TaskHandler) CleanupNotifications(ctx context.Context) error {
	before := time.Now().Add(-h.notificationKeep)
	deleted, err := h.notificationRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.Info("过期通知已清理", logger.Int64("count", deleted))
	}
	return nil
}

// Register 将任务注册到调度器
func (h *TaskHandler) Register(s *Scheduler) {
	s.AddTask("remind_due_payments", time.Hour, h.RemindDuePayments)
	s.AddTask("cleanup_notifications", 24*time.Hour, h.CleanupNotifications)
}

// Package notify 提供站内通知与短信触达服务
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	"github.com/dumeirei/smart-booking-backend/pkg/sms"
)

// 触达渠道
const (
	ChannelInApp = "inapp"
	ChannelSMS   = "sms"
)

// Service 通知服务
// 退款与付款提醒的触达是尽力而为：写站内信、发短信失败只记录日志，
// 不影响触发它们的业务事务。
type Service struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	smsSender        sms.Sender
	timeout          time.Duration

	wg sync.WaitGroup
}

// NewService 创建通知服务
func NewService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	smsSender sms.Sender,
	timeoutSec int,
) *Service {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &Service{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		smsSender:        smsSender,
		timeout:          time.Duration(timeoutSec) * time.Second,
	}
}

// Flush 等待所有在途的异步触达完成，用于测试与优雅停机
func (s *Service) Flush() {
	s.wg.Wait()
}

// refundStatusText 状态的用户侧文案
var refundStatusText = map[string]string{
	models.RefundStatusRequested:   "已提交",
	models.RefundStatusUnderReview: "审核中",
	models.RefundStatusApproved:    "已批准",
	models.RefundStatusRejected:    "已拒绝",
	models.RefundStatusProcessing:  "退款处理中",
	models.RefundStatusCompleted:   "退款完成",
	models.RefundStatusFailed:      "退款失败",
}

// RefundStatusChanged 退款状态变更触达（异步）
func (s *Service) RefundStatusChanged(request *models.RefundRequest, fromStatus, toStatus string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		text, ok := refundStatusText[toStatus]
		if !ok {
			text = toStatus
		}

		notification := &models.Notification{
			UserID:    request.RequesterID,
			Type:      models.NotificationTypeRefundStatus,
			Title:     "退款进度更新",
			Content:   fmt.Sprintf("您的退款申请 %s %s", request.RequestNo, text),
			RefundID:  &request.ID,
			BookingID: &request.BookingID,
		}
		s.deliverInApp(ctx, notification)

		s.deliverSMS(ctx, request.RequesterID, sms.TemplateCodeRefundStatus, map[string]string{
			"request_no": request.RequestNo,
			"status":     text,
		})
	}()
}

// RefundCommentAdded 退款新留言触达（异步），内部备注不通知用户
func (s *Service) RefundCommentAdded(request *models.RefundRequest, comment *models.RefundComment) {
	if comment.IsInternal {
		return
	}
	// 用户自己的留言不需要提醒自己
	if comment.AuthorType == models.RefundActorUser && comment.AuthorID == request.RequesterID {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		notification := &models.Notification{
			UserID:    request.RequesterID,
			Type:      models.NotificationTypeRefundComment,
			Title:     "退款申请有新留言",
			Content:   fmt.Sprintf("您的退款申请 %s 收到新留言", request.RequestNo),
			RefundID:  &request.ID,
			BookingID: &request.BookingID,
		}
		s.deliverInApp(ctx, notification)
	}()
}

// PaymentDueSoon 付款到期提醒触达（异步）
func (s *Service) PaymentDueSoon(booking *models.Booking, item *models.PaymentScheduleItem) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		notification := &models.Notification{
			UserID:    booking.UserID,
			Type:      models.NotificationTypePaymentDue,
			Title:     "付款到期提醒",
			Content:   fmt.Sprintf("预订 %s 的「%s」¥%.2f 将于 %s 到期", booking.BookingNo, item.Label, item.Amount, item.DueDate.Format("2006-01-02")),
			BookingID: &booking.ID,
		}
		s.deliverInApp(ctx, notification)

		s.deliverSMS(ctx, booking.UserID, sms.TemplateCodePaymentDue, map[string]string{
			"booking_no": booking.BookingNo,
			"label":      item.Label,
			"amount":     fmt.Sprintf("%.2f", item.Amount),
			"due_date":   item.DueDate.Format("2006-01-02"),
		})
	}()
}

func (s *Service) deliverInApp(ctx context.Context, notification *models.Notification) {
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		metrics.GetMetrics().RecordNotification(ChannelInApp, "failed")
		logger.Error("站内通知写入失败",
			logger.UserID(notification.UserID),
			logger.Err(err),
		)
		return
	}
	metrics.GetMetrics().RecordNotification(ChannelInApp, "sent")
}

func (s *Service) deliverSMS(ctx context.Context, userID int64, templateCode sms.TemplateCode, params map[string]string) {
	if s.smsSender == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.Phone == nil || *user.Phone == "" {
		return
	}

	if err := s.smsSender.SendNotification(ctx, *user.Phone, templateCode, params); err != nil {
		metrics.GetMetrics().RecordNotification(ChannelSMS, "failed")
		logger.Error("通知短信发送失败", logger.UserID(userID), logger.Err(err))
		return
	}
	metrics.GetMetrics().RecordNotification(ChannelSMS, "sent")
}

// ListNotifications 获取用户通知列表
func (s *Service) ListNotifications(ctx context.Context, userID int64, offset, limit int, notificationType string, isRead *bool) ([]*models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUserID(ctx, userID, offset, limit, notificationType, isRead)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return notifications, total, nil
}

// CountUnread 获取用户未读通知数
func (s *Service) CountUnread(ctx context.Context, userID int64) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return count, nil
}

// MarkRead 标记通知为已读
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	if _, err := s.notificationRepo.GetByIDAndUserID(ctx, id, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrNotificationNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if err := s.notificationRepo.MarkAsRead(ctx, id, userID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// MarkAllRead 标记用户全部通知为已读
func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.notificationRepo.MarkAllAsRead(ctx, userID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Package booking 提供预订服务
package booking

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	"github.com/dumeirei/smart-booking-backend/internal/common/qrcode"
	"github.com/dumeirei/smart-booking-backend/internal/common/utils"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	"github.com/dumeirei/smart-booking-backend/internal/service/paymentrule"
)

// BookingService 预订服务
// 下单时解析生效支付规则并展开为应付款计划，随预订一并落库。
type BookingService struct {
	bookingRepo *repository.BookingRepository
	roomRepo    *repository.RoomRepository
	resolver    *paymentrule.Resolver
}

// NewBookingService 创建预订服务
func NewBookingService(
	bookingRepo *repository.BookingRepository,
	roomRepo *repository.RoomRepository,
	resolver *paymentrule.Resolver,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		resolver:    resolver,
	}
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	RoomID       int64     `json:"room_id" binding:"required"`
	CheckinDate  time.Time `json:"checkin_date" binding:"required"`
	CheckoutDate time.Time `json:"checkout_date" binding:"required"`
	GuestName    string    `json:"guest_name" binding:"required,max=50"`
	GuestCount   int       `json:"guest_count" binding:"required,min=1"`
}

// CreateBooking 创建预订
// 总价按房间基础价 × 间夜数计算；flexible 规则不产生应付款行。
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, req *CreateBookingRequest) (*models.Booking, error) {
	checkin := utils.DateOnly(req.CheckinDate)
	checkout := utils.DateOnly(req.CheckoutDate)
	if !checkout.After(checkin) {
		return nil, errors.ErrBookingDateInvalid
	}

	room, err := s.roomRepo.GetByID(ctx, req.RoomID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if room.Status != models.RoomStatusActive {
		return nil, errors.ErrRoomDisabled
	}
	if req.GuestCount > room.MaxGuests {
		return nil, errors.ErrInvalidParams.WithMessage("入住人数超过房间上限")
	}

	nights := int(checkout.Sub(checkin).Hours() / 24)
	totalPrice := utils.RoundMoney(room.BasePrice * float64(nights))
	bookingDate := utils.DateOnly(time.Now())

	booking := &models.Booking{
		BookingNo:    utils.GenerateOrderNo("BK"),
		UserID:       userID,
		PropertyID:   room.PropertyID,
		RoomID:       room.ID,
		BookingDate:  bookingDate,
		CheckinDate:  checkin,
		CheckoutDate: checkout,
		GuestName:    req.GuestName,
		GuestCount:   req.GuestCount,
		TotalPrice:   totalPrice,
		Status:       models.BookingStatusPending,
	}

	resolution, err := s.resolver.Resolve(ctx, room.PropertyID, room.ID, checkin)
	if err != nil {
		return nil, err
	}
	booking.RuleID = &resolution.Rule.ID

	lines, err := paymentrule.Expand(resolution.Rule, paymentrule.BookingTerms{
		TotalPrice:  totalPrice,
		BookingDate: bookingDate,
		CheckinDate: checkin,
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.PaymentScheduleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.PaymentScheduleItem{
			Sequence: line.Sequence,
			Label:    line.Label,
			Amount:   line.Amount,
			DueDate:  line.DueDate,
			Status:   models.ScheduleItemStatusUnpaid,
		})
	}

	if err := s.bookingRepo.Create(ctx, booking, items); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	metrics.GetMetrics().RecordBooking(booking.Status)
	logger.Info("预订已创建",
		logger.BookingID(booking.ID),
		logger.BookingNo(booking.BookingNo),
		logger.UserID(userID),
		logger.RuleID(resolution.Rule.ID),
	)
	return s.GetBooking(ctx, booking.ID)
}

// GetBooking 获取预订详情（含应付款计划）
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByIDWithDetails(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// GetBookingForUser 获取预订详情，校验归属
func (s *BookingService) GetBookingForUser(ctx context.Context, userID, id int64) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, errors.ErrBookingNotOwned
	}
	return booking, nil
}

// ListBookings 获取预订列表（管理端）
func (s *BookingService) ListBookings(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	bookings, total, err := s.bookingRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bookings, total, nil
}

// ListUserBookings 获取用户自己的预订列表
func (s *BookingService) ListUserBookings(ctx context.Context, userID int64, offset, limit int, status *string) ([]*models.Booking, int64, error) {
	bookings, total, err := s.bookingRepo.ListByUser(ctx, userID, offset, limit, status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bookings, total, nil
}

// ConfirmBooking 确认预订（收到定金后）
func (s *BookingService) ConfirmBooking(ctx context.Context, id int64) error {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusPending {
		return errors.ErrBookingStatusError
	}
	if err := s.bookingRepo.UpdateStatus(ctx, id, models.BookingStatusConfirmed); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	metrics.GetMetrics().RecordBooking(models.BookingStatusConfirmed)
	return nil
}

// CancelBooking 取消预订
func (s *BookingService) CancelBooking(ctx context.Context, userID, id int64) error {
	booking, err := s.GetBookingForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if booking.Status == models.BookingStatusCancelled {
		return errors.ErrBookingCancelled
	}
	if booking.Status == models.BookingStatusCheckedIn || booking.Status == models.BookingStatusCompleted {
		return errors.ErrBookingStatusError
	}
	if err := s.bookingRepo.Cancel(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	metrics.GetMetrics().RecordBooking(models.BookingStatusCancelled)
	logger.Info("预订已取消", logger.BookingID(id), logger.UserID(userID))
	return nil
}

// PayScheduleItem 记录一笔应付款行的支付
// 首笔支付后预订自动确认。
func (s *BookingService) PayScheduleItem(ctx context.Context, userID, bookingID, itemID int64) error {
	booking, err := s.GetBookingForUser(ctx, userID, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == models.BookingStatusCancelled {
		return errors.ErrBookingCancelled
	}

	items, err := s.bookingRepo.ListScheduleItems(ctx, bookingID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	var target *models.PaymentScheduleItem
	for _, item := range items {
		if item.ID == itemID {
			target = item
			break
		}
	}
	if target == nil {
		return errors.ErrNotFound.WithMessage("应付款行不存在")
	}

	if err := s.bookingRepo.MarkScheduleItemPaid(ctx, itemID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOperationFailed.WithMessage("该款项已支付")
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if booking.Status == models.BookingStatusPending {
		if err := s.bookingRepo.UpdateStatus(ctx, bookingID, models.BookingStatusConfirmed); err != nil {
			logger.Warn("首付后确认预订失败", logger.BookingID(bookingID), logger.Err(err))
		} else {
			metrics.GetMetrics().RecordBooking(models.BookingStatusConfirmed)
		}
	}
	return nil
}

// CheckinQRCode 生成入住核验二维码（PNG）
// 码值为预订号与入住日期，前台扫码后按预订号查单核验。
func (s *BookingService) CheckinQRCode(ctx context.Context, userID, id int64) ([]byte, error) {
	booking, err := s.GetBookingForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, errors.ErrBookingCancelled
	}

	content := fmt.Sprintf("booking:%s:%s", booking.BookingNo, booking.CheckinDate.Format("2006-01-02"))
	png, err := qrcode.NewGenerator(qrcode.WithSize(256)).GeneratePNG(content)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return png, nil
}

// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create 创建预订，并在同一事务内写入应付款行
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking, items []models.PaymentScheduleItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].BookingID = booking.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取预订
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含关联信息）
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Property").
		Preload("Room").
		Preload("ScheduleItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByBookingNo 根据预订号获取预订
func (r *BookingRepository) GetByBookingNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("booking_no = ?", bookingNo).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	// 应用过滤条件
	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	if roomID, ok := filters["room_id"].(int64); ok && roomID > 0 {
		query = query.Where("room_id = ?", roomID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if bookingNo, ok := filters["booking_no"].(string); ok && bookingNo != "" {
		query = query.Where("booking_no LIKE ?", "%"+bookingNo+"%")
	}
	if startDate, ok := filters["start_date"].(time.Time); ok {
		query = query.Where("checkin_date >= ?", startDate)
	}
	if endDate, ok := filters["end_date"].(time.Time); ok {
		query = query.Where("checkin_date <= ?", endDate)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.
		Preload("Property").
		Preload("Room").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListByUser 获取用户的预订列表
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, offset, limit int, status *string) ([]*models.Booking, int64, error) {
	filters := map[string]interface{}{
		"user_id": userID,
	}
	if status != nil {
		filters["status"] = *status
	}
	return r.List(ctx, offset, limit, filters)
}

// UpdateStatus 更新预订状态
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Cancel 取消预订
func (r *BookingRepository) Cancel(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.BookingStatusCancelled,
			"cancelled_at": now,
		}).Error
}

// ListScheduleItems 获取预订的应付款行（按序号排序）
func (r *BookingRepository) ListScheduleItems(ctx context.Context, bookingID int64) ([]*models.PaymentScheduleItem, error) {
	var items []*models.PaymentScheduleItem
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("sequence ASC").
		Find(&items).Error
	return items, err
}

// MarkScheduleItemPaid 标记应付款行已支付
func (r *BookingRepository) MarkScheduleItemPaid(ctx context.Context, itemID int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.PaymentScheduleItem{}).
		Where("id = ? AND status = ?", itemID, models.ScheduleItemStatusUnpaid).
		Updates(map[string]interface{}{
			"status":  models.ScheduleItemStatusPaid,
			"paid_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDueScheduleItems 获取指定日期前到期且未支付的应付款行（供到期提醒任务使用）
func (r *BookingRepository) ListDueScheduleItems(ctx context.Context, dueBefore time.Time, limit int) ([]*models.PaymentScheduleItem, error) {
	var items []*models.PaymentScheduleItem
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Where("status = ?", models.ScheduleItemStatusUnpaid).
		Where("due_date <= ?", dueBefore).
		Order("due_date ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// SumPaidAmount 统计预订已支付金额
func (r *BookingRepository) SumPaidAmount(ctx context.Context, bookingID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.PaymentScheduleItem{}).
		Where("booking_id = ? AND status = ?", bookingID, models.ScheduleItemStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// CountByUserAndStatus 统计用户指定状态的预订数量
func (r *BookingRepository) CountByUserAndStatus(ctx context.Context, userID int64, statuses []string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("user_id = ?", userID).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}

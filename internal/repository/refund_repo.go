package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// RefundRepository 退款申请仓储
type RefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款申请仓储
func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// Create 创建退款申请，并在同一事务内写入首条流转记录
func (r *RefundRepository) Create(ctx context.Context, request *models.RefundRequest, history *models.RefundStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		history.RequestID = request.ID
		return tx.Create(history).Error
	})
}

// GetByID 根据 ID 获取退款申请
func (r *RefundRepository) GetByID(ctx context.Context, id int64) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByIDWithDetails 根据 ID 获取退款申请（包含关联信息）
func (r *RefundRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Preload("Requester").
		Preload("Reviewer").
		Preload("Documents", "deleted_at IS NULL").
		First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByRequestNo 根据申请单号获取退款申请
func (r *RefundRepository) GetByRequestNo(ctx context.Context, requestNo string) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).
		Where("request_no = ?", requestNo).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// List 获取退款申请列表
func (r *RefundRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.RefundRequest, int64, error) {
	var requests []*models.RefundRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RefundRequest{})

	// 应用过滤条件
	if requesterID, ok := filters["requester_id"].(int64); ok && requesterID > 0 {
		query = query.Where("requester_id = ?", requesterID)
	}
	if bookingID, ok := filters["booking_id"].(int64); ok && bookingID > 0 {
		query = query.Where("booking_id = ?", bookingID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if statuses, ok := filters["statuses"].([]string); ok && len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if requestNo, ok := filters["request_no"].(string); ok && requestNo != "" {
		query = query.Where("request_no LIKE ?", "%"+requestNo+"%")
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.
		Preload("Booking").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Transition 状态流转：CAS 更新状态并在同一事务内追加流转记录
// 当前状态与期望不符时返回 gorm.ErrRecordNotFound，由上层转换为业务错误。
func (r *RefundRepository) Transition(ctx context.Context, id int64, fromStatus string, fields map[string]interface{}, history *models.RefundStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RefundRequest{}).
			Where("id = ? AND status = ?", id, fromStatus).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		history.RequestID = id
		return tx.Create(history).Error
	})
}

// ExistsActiveByBooking 检查预订是否已有未到终态的退款申请
func (r *RefundRepository) ExistsActiveByBooking(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RefundRequest{}).
		Where("booking_id = ?", bookingID).
		Where("status NOT IN ?", []string{
			models.RefundStatusRejected,
			models.RefundStatusCompleted,
			models.RefundStatusFailed,
		}).
		Count(&count).Error
	return count > 0, err
}

// CountActive 统计未到终态的退款申请数量
func (r *RefundRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RefundRequest{}).
		Where("status NOT IN ?", []string{
			models.RefundStatusRejected,
			models.RefundStatusCompleted,
			models.RefundStatusFailed,
		}).
		Count(&count).Error
	return count, err
}

// ListHistory 获取退款申请的状态流转记录（最新在前）
func (r *RefundRepository) ListHistory(ctx context.Context, requestID int64) ([]*models.RefundStatusHistory, error) {
	var history []*models.RefundStatusHistory
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC, id DESC").
		Find(&history).Error
	return history, err
}

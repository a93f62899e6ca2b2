package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// RefundCommentRepository 退款留言仓储
// 留言只增不改，仓储层不提供更新接口。
type RefundCommentRepository struct {
	db *gorm.DB
}

// NewRefundCommentRepository 创建退款留言仓储
func NewRefundCommentRepository(db *gorm.DB) *RefundCommentRepository {
	return &RefundCommentRepository{db: db}
}

// Create 创建留言
func (r *RefundCommentRepository) Create(ctx context.Context, comment *models.RefundComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetByID 根据 ID 获取留言
func (r *RefundCommentRepository) GetByID(ctx context.Context, id int64) (*models.RefundComment, error) {
	var comment models.RefundComment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByRequest 获取退款申请的留言（最新在前）
// includeInternal 为 false 时过滤内部备注，供用户侧展示。
func (r *RefundCommentRepository) ListByRequest(ctx context.Context, requestID int64, includeInternal bool) ([]*models.RefundComment, error) {
	query := r.db.WithContext(ctx).
		Where("request_id = ?", requestID)
	if !includeInternal {
		query = query.Where("is_internal = ?", false)
	}

	var comments []*models.RefundComment
	err := query.Order("created_at DESC, id DESC").Find(&comments).Error
	return comments, err
}

// CountByRequest 统计退款申请的留言数量
func (r *RefundCommentRepository) CountByRequest(ctx context.Context, requestID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RefundComment{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// RefundDocumentRepository 退款凭证仓储
type RefundDocumentRepository struct {
	db *gorm.DB
}

// NewRefundDocumentRepository 创建退款凭证仓储
func NewRefundDocumentRepository(db *gorm.DB) *RefundDocumentRepository {
	return &RefundDocumentRepository{db: db}
}

// Create 创建凭证记录
func (r *RefundDocumentRepository) Create(ctx context.Context, doc *models.RefundDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID 根据 ID 获取凭证（不含已删除）
func (r *RefundDocumentRepository) GetByID(ctx context.Context, id int64) (*models.RefundDocument, error) {
	var doc models.RefundDocument
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByRequest 获取退款申请的凭证列表
func (r *RefundDocumentRepository) ListByRequest(ctx context.Context, requestID int64) ([]*models.RefundDocument, error) {
	var docs []*models.RefundDocument
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Where("deleted_at IS NULL").
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

// CountByRequest 统计退款申请的凭证数量
func (r *RefundDocumentRepository) CountByRequest(ctx context.Context, requestID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RefundDocument{}).
		Where("request_id = ?", requestID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

// Verify 核验凭证
func (r *RefundDocumentRepository) Verify(ctx context.Context, id, verifiedBy int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.RefundDocument{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"is_verified": true,
			"verified_by": verifiedBy,
			"verified_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDelete 软删除凭证
// 仅允许删除未核验的凭证，已核验或已删除时返回 gorm.ErrRecordNotFound。
func (r *RefundDocumentRepository) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.RefundDocument{}).
		Where("id = ? AND is_verified = ? AND deleted_at IS NULL", id, false).
		Update("deleted_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// PaymentRuleRepository 支付规则仓储
type PaymentRuleRepository struct {
	db *gorm.DB
}

// NewPaymentRuleRepository 创建支付规则仓储
func NewPaymentRuleRepository(db *gorm.DB) *PaymentRuleRepository {
	return &PaymentRuleRepository{db: db}
}

// Create 创建支付规则（含里程碑）
func (r *PaymentRuleRepository) Create(ctx context.Context, rule *models.PaymentRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// GetByID 根据 ID 获取支付规则
func (r *PaymentRuleRepository) GetByID(ctx context.Context, id int64) (*models.PaymentRule, error) {
	var rule models.PaymentRule
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// GetByIDWithMilestones 根据 ID 获取支付规则（包含里程碑，按序号排序）
func (r *PaymentRuleRepository) GetByIDWithMilestones(ctx context.Context, id int64) (*models.PaymentRule, error) {
	var rule models.PaymentRule
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// List 获取支付规则列表
func (r *PaymentRuleRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.PaymentRule, int64, error) {
	var rules []*models.PaymentRule
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PaymentRule{})

	// 应用过滤条件
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	if ruleType, ok := filters["rule_type"].(string); ok && ruleType != "" {
		query = query.Where("rule_type = ?", ruleType)
	}
	if isActive, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", isActive)
	}
	if name, ok := filters["name"].(string); ok && name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Order("priority DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

// UpdateStructural 结构性更新（CAS 版本保护，替换里程碑）
// 版本不匹配时返回 gorm.ErrRecordNotFound，由上层转换为业务错误。
func (r *PaymentRuleRepository) UpdateStructural(ctx context.Context, rule *models.PaymentRule, expectedVersion int64, fields map[string]interface{}, milestones []models.ScheduleMilestone) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields["version"] = expectedVersion + 1
		result := tx.Model(&models.PaymentRule{}).
			Where("id = ? AND version = ?", rule.ID, expectedVersion).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// 里程碑整组替换
		if err := tx.Where("rule_id = ?", rule.ID).Delete(&models.ScheduleMilestone{}).Error; err != nil {
			return err
		}
		for i := range milestones {
			milestones[i].ID = 0
			milestones[i].RuleID = rule.ID
		}
		if len(milestones) > 0 {
			if err := tx.Create(&milestones).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateCosmetic 外观性更新（名称/描述/启停等，不触碰版本号）
func (r *PaymentRuleRepository) UpdateCosmetic(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.PaymentRule{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete 删除支付规则（连带里程碑与房间绑定）
func (r *PaymentRuleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rule_id = ?", id).Delete(&models.RoomRuleAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("rule_id = ?", id).Delete(&models.ScheduleMilestone{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PaymentRule{}, id).Error
	})
}

// AddAssignment 绑定房间（CAS 版本保护）
// 版本不匹配时返回 gorm.ErrRecordNotFound。
func (r *PaymentRuleRepository) AddAssignment(ctx context.Context, assignment *models.RoomRuleAssignment, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PaymentRule{}).
			Where("id = ? AND version = ?", assignment.RuleID, expectedVersion).
			Update("version", expectedVersion+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(assignment).Error
	})
}

// RemoveAssignment 解绑房间（CAS 版本保护）
func (r *PaymentRuleRepository) RemoveAssignment(ctx context.Context, ruleID, roomID, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PaymentRule{}).
			Where("id = ? AND version = ?", ruleID, expectedVersion).
			Update("version", expectedVersion+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		del := tx.Where("rule_id = ? AND room_id = ?", ruleID, roomID).
			Delete(&models.RoomRuleAssignment{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ExistsAssignment 检查房间是否已绑定该规则
func (r *PaymentRuleRepository) ExistsAssignment(ctx context.Context, ruleID, roomID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomRuleAssignment{}).
		Where("rule_id = ? AND room_id = ?", ruleID, roomID).
		Count(&count).Error
	return count > 0, err
}

// CountAssignments 统计规则的房间绑定数量
func (r *PaymentRuleRepository) CountAssignments(ctx context.Context, ruleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomRuleAssignment{}).
		Where("rule_id = ?", ruleID).
		Count(&count).Error
	return count, err
}

// ListAssignedRoomNames 获取绑定该规则的房间名称（用于编辑锁提示）
func (r *PaymentRuleRepository) ListAssignedRoomNames(ctx context.Context, ruleID int64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.RoomRuleAssignment{}).
		Joins("JOIN rooms ON rooms.id = room_rule_assignments.room_id").
		Where("room_rule_assignments.rule_id = ?", ruleID).
		Order("rooms.name ASC").
		Pluck("rooms.name", &names).Error
	return names, err
}

// ListAssignments 获取规则的房间绑定列表
func (r *PaymentRuleRepository) ListAssignments(ctx context.Context, ruleID int64) ([]*models.RoomRuleAssignment, error) {
	var assignments []*models.RoomRuleAssignment
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("rule_id = ?", ruleID).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// ListActiveByRoom 获取房间绑定的、指定日期可用的规则候选
// 排序：优先级降序，再按创建时间降序。
func (r *PaymentRuleRepository) ListActiveByRoom(ctx context.Context, roomID int64, date time.Time) ([]*models.PaymentRule, error) {
	var rules []*models.PaymentRule
	err := r.db.WithContext(ctx).Model(&models.PaymentRule{}).
		Joins("JOIN room_rule_assignments ON room_rule_assignments.rule_id = payment_rules.id").
		Where("room_rule_assignments.room_id = ?", roomID).
		Where("payment_rules.is_active = ?", true).
		Where("payment_rules.applies_to_dates = ? OR (payment_rules.start_date <= ? AND payment_rules.end_date >= ?)", false, date, date).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Order("payment_rules.priority DESC, payment_rules.created_at DESC").
		Find(&rules).Error
	return rules, err
}

// ListActiveByProperty 获取物业级（未绑定任何房间）的、指定日期可用的规则候选
func (r *PaymentRuleRepository) ListActiveByProperty(ctx context.Context, propertyID int64, date time.Time) ([]*models.PaymentRule, error) {
	var rules []*models.PaymentRule
	err := r.db.WithContext(ctx).Model(&models.PaymentRule{}).
		Where("property_id = ?", propertyID).
		Where("is_active = ?", true).
		Where("applies_to_dates = ? OR (start_date <= ? AND end_date >= ?)", false, date, date).
		Where("NOT EXISTS (SELECT 1 FROM room_rule_assignments WHERE room_rule_assignments.rule_id = payment_rules.id)").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Order("priority DESC, created_at DESC").
		Find(&rules).Error
	return rules, err
}

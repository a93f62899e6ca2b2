package paymentrule

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

// 百分比里程碑合计的允许误差
const percentageTolerance = 0.01

// RuleService 支付规则服务
type RuleService struct {
	ruleRepo *repository.PaymentRuleRepository
	roomRepo *repository.RoomRepository
	resolver *Resolver
}

// NewRuleService 创建支付规则服务
func NewRuleService(
	ruleRepo *repository.PaymentRuleRepository,
	roomRepo *repository.RoomRepository,
	resolver *Resolver,
) *RuleService {
	return &RuleService{
		ruleRepo: ruleRepo,
		roomRepo: roomRepo,
		resolver: resolver,
	}
}

// MilestoneInput 里程碑输入
type MilestoneInput struct {
	Sequence   int        `json:"sequence" binding:"required,min=1"`
	Name       string     `json:"name" binding:"required,max=100"`
	AmountType string     `json:"amount_type" binding:"required"`
	Amount     float64    `json:"amount" binding:"required"`
	Due        string     `json:"due" binding:"required"`
	OffsetDays *int       `json:"offset_days,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// CreateRuleRequest 创建规则请求
type CreateRuleRequest struct {
	PropertyID  int64   `json:"property_id" binding:"required"`
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description,omitempty"`
	RuleType    string  `json:"rule_type" binding:"required"`

	DepositType          *string    `json:"deposit_type,omitempty"`
	DepositAmount        *float64   `json:"deposit_amount,omitempty"`
	DepositDue           *string    `json:"deposit_due,omitempty"`
	DepositDueOffsetDays *int       `json:"deposit_due_offset_days,omitempty"`
	DepositDueDate       *time.Time `json:"deposit_due_date,omitempty"`
	BalanceDue           *string    `json:"balance_due,omitempty"`
	BalanceDueOffsetDays *int       `json:"balance_due_offset_days,omitempty"`
	BalanceDueDate       *time.Time `json:"balance_due_date,omitempty"`

	Milestones []MilestoneInput `json:"milestones,omitempty"`

	AppliesToDates bool       `json:"applies_to_dates"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Priority       int        `json:"priority"`
}

// UpdateRuleRequest 更新规则请求
// Version 为读取时拿到的版本号，用于乐观锁校验。
// 仅提交 Name/Description 视为外观性修改，不受编辑锁与版本约束。
type UpdateRuleRequest struct {
	Version     int64   `json:"version"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`

	RuleType *string `json:"rule_type,omitempty"`

	DepositType          *string    `json:"deposit_type,omitempty"`
	DepositAmount        *float64   `json:"deposit_amount,omitempty"`
	DepositDue           *string    `json:"deposit_due,omitempty"`
	DepositDueOffsetDays *int       `json:"deposit_due_offset_days,omitempty"`
	DepositDueDate       *time.Time `json:"deposit_due_date,omitempty"`
	BalanceDue           *string    `json:"balance_due,omitempty"`
	BalanceDueOffsetDays *int       `json:"balance_due_offset_days,omitempty"`
	BalanceDueDate       *time.Time `json:"balance_due_date,omitempty"`

	Milestones []MilestoneInput `json:"milestones,omitempty"`

	AppliesToDates *bool      `json:"applies_to_dates,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Priority       *int       `json:"priority,omitempty"`
}

// structural 判断请求是否包含结构性字段
func (r *UpdateRuleRequest) structural() bool {
	return r.RuleType != nil ||
		r.DepositType != nil || r.DepositAmount != nil ||
		r.DepositDue != nil || r.DepositDueOffsetDays != nil || r.DepositDueDate != nil ||
		r.BalanceDue != nil || r.BalanceDueOffsetDays != nil || r.BalanceDueDate != nil ||
		len(r.Milestones) > 0 ||
		r.AppliesToDates != nil || r.StartDate != nil || r.EndDate != nil ||
		r.Priority != nil
}

// CreateRule 创建支付规则
func (s *RuleService) CreateRule(ctx context.Context, adminID int64, req *CreateRuleRequest) (*models.PaymentRule, error) {
	rule := &models.PaymentRule{
		PropertyID:           req.PropertyID,
		Name:                 req.Name,
		Description:          req.Description,
		RuleType:             req.RuleType,
		DepositType:          req.DepositType,
		DepositAmount:        req.DepositAmount,
		DepositDue:           req.DepositDue,
		DepositDueOffsetDays: req.DepositDueOffsetDays,
		DepositDueDate:       req.DepositDueDate,
		BalanceDue:           req.BalanceDue,
		BalanceDueOffsetDays: req.BalanceDueOffsetDays,
		BalanceDueDate:       req.BalanceDueDate,
		AppliesToDates:       req.AppliesToDates,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Priority:             req.Priority,
		IsActive:             true,
		Version:              1,
		CreatedBy:            adminID,
	}
	for _, m := range req.Milestones {
		rule.Milestones = append(rule.Milestones, models.ScheduleMilestone{
			Sequence:   m.Sequence,
			Name:       m.Name,
			AmountType: m.AmountType,
			Amount:     m.Amount,
			Due:        m.Due,
			OffsetDays: m.OffsetDays,
			DueDate:    m.DueDate,
		})
	}

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.resolver.Invalidate(ctx)
	logger.Info("支付规则已创建",
		logger.RuleID(rule.ID),
		logger.PropertyID(rule.PropertyID),
		logger.AdminID(adminID),
	)
	return rule, nil
}

// GetRule 获取支付规则详情
func (s *RuleService) GetRule(ctx context.Context, id int64) (*models.PaymentRule, error) {
	rule, err := s.ruleRepo.GetByIDWithMilestones(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRuleNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rule, nil
}

// ListRules 获取支付规则列表
func (s *RuleService) ListRules(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.PaymentRule, int64, error) {
	rules, total, err := s.ruleRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return rules, total, nil
}

// UpdateRule 更新支付规则
// 结构性修改受编辑锁与乐观锁双重保护：已被房间绑定的规则只允许外观性修改。
func (s *RuleService) UpdateRule(ctx context.Context, id int64, req *UpdateRuleRequest) (*models.PaymentRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if !req.structural() {
		fields := map[string]interface{}{}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.Description != nil {
			fields["description"] = *req.Description
		}
		if len(fields) == 0 {
			return rule, nil
		}
		if err := s.ruleRepo.UpdateCosmetic(ctx, id, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		return s.GetRule(ctx, id)
	}

	// 编辑锁：存在房间绑定时拒绝结构性修改，并带上房间名称
	roomNames, err := s.ruleRepo.ListAssignedRoomNames(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if len(roomNames) > 0 {
		return nil, errors.NewEditLocked(roomNames)
	}

	merged := mergeRule(rule, req)
	if err := validateRule(merged); err != nil {
		return nil, err
	}

	fields := structuralFields(merged, req)
	milestones := merged.Milestones
	if err := s.ruleRepo.UpdateStructural(ctx, rule, req.Version, fields, milestones); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRuleVersionStale
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.resolver.Invalidate(ctx)
	logger.Info("支付规则已更新", logger.RuleID(id))
	return s.GetRule(ctx, id)
}

// SetActive 启用/停用支付规则
func (s *RuleService) SetActive(ctx context.Context, id int64, active bool) error {
	if _, err := s.GetRule(ctx, id); err != nil {
		return err
	}
	if err := s.ruleRepo.UpdateCosmetic(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	s.resolver.Invalidate(ctx)
	return nil
}

// DeleteRule 删除支付规则
// 仍被房间绑定的规则不可删除；解绑后方可删除。
func (s *RuleService) DeleteRule(ctx context.Context, id int64) error {
	if _, err := s.GetRule(ctx, id); err != nil {
		return err
	}

	roomNames, err := s.ruleRepo.ListAssignedRoomNames(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if len(roomNames) > 0 {
		return errors.NewEditLocked(roomNames)
	}

	if err := s.ruleRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	s.resolver.Invalidate(ctx)
	logger.Info("支付规则已删除", logger.RuleID(id))
	return nil
}

// AssignRoom 将规则绑定到房间
func (s *RuleService) AssignRoom(ctx context.Context, adminID, ruleID, roomID int64, version int64) error {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRoomNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if room.PropertyID != rule.PropertyID {
		return errors.ErrRoomNotInProperty
	}

	exists, err := s.ruleRepo.ExistsAssignment(ctx, ruleID, roomID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return errors.ErrRuleAssignExists
	}

	err = s.ruleRepo.AddAssignment(ctx, &models.RoomRuleAssignment{
		RuleID:     ruleID,
		RoomID:     roomID,
		AssignedBy: adminID,
	}, version)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRuleVersionStale
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	s.resolver.Invalidate(ctx)
	logger.Info("规则已绑定房间", logger.RuleID(ruleID), logger.RoomID(roomID), logger.AdminID(adminID))
	return nil
}

// UnassignRoom 解绑房间
func (s *RuleService) UnassignRoom(ctx context.Context, ruleID, roomID int64, version int64) error {
	if _, err := s.GetRule(ctx, ruleID); err != nil {
		return err
	}

	exists, err := s.ruleRepo.ExistsAssignment(ctx, ruleID, roomID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !exists {
		return errors.ErrRuleAssignMissing
	}

	if err := s.ruleRepo.RemoveAssignment(ctx, ruleID, roomID, version); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRuleVersionStale
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	s.resolver.Invalidate(ctx)
	return nil
}

// ListAssignments 获取规则的房间绑定列表
func (s *RuleService) ListAssignments(ctx context.Context, ruleID int64) ([]*models.RoomRuleAssignment, error) {
	if _, err := s.GetRule(ctx, ruleID); err != nil {
		return nil, err
	}
	assignments, err := s.ruleRepo.ListAssignments(ctx, ruleID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return assignments, nil
}

// mergeRule 将更新请求合并到现有规则副本上
func mergeRule(rule *models.PaymentRule, req *UpdateRuleRequest) *models.PaymentRule {
	merged := *rule

	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = req.Description
	}
	if req.RuleType != nil {
		merged.RuleType = *req.RuleType
	}
	if req.DepositType != nil {
		merged.DepositType = req.DepositType
	}
	if req.DepositAmount != nil {
		merged.DepositAmount = req.DepositAmount
	}
	if req.DepositDue != nil {
		merged.DepositDue = req.DepositDue
	}
	if req.DepositDueOffsetDays != nil {
		merged.DepositDueOffsetDays = req.DepositDueOffsetDays
	}
	if req.DepositDueDate != nil {
		merged.DepositDueDate = req.DepositDueDate
	}
	if req.BalanceDue != nil {
		merged.BalanceDue = req.BalanceDue
	}
	if req.BalanceDueOffsetDays != nil {
		merged.BalanceDueOffsetDays = req.BalanceDueOffsetDays
	}
	if req.BalanceDueDate != nil {
		merged.BalanceDueDate = req.BalanceDueDate
	}
	if req.AppliesToDates != nil {
		merged.AppliesToDates = *req.AppliesToDates
	}
	if req.StartDate != nil {
		merged.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		merged.EndDate = req.EndDate
	}
	if req.Priority != nil {
		merged.Priority = *req.Priority
	}
	if len(req.Milestones) > 0 {
		merged.Milestones = nil
		for _, m := range req.Milestones {
			merged.Milestones = append(merged.Milestones, models.ScheduleMilestone{
				Sequence:   m.Sequence,
				Name:       m.Name,
				AmountType: m.AmountType,
				Amount:     m.Amount,
				Due:        m.Due,
				OffsetDays: m.OffsetDays,
				DueDate:    m.DueDate,
			})
		}
	}
	return &merged
}

// structuralFields 构造结构性更新的字段集合
func structuralFields(merged *models.PaymentRule, req *UpdateRuleRequest) map[string]interface{} {
	fields := map[string]interface{}{
		"rule_type":        merged.RuleType,
		"applies_to_dates": merged.AppliesToDates,
		"priority":         merged.Priority,
	}
	if req.Name != nil {
		fields["name"] = merged.Name
	}
	if req.Description != nil {
		fields["description"] = merged.Description
	}
	fields["deposit_type"] = merged.DepositType
	fields["deposit_amount"] = merged.DepositAmount
	fields["deposit_due"] = merged.DepositDue
	fields["deposit_due_offset_days"] = merged.DepositDueOffsetDays
	fields["deposit_due_date"] = merged.DepositDueDate
	fields["balance_due"] = merged.BalanceDue
	fields["balance_due_offset_days"] = merged.BalanceDueOffsetDays
	fields["balance_due_date"] = merged.BalanceDueDate
	fields["start_date"] = merged.StartDate
	fields["end_date"] = merged.EndDate
	return fields
}

// validateRule 校验规则配置的完整性与一致性
func validateRule(rule *models.PaymentRule) error {
	var fieldErrs []errors.FieldError

	switch rule.RuleType {
	case models.RuleTypeDeposit:
		fieldErrs = append(fieldErrs, validateDeposit(rule)...)
		if len(rule.Milestones) > 0 {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "milestones", Message: "押金规则不允许配置里程碑"})
		}
	case models.RuleTypeSchedule:
		fieldErrs = append(fieldErrs, validateMilestones(rule.Milestones)...)
	case models.RuleTypeFlexible:
		if len(rule.Milestones) > 0 {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "milestones", Message: "灵活规则不允许配置里程碑"})
		}
	default:
		return errors.ErrRuleTypeInvalid
	}

	if rule.AppliesToDates {
		if rule.StartDate == nil || rule.EndDate == nil {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "start_date", Message: "限定日期的规则需要起止日期"})
		} else if rule.EndDate.Before(*rule.StartDate) {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "end_date", Message: "结束日期不能早于开始日期"})
		}
	}

	if len(fieldErrs) > 0 {
		return errors.NewValidation(fieldErrs...)
	}
	return nil
}

func validateDeposit(rule *models.PaymentRule) []errors.FieldError {
	var fieldErrs []errors.FieldError

	if rule.DepositType == nil {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "deposit_type", Message: "押金规则必填"})
	} else if *rule.DepositType != models.AmountTypePercentage && *rule.DepositType != models.AmountTypeFixedAmount {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "deposit_type", Message: "无效的金额类型"})
	}

	if rule.DepositAmount == nil {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "deposit_amount", Message: "押金规则必填"})
	} else {
		if *rule.DepositAmount <= 0 {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "deposit_amount", Message: "金额必须大于0"})
		}
		if rule.DepositType != nil && *rule.DepositType == models.AmountTypePercentage && *rule.DepositAmount > 100 {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "deposit_amount", Message: "百分比不能超过100"})
		}
	}

	fieldErrs = append(fieldErrs, validateDueTiming("deposit_due", rule.DepositDue, rule.DepositDueOffsetDays, rule.DepositDueDate)...)
	fieldErrs = append(fieldErrs, validateDueTiming("balance_due", rule.BalanceDue, rule.BalanceDueOffsetDays, rule.BalanceDueDate)...)
	return fieldErrs
}

func validateDueTiming(field string, timing *string, offsetDays *int, dueDate *time.Time) []errors.FieldError {
	if timing == nil {
		return []errors.FieldError{{Field: field, Message: "押金规则必填"}}
	}
	if !models.ValidDueTiming(*timing) {
		return []errors.FieldError{{Field: field, Message: "无效的到期时点"}}
	}
	var fieldErrs []errors.FieldError
	if models.DueTimingNeedsOffset(*timing) && offsetDays == nil {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "该到期时点需要偏移天数"})
	}
	if models.DueTimingNeedsOffset(*timing) && offsetDays != nil && *offsetDays < 0 {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "偏移天数不能为负"})
	}
	if *timing == models.DueSpecificDate && dueDate == nil {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "该到期时点需要指定日期"})
	}
	return fieldErrs
}

func validateMilestones(milestones []models.ScheduleMilestone) []errors.FieldError {
	var fieldErrs []errors.FieldError

	if len(milestones) == 0 {
		return []errors.FieldError{{Field: "milestones", Message: "分期规则至少需要一个里程碑"}}
	}

	allPercentage := true
	percentageSum := 0.0
	lastSequence := 0
	seen := map[int]bool{}

	for i, m := range milestones {
		field := fmt.Sprintf("milestones[%d]", i)

		if seen[m.Sequence] {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "里程碑序号重复"})
		}
		seen[m.Sequence] = true
		if m.Sequence <= lastSequence {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "里程碑序号必须严格递增"})
		}
		lastSequence = m.Sequence

		switch m.AmountType {
		case models.AmountTypePercentage:
			if m.Amount <= 0 || m.Amount > 100 {
				fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "百分比必须在(0,100]之间"})
			}
			percentageSum += m.Amount
		case models.AmountTypeFixedAmount:
			allPercentage = false
			if m.Amount <= 0 {
				fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "固定金额必须大于0"})
			}
		default:
			fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Message: "无效的金额类型"})
		}

		fieldErrs = append(fieldErrs, validateDueTiming(field+".due", &m.Due, m.OffsetDays, m.DueDate)...)
	}

	// 全百分比时合计必须为 100（允许 0.01 误差）
	if allPercentage && math.Abs(percentageSum-100) > percentageTolerance {
		fieldErrs = append(fieldErrs, errors.FieldError{
			Field:   "milestones",
			Message: fmt.Sprintf("百分比合计必须为100，当前为%.2f", percentageSum),
		})
	}

	return fieldErrs
}

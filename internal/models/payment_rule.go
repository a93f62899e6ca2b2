package models

import (
	"time"
)

// PaymentRule 支付规则模型
// rule_type 决定生效的配置载荷：deposit 使用四个 deposit/balance 字段，
// payment_schedule 使用 Milestones，flexible 不携带额外载荷。
type PaymentRule struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  int64   `gorm:"index;not null" json:"property_id"`
	Name        string  `gorm:"type:varchar(100);not null" json:"name"`
	Description *string `gorm:"type:varchar(255)" json:"description,omitempty"`
	RuleType    string  `gorm:"type:varchar(20);not null" json:"rule_type"`

	// 押金载荷（仅 rule_type = deposit）
	DepositType          *string    `gorm:"type:varchar(20)" json:"deposit_type,omitempty"`
	DepositAmount        *float64   `gorm:"type:decimal(10,2)" json:"deposit_amount,omitempty"`
	DepositDue           *string    `gorm:"type:varchar(30)" json:"deposit_due,omitempty"`
	DepositDueOffsetDays *int       `json:"deposit_due_offset_days,omitempty"`
	DepositDueDate       *time.Time `gorm:"type:date" json:"deposit_due_date,omitempty"`
	BalanceDue           *string    `gorm:"type:varchar(30)" json:"balance_due,omitempty"`
	BalanceDueOffsetDays *int       `json:"balance_due_offset_days,omitempty"`
	BalanceDueDate       *time.Time `gorm:"type:date" json:"balance_due_date,omitempty"`

	// 适用范围
	AppliesToDates bool       `gorm:"not null;default:false" json:"applies_to_dates"`
	StartDate      *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate        *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	Priority       int        `gorm:"not null;default:0" json:"priority"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`

	// 乐观锁版本号，结构性修改与房间绑定共用同一版本保护
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedBy int64     `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property    *Property            `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Milestones  []ScheduleMilestone  `gorm:"foreignKey:RuleID" json:"milestones,omitempty"`
	Assignments []RoomRuleAssignment `gorm:"foreignKey:RuleID" json:"assignments,omitempty"`
}

// TableName 表名
func (PaymentRule) TableName() string {
	return "payment_rules"
}

// RuleType 规则类型
const (
	RuleTypeDeposit  = "deposit"          // 押金（首付 + 尾款）
	RuleTypeSchedule = "payment_schedule" // 分期里程碑
	RuleTypeFlexible = "flexible"         // 灵活支付（退房前任意时间付清）
)

// AmountType 金额类型
const (
	AmountTypePercentage  = "percentage"   // 百分比
	AmountTypeFixedAmount = "fixed_amount" // 固定金额
)

// DueTiming 到期时点
const (
	DueAtBooking          = "at_booking"           // 下单时
	DueOnCheckin          = "on_checkin"           // 入住当日
	DueDaysBeforeCheckin  = "days_before_checkin"  // 入住前 N 天
	DueDaysAfterBooking   = "days_after_booking"   // 下单后 N 天
	DueSpecificDate       = "specific_date"        // 指定日期
)

// DueTimingNeedsOffset 判断到期时点是否需要偏移天数
func DueTimingNeedsOffset(timing string) bool {
	return timing == DueDaysBeforeCheckin || timing == DueDaysAfterBooking
}

// ValidDueTiming 判断到期时点取值是否合法
func ValidDueTiming(timing string) bool {
	switch timing {
	case DueAtBooking, DueOnCheckin, DueDaysBeforeCheckin, DueDaysAfterBooking, DueSpecificDate:
		return true
	}
	return false
}

// ScheduleMilestone 分期里程碑
type ScheduleMilestone struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RuleID     int64      `gorm:"index;not null" json:"rule_id"`
	Sequence   int        `gorm:"not null" json:"sequence"`
	Name       string     `gorm:"type:varchar(100);not null" json:"name"`
	AmountType string     `gorm:"type:varchar(20);not null" json:"amount_type"`
	Amount     float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Due        string     `gorm:"type:varchar(30);not null" json:"due"`
	OffsetDays *int       `json:"offset_days,omitempty"`
	DueDate    *time.Time `gorm:"type:date" json:"due_date,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Rule *PaymentRule `gorm:"foreignKey:RuleID" json:"rule,omitempty"`
}

// TableName 表名
func (ScheduleMilestone) TableName() string {
	return "schedule_milestones"
}

// RoomRuleAssignment 房间与支付规则的绑定关系
type RoomRuleAssignment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RuleID     int64     `gorm:"index;not null;uniqueIndex:uk_room_rule" json:"rule_id"`
	RoomID     int64     `gorm:"index;not null;uniqueIndex:uk_room_rule" json:"room_id"`
	AssignedBy int64     `gorm:"not null" json:"assigned_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Rule *PaymentRule `gorm:"foreignKey:RuleID" json:"rule,omitempty"`
	Room *Room        `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (RoomRuleAssignment) TableName() string {
	return "room_rule_assignments"
}

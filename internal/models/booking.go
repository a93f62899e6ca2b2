package models

import (
	"time"
)

// Booking 预订模型
type Booking struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"booking_no"`
	UserID       int64      `gorm:"index;not null" json:"user_id"`
	PropertyID   int64      `gorm:"index;not null" json:"property_id"`
	RoomID       int64      `gorm:"index;not null" json:"room_id"`
	BookingDate  time.Time  `gorm:"type:date;not null" json:"booking_date"`
	CheckinDate  time.Time  `gorm:"type:date;not null" json:"checkin_date"`
	CheckoutDate time.Time  `gorm:"type:date;not null" json:"checkout_date"`
	GuestName    string     `gorm:"type:varchar(50);not null" json:"guest_name"`
	GuestCount   int        `gorm:"not null;default:1" json:"guest_count"`
	TotalPrice   float64    `gorm:"type:decimal(10,2);not null" json:"total_price"`
	RuleID       *int64     `gorm:"index" json:"rule_id,omitempty"`
	PaymentRef   *string    `gorm:"type:varchar(64)" json:"payment_ref,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User          *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Property      *Property             `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Room          *Room                 `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Rule          *PaymentRule          `gorm:"foreignKey:RuleID" json:"rule,omitempty"`
	ScheduleItems []PaymentScheduleItem `gorm:"foreignKey:BookingID" json:"schedule_items,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus 预订状态
const (
	BookingStatusPending   = "pending"    // 待支付
	BookingStatusConfirmed = "confirmed"  // 已确认
	BookingStatusCheckedIn = "checked_in" // 已入住
	BookingStatusCompleted = "completed"  // 已完成
	BookingStatusCancelled = "cancelled"  // 已取消
)

// PaymentScheduleItem 预订的应付款行
// 由支付规则展开而来，供账务侧按到期日收款。
type PaymentScheduleItem struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID int64      `gorm:"index;not null" json:"booking_id"`
	Sequence  int        `gorm:"not null" json:"sequence"`
	Label     string     `gorm:"type:varchar(100);not null" json:"label"`
	Amount    float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	DueDate   time.Time  `gorm:"type:date;not null" json:"due_date"`
	Status    string     `gorm:"type:varchar(20);not null;default:'unpaid'" json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

// TableName 表名
func (PaymentScheduleItem) TableName() string {
	return "payment_schedule_items"
}

// ScheduleItemStatus 应付款行状态
const (
	ScheduleItemStatusUnpaid = "unpaid" // 未支付
	ScheduleItemStatusPaid   = "paid"   // 已支付
)

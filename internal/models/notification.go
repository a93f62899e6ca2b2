package models

import (
	"time"
)

// Notification 站内通知模型
type Notification struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	Type       string     `gorm:"type:varchar(30);not null" json:"type"`
	Title      string     `gorm:"type:varchar(100);not null" json:"title"`
	Content    string     `gorm:"type:varchar(500);not null" json:"content"`
	RefundID   *int64     `gorm:"index" json:"refund_id,omitempty"`
	BookingID  *int64     `gorm:"index" json:"booking_id,omitempty"`
	IsRead     bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}

// NotificationType 通知类型
const (
	NotificationTypeRefundStatus  = "refund_status"  // 退款状态变更
	NotificationTypeRefundComment = "refund_comment" // 退款新留言
	NotificationTypePaymentDue    = "payment_due"    // 付款到期提醒
	NotificationTypeSystem        = "system"         // 系统通知
)

package models

import (
	"time"
)

// User 用户（客人）模型
type User struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone     *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Email     *string    `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname  string     `gorm:"type:varchar(50);not null;default:''" json:"nickname"`
	Avatar    *string    `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Status    int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

package models

import (
	"time"
)

// Property 物业（民宿/酒店）模型
type Property struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	City         string    `gorm:"type:varchar(50);not null" json:"city"`
	Address      string    `gorm:"type:varchar(255);not null" json:"address"`
	ContactName  *string   `gorm:"type:varchar(50)" json:"contact_name,omitempty"`
	ContactPhone *string   `gorm:"type:varchar(20)" json:"contact_phone,omitempty"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	Images       JSON      `gorm:"type:jsonb" json:"images,omitempty"`
	Status       int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Rooms []Room `gorm:"foreignKey:PropertyID" json:"rooms,omitempty"`
}

// TableName 表名
func (Property) TableName() string {
	return "properties"
}

// PropertyStatus 物业状态
const (
	PropertyStatusDisabled = 0 // 禁用
	PropertyStatusActive   = 1 // 正常
)

// Room 房间模型
type Room struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int64     `gorm:"index;not null" json:"property_id"`
	RoomNo     string    `gorm:"type:varchar(20);not null" json:"room_no"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`
	MaxGuests  int       `gorm:"not null;default:2" json:"max_guests"`
	BasePrice  float64   `gorm:"type:decimal(10,2);not null" json:"base_price"`
	Images     JSON      `gorm:"type:jsonb" json:"images,omitempty"`
	Status     int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// RoomStatus 房间状态
const (
	RoomStatusDisabled = 0 // 禁用
	RoomStatusActive   = 1 // 正常
)

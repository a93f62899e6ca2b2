// Package property 提供物业与房间管理服务
package property

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

// PropertyService 物业服务
type PropertyService struct {
	propertyRepo *repository.PropertyRepository
	roomRepo     *repository.RoomRepository
}

// NewPropertyService 创建物业服务
func NewPropertyService(propertyRepo *repository.PropertyRepository, roomRepo *repository.RoomRepository) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		roomRepo:     roomRepo,
	}
}

// CreatePropertyRequest 创建物业请求
type CreatePropertyRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	City         string  `json:"city" binding:"required,max=50"`
	Address      string  `json:"address" binding:"required,max=255"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// CreateProperty 创建物业
func (s *PropertyService) CreateProperty(ctx context.Context, req *CreatePropertyRequest) (*models.Property, error) {
	property := &models.Property{
		Name:         req.Name,
		City:         req.City,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Description:  req.Description,
		Status:       models.PropertyStatusActive,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("物业已创建", logger.PropertyID(property.ID), logger.String("name", property.Name))
	return property, nil
}

// GetProperty 获取物业详情（含房间）
func (s *PropertyService) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	property, err := s.propertyRepo.GetByIDWithRooms(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return property, nil
}

// ListProperties 获取物业列表
func (s *PropertyService) ListProperties(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Property, int64, error) {
	properties, total, err := s.propertyRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return properties, total, nil
}

// UpdatePropertyRequest 更新物业请求
type UpdatePropertyRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,max=100"`
	City         *string `json:"city,omitempty" binding:"omitempty,max=50"`
	Address      *string `json:"address,omitempty" binding:"omitempty,max=255"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// UpdateProperty 更新物业
func (s *PropertyService) UpdateProperty(ctx context.Context, id int64, req *UpdatePropertyRequest) (*models.Property, error) {
	if _, err := s.GetProperty(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.City != nil {
		fields["city"] = *req.City
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.ContactName != nil {
		fields["contact_name"] = *req.ContactName
	}
	if req.ContactPhone != nil {
		fields["contact_phone"] = *req.ContactPhone
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if len(fields) > 0 {
		if err := s.propertyRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}
	return s.GetProperty(ctx, id)
}

// SetPropertyStatus 启用/禁用物业
func (s *PropertyService) SetPropertyStatus(ctx context.Context, id int64, active bool) error {
	if _, err := s.GetProperty(ctx, id); err != nil {
		return err
	}
	status := int8(models.PropertyStatusDisabled)
	if active {
		status = models.PropertyStatusActive
	}
	if err := s.propertyRepo.UpdateStatus(ctx, id, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	PropertyID int64   `json:"property_id" binding:"required"`
	RoomNo     string  `json:"room_no" binding:"required,max=20"`
	Name       string  `json:"name" binding:"required,max=100"`
	Type       string  `json:"type" binding:"required,max=50"`
	MaxGuests  int     `json:"max_guests" binding:"required,min=1"`
	BasePrice  float64 `json:"base_price" binding:"required,gt=0"`
}

// CreateRoom 创建房间
func (s *PropertyService) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*models.Room, error) {
	property, err := s.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.Status != models.PropertyStatusActive {
		return nil, errors.ErrPropertyDisabled
	}

	room := &models.Room{
		PropertyID: req.PropertyID,
		RoomNo:     req.RoomNo,
		Name:       req.Name,
		Type:       req.Type,
		MaxGuests:  req.MaxGuests,
		BasePrice:  req.BasePrice,
		Status:     models.RoomStatusActive,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("房间已创建", logger.PropertyID(req.PropertyID), logger.RoomID(room.ID))
	return room, nil
}

// GetRoom 获取房间详情（含所属物业）
func (s *PropertyService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetByIDWithProperty(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return room, nil
}

// ListRooms 获取物业下的房间列表
func (s *PropertyService) ListRooms(ctx context.Context, propertyID int64, offset, limit int) ([]*models.Room, int64, error) {
	rooms, total, err := s.roomRepo.ListByProperty(ctx, propertyID, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return rooms, total, nil
}

// UpdateRoomRequest 更新房间请求
type UpdateRoomRequest struct {
	RoomNo    *string  `json:"room_no,omitempty" binding:"omitempty,max=20"`
	Name      *string  `json:"name,omitempty" binding:"omitempty,max=100"`
	Type      *string  `json:"type,omitempty" binding:"omitempty,max=50"`
	MaxGuests *int     `json:"max_guests,omitempty" binding:"omitempty,min=1"`
	BasePrice *float64 `json:"base_price,omitempty" binding:"omitempty,gt=0"`
}

// UpdateRoom 更新房间
func (s *PropertyService) UpdateRoom(ctx context.Context, id int64, req *UpdateRoomRequest) (*models.Room, error) {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.RoomNo != nil {
		fields["room_no"] = *req.RoomNo
	}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Type != nil {
		fields["type"] = *req.Type
	}
	if req.MaxGuests != nil {
		fields["max_guests"] = *req.MaxGuests
	}
	if req.BasePrice != nil {
		fields["base_price"] = *req.BasePrice
	}
	if len(fields) > 0 {
		if err := s.roomRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}
	return s.GetRoom(ctx, id)
}

// SetRoomStatus 启用/禁用房间
func (s *PropertyService) SetRoomStatus(ctx context.Context, id int64, active bool) error {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return err
	}
	status := int8(models.RoomStatusDisabled)
	if active {
		status = models.RoomStatusActive
	}
	if err := s.roomRepo.UpdateStatus(ctx, id, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Package admin 提供管理员认证与账号管理服务
package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/crypto"
	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/jwt"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

// AuthService 管理员认证服务
type AuthService struct {
	adminRepo  *repository.AdminRepository
	jwtManager *jwt.Manager
}

// NewAuthService 创建管理员认证服务
func NewAuthService(adminRepo *repository.AdminRepository, jwtManager *jwt.Manager) *AuthService {
	return &AuthService{
		adminRepo:  adminRepo,
		jwtManager: jwtManager,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminInfo 管理员信息（不含敏感字段）
type AdminInfo struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	RealName   *string `json:"real_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Role       string  `json:"role"`
	PropertyID *int64  `json:"property_id,omitempty"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Admin *AdminInfo     `json:"admin"`
	Token *jwt.TokenPair `json:"token"`
}

func toAdminInfo(admin *models.Admin) *AdminInfo {
	return &AdminInfo{
		ID:         admin.ID,
		Username:   admin.Username,
		RealName:   admin.RealName,
		Phone:      admin.Phone,
		Role:       admin.Role,
		PropertyID: admin.PropertyID,
	}
}

// Login 管理员登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if admin.Status != models.AdminStatusActive {
		return nil, errors.ErrAccountDisabled
	}
	if !crypto.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, errors.ErrPasswordError
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin, admin.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID); err != nil {
		logger.Warn("更新最近登录时间失败", logger.AdminID(admin.ID), logger.Err(err))
	}

	logger.Info("管理员登录", logger.AdminID(admin.ID), logger.String("username", admin.Username))
	return &LoginResponse{
		Admin: toAdminInfo(admin),
		Token: tokenPair,
	}, nil
}

// RefreshToken 刷新令牌
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	pair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenRefreshFail.WithError(err)
	}
	return pair, nil
}

// GetAdminInfo 获取管理员信息
func (s *AuthService) GetAdminInfo(ctx context.Context, adminID int64) (*AdminInfo, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound.WithMessage("管理员不存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return toAdminInfo(admin), nil
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, adminID int64, req *ChangePasswordRequest) error {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrNotFound.WithMessage("管理员不存在")
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.OldPassword, admin.PasswordHash) {
		return errors.ErrPasswordError.WithMessage("原密码错误")
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.adminRepo.UpdatePassword(ctx, adminID, hash); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("管理员密码已修改", logger.AdminID(adminID))
	return nil
}

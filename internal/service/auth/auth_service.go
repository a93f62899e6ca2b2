// Package auth 提供用户认证服务
package auth

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/jwt"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

// AuthService 认证服务
type AuthService struct {
	userRepo    *repository.UserRepository
	jwtManager  *jwt.Manager
	codeService *CodeService
}

// NewAuthService 创建认证服务
func NewAuthService(
	userRepo *repository.UserRepository,
	jwtManager *jwt.Manager,
	codeService *CodeService,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		codeService: codeService,
	}
}

// SendSmsCodeRequest 发送短信验证码请求
type SendSmsCodeRequest struct {
	Phone    string   `json:"phone" binding:"required"`
	CodeType CodeType `json:"code_type" binding:"required"`
}

// SmsLoginRequest 短信验证码登录请求
type SmsLoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User      *UserInfo      `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
	IsNewUser bool           `json:"is_new_user"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID       int64   `json:"id"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Nickname string  `json:"nickname"`
	Avatar   *string `json:"avatar,omitempty"`
}

// SendSmsCode 发送短信验证码
func (s *AuthService) SendSmsCode(ctx context.Context, req *SendSmsCodeRequest) error {
	if len(req.Phone) != 11 {
		return errors.ErrPhoneInvalid
	}
	if err := s.codeService.SendCode(ctx, req.Phone, req.CodeType); err != nil {
		return errors.Wrap(errors.ErrSmsSendFail.Code, err.Error(), err)
	}
	return nil
}

// SmsLogin 短信验证码登录（未注册手机号自动注册）
func (s *AuthService) SmsLogin(ctx context.Context, req *SmsLoginRequest) (*LoginResponse, error) {
	valid, err := s.codeService.VerifyCode(ctx, req.Phone, req.Code, CodeTypeLogin)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	if !valid {
		return nil, errors.ErrSmsCodeError
	}

	user, isNew, err := s.findOrCreateUser(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrAccountDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, jwt.UserTypeUser, "")
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	logger.Info("用户登录", logger.UserID(user.ID))
	return &LoginResponse{
		User:      s.toUserInfo(user),
		TokenPair: tokenPair,
		IsNewUser: isNew,
	}, nil
}

// findOrCreateUser 查找或创建用户
func (s *AuthService) findOrCreateUser(ctx context.Context, phone string) (*models.User, bool, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err == nil {
		return user, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	user = &models.User{
		Phone:    &phone,
		Nickname: s.generateNickname(phone),
		Status:   models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}
	return user, true, nil
}

// generateNickname 生成默认昵称
func (s *AuthService) generateNickname(phone string) string {
	if len(phone) >= 4 {
		return fmt.Sprintf("用户%s", phone[len(phone)-4:])
	}
	return fmt.Sprintf("用户%d", time.Now().UnixNano()%10000)
}

func (s *AuthService) toUserInfo(user *models.User) *UserInfo {
	return &UserInfo{
		ID:       user.ID,
		Phone:    user.Phone,
		Email:    user.Email,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
	}
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	return tokenPair, nil
}

// GetUserInfo 获取用户信息
func (s *AuthService) GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.toUserInfo(user), nil
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname,omitempty" binding:"omitempty,max=50"`
	Avatar   *string `json:"avatar,omitempty"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
}

// UpdateProfile 更新个人资料
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*UserInfo, error) {
	fields := make(map[string]interface{})
	if req.Nickname != nil {
		fields["nickname"] = *req.Nickname
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if len(fields) == 0 {
		return s.GetUserInfo(ctx, userID)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.GetUserInfo(ctx, userID)
}

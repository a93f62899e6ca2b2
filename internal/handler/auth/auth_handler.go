// Package auth 提供认证相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	authService "github.com/dumeirei/smart-booking-backend/internal/service/auth"
)

// Handler 认证处理器
type Handler struct {
	authService *authService.AuthService
	codeService *authService.CodeService
}

// NewHandler 创建认证处理器
func NewHandler(authSvc *authService.AuthService, codeSvc *authService.CodeService) *Handler {
	return &Handler{
		authService: authSvc,
		codeService: codeSvc,
	}
}

// SendSmsCode 发送短信验证码
// @Summary 发送短信验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.SendSmsCodeRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/sms/send [post]
func (h *Handler) SendSmsCode(c *gin.Context) {
	var req authService.SendSmsCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.authService.SendSmsCode(c.Request.Context(), &req)) {
		return
	}

	response.Success(c, gin.H{
		"expire_in": int(h.codeService.GetCodeExpireIn().Seconds()),
	})
}

// SmsLogin 短信验证码登录
// @Summary 短信验证码登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.SmsLoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/login/sms [post]
func (h *Handler) SmsLogin(c *gin.Context) {
	var req authService.SmsLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.SmsLogin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokenPair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokenPair)
}

// GetProfile 获取个人资料
// @Summary 获取个人资料
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=authService.UserInfo}
// @Router /user/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	info, err := h.authService.GetUserInfo(c.Request.Context(), userID)
	handler.MustSucceed(c, err, info)
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags 认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.UpdateProfileRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.UserInfo}
// @Router /user/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req authService.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	info, err := h.authService.UpdateProfile(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, info)
}

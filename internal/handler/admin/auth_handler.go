// Package admin 提供管理端 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	adminService "github.com/dumeirei/smart-booking-backend/internal/service/admin"
)

// AuthHandler 管理员认证处理器
type AuthHandler struct {
	authService *adminService.AuthService
}

// NewAuthHandler 创建管理员认证处理器
func NewAuthHandler(authSvc *adminService.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
	}
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 管理端-认证
// @Accept json
// @Produce json
// @Param request body adminService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=adminService.LoginResponse}
// @Router /admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req adminService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags 管理端-认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}

// GetProfile 获取管理员信息
// @Summary 获取管理员信息
// @Tags 管理端-认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.AdminInfo}
// @Router /admin/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	info, err := h.authService.GetAdminInfo(c.Request.Context(), adminID)
	handler.MustSucceed(c, err, info)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 管理端-认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.ChangePasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req adminService.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), adminID, &req)
	handler.MustSucceedWithMessage(c, err, "密码已修改", nil)
}

// Logout 退出登录
// 无服务端会话，客户端丢弃令牌即可；保留端点用于审计日志。
// @Summary 退出登录
// @Tags 管理端-认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /admin/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	response.SuccessWithMessage(c, "已退出登录", nil)
}

// Package notify 提供站内通知的 HTTP Handler
package notify

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	notifyService "github.com/dumeirei/smart-booking-backend/internal/service/notify"
)

// Handler 通知处理器
type Handler struct {
	notifyService *notifyService.Service
}

// NewHandler 创建通知处理器
func NewHandler(notifySvc *notifyService.Service) *Handler {
	return &Handler{
		notifyService: notifySvc,
	}
}

// ListNotifications 获取通知列表
// @Summary 获取我的通知列表
// @Tags 通知
// @Produce json
// @Security Bearer
// @Param type query string false "通知类型"
// @Param is_read query bool false "是否已读"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	var isRead *bool
	if s := c.Query("is_read"); s != "" {
		v := s == "true"
		isRead = &v
	}

	notifications, total, err := h.notifyService.ListNotifications(
		c.Request.Context(), userID, p.GetOffset(), p.GetLimit(), c.Query("type"), isRead)
	handler.MustSucceedPage(c, err, notifications, total, p.Page, p.PageSize)
}

// CountUnread 获取未读数
// @Summary 获取未读通知数
// @Tags 通知
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /notifications/unread-count [get]
func (h *Handler) CountUnread(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	count, err := h.notifyService.CountUnread(c.Request.Context(), userID)
	handler.MustSucceed(c, err, gin.H{"count": count})
}

// MarkRead 标记通知已读
// @Summary 标记单条通知已读
// @Tags 通知
// @Produce json
// @Security Bearer
// @Param id path int true "通知ID"
// @Success 200 {object} response.Response
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "通知")
	if !ok {
		return
	}

	err := h.notifyService.MarkRead(c.Request.Context(), userID, id)
	handler.MustSucceed(c, err, nil)
}

// MarkAllRead 全部标记已读
// @Summary 标记全部通知已读
// @Tags 通知
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	err := h.notifyService.MarkAllRead(c.Request.Context(), userID)
	handler.MustSucceed(c, err, nil)
}

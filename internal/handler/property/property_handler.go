// Package property 提供物业与房间的 HTTP Handler
package property

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	propertyService "github.com/dumeirei/smart-booking-backend/internal/service/property"
)

// Handler 物业处理器
type Handler struct {
	propertyService *propertyService.PropertyService
}

// NewHandler 创建物业处理器
func NewHandler(propertySvc *propertyService.PropertyService) *Handler {
	return &Handler{
		propertyService: propertySvc,
	}
}

// ListProperties 获取物业列表
// @Summary 获取物业列表
// @Tags 物业
// @Produce json
// @Param city query string false "城市"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /properties [get]
func (h *Handler) ListProperties(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := map[string]interface{}{
		"status": models.PropertyStatusActive,
	}
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}

	properties, total, err := h.propertyService.ListProperties(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, properties, total, p.Page, p.PageSize)
}

// GetProperty 获取物业详情
// @Summary 获取物业详情（含房间）
// @Tags 物业
// @Produce json
// @Param id path int true "物业ID"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /properties/{id} [get]
func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "物业")
	if !ok {
		return
	}

	property, err := h.propertyService.GetProperty(c.Request.Context(), id)
	handler.MustSucceed(c, err, property)
}

// GetRoom 获取房间详情
// @Summary 获取房间详情
// @Tags 物业
// @Produce json
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /rooms/{id} [get]
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	room, err := h.propertyService.GetRoom(c.Request.Context(), id)
	handler.MustSucceed(c, err, room)
}

// AdminHandler 物业处理器（管理端）
type AdminHandler struct {
	propertyService *propertyService.PropertyService
}

// NewAdminHandler 创建管理端物业处理器
func NewAdminHandler(propertySvc *propertyService.PropertyService) *AdminHandler {
	return &AdminHandler{
		propertyService: propertySvc,
	}
}

// CreateProperty 创建物业
// @Summary 创建物业
// @Tags 管理端-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body propertyService.CreatePropertyRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /admin/properties [post]
func (h *AdminHandler) CreateProperty(c *gin.Context) {
	var req propertyService.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), &req)
	handler.MustSucceed(c, err, property)
}

// ListProperties 获取物业列表（管理端，含禁用）
// @Summary 获取物业列表
// @Tags 管理端-物业
// @Produce json
// @Security Bearer
// @Param city query string false "城市"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /admin/properties [get]
func (h *AdminHandler) ListProperties(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := make(map[string]interface{})
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}

	properties, total, err := h.propertyService.ListProperties(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, properties, total, p.Page, p.PageSize)
}

// UpdateProperty 更新物业
// @Summary 更新物业
// @Tags 管理端-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Param request body propertyService.UpdatePropertyRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /admin/properties/{id} [put]
func (h *AdminHandler) UpdateProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "物业")
	if !ok {
		return
	}

	var req propertyService.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, property)
}

// CreateRoom 创建房间
// @Summary 创建房间
// @Tags 管理端-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body propertyService.CreateRoomRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /admin/rooms [post]
func (h *AdminHandler) CreateRoom(c *gin.Context) {
	var req propertyService.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	room, err := h.propertyService.CreateRoom(c.Request.Context(), &req)
	handler.MustSucceed(c, err, room)
}

// UpdateRoom 更新房间
// @Summary 更新房间
// @Tags 管理端-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body propertyService.UpdateRoomRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /admin/rooms/{id} [put]
func (h *AdminHandler) UpdateRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	var req propertyService.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	room, err := h.propertyService.UpdateRoom(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, room)
}

// statusRequest 启用/禁用请求
type statusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetPropertyStatus 启用/禁用物业
// @Summary 启用/禁用物业
// @Tags 管理端-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Param request body statusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/properties/{id}/status [put]
func (h *AdminHandler) SetPropertyStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "物业")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.propertyService.SetPropertyStatus(c.Request.Context(), id, *req.Active)
	handler.MustSucceed(c, err, nil)
}

// SetRoomStatus 启用/禁用房间
// @Summary 启用/禁用房间
// @Tags 管理端-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body statusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/rooms/{id}/status [put]
func (h *AdminHandler) SetRoomStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.propertyService.SetRoomStatus(c.Request.Context(), id, *req.Active)
	handler.MustSucceed(c, err, nil)
}

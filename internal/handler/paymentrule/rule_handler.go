// Package paymentrule 提供支付规则管理的 HTTP Handler
package paymentrule

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	ruleService "github.com/dumeirei/smart-booking-backend/internal/service/paymentrule"
)

// Handler 支付规则处理器
type Handler struct {
	ruleService *ruleService.RuleService
	resolver    *ruleService.Resolver
}

// NewHandler 创建支付规则处理器
func NewHandler(ruleSvc *ruleService.RuleService, resolver *ruleService.Resolver) *Handler {
	return &Handler{
		ruleService: ruleSvc,
		resolver:    resolver,
	}
}

// CreateRule 创建支付规则
// @Summary 创建支付规则
// @Tags 管理端-支付规则
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ruleService.CreateRuleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.PaymentRule}
// @Router /admin/payment-rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req ruleService.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), adminID, &req)
	handler.MustSucceed(c, err, rule)
}

// GetRule 获取支付规则详情
// @Summary 获取支付规则详情
// @Tags 管理端-支付规则
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Success 200 {object} response.Response{data=models.PaymentRule}
// @Router /admin/payment-rules/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), id)
	handler.MustSucceed(c, err, rule)
}

// ListRules 获取支付规则列表
// @Summary 获取支付规则列表
// @Tags 管理端-支付规则
// @Produce json
// @Security Bearer
// @Param property_id query int false "物业ID"
// @Param rule_type query string false "规则类型"
// @Param is_active query bool false "是否启用"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := make(map[string]interface{})
	propertyID, ok := handler.ParseQueryID(c, "property_id", "物业")
	if !ok {
		return
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}
	if ruleType := c.Query("rule_type"); ruleType != "" {
		filters["rule_type"] = ruleType
	}
	if isActive := c.Query("is_active"); isActive != "" {
		filters["is_active"] = isActive == "true"
	}

	rules, total, err := h.ruleService.ListRules(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, rules, total, p.Page, p.PageSize)
}

// UpdateRule 更新支付规则
// @Summary 更新支付规则
// @Tags 管理端-支付规则
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Param request body ruleService.UpdateRuleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.PaymentRule}
// @Router /admin/payment-rules/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	var req ruleService.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, rule)
}

// UpdateStatusRequest 启用/停用请求
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UpdateStatus 启用/停用支付规则
// @Summary 启用/停用支付规则
// @Tags 管理端-支付规则
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Param request body UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.ruleService.SetActive(c.Request.Context(), id, *req.IsActive)
	handler.MustSucceed(c, err, nil)
}

// DeleteRule 删除支付规则
// @Summary 删除支付规则
// @Tags 管理端-支付规则
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	err := h.ruleService.DeleteRule(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "规则已删除", nil)
}

// AssignRoomRequest 绑定房间请求
type AssignRoomRequest struct {
	Version int64 `json:"version" binding:"required"`
}

// AssignRoom 绑定房间
// @Summary 将规则绑定到房间
// @Tags 管理端-支付规则
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Param room_id path int true "房间ID"
// @Param request body AssignRoomRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules/{id}/rooms/{room_id} [post]
func (h *Handler) AssignRoom(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}
	roomID, ok := handler.ParseParamID(c, "room_id", "房间")
	if !ok {
		return
	}

	var req AssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.ruleService.AssignRoom(c.Request.Context(), adminID, id, roomID, req.Version)
	handler.MustSucceed(c, err, nil)
}

// UnassignRoom 解绑房间
// @Summary 解除规则与房间的绑定
// @Tags 管理端-支付规则
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Param room_id path int true "房间ID"
// @Param version query int true "规则版本号"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules/{id}/rooms/{room_id} [delete]
func (h *Handler) UnassignRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}
	roomID, ok := handler.ParseParamID(c, "room_id", "房间")
	if !ok {
		return
	}
	version, ok := handler.ParseRequiredQueryID(c, "version", "版本")
	if !ok {
		return
	}

	err := h.ruleService.UnassignRoom(c.Request.Context(), id, roomID, version)
	handler.MustSucceed(c, err, nil)
}

// ListAssignments 获取规则绑定的房间
// @Summary 获取规则绑定的房间列表
// @Tags 管理端-支付规则
// @Produce json
// @Security Bearer
// @Param id path int true "规则ID"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules/{id}/rooms [get]
func (h *Handler) ListAssignments(c *gin.Context) {
	id, ok := handler.ParseID(c, "规则")
	if !ok {
		return
	}

	assignments, err := h.ruleService.ListAssignments(c.Request.Context(), id)
	handler.MustSucceed(c, err, assignments)
}

// ResolveRule 解析生效规则（预览）
// @Summary 解析指定房间与日期的生效规则
// @Tags 管理端-支付规则
// @Produce json
// @Security Bearer
// @Param property_id query int true "物业ID"
// @Param room_id query int true "房间ID"
// @Param checkin_date query string true "入住日期 (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=ruleService.Resolution}
// @Router /admin/payment-rules/resolve [get]
func (h *Handler) ResolveRule(c *gin.Context) {
	propertyID, ok := handler.ParseRequiredQueryID(c, "property_id", "物业")
	if !ok {
		return
	}
	roomID, ok := handler.ParseRequiredQueryID(c, "room_id", "房间")
	if !ok {
		return
	}
	checkin, err := handler.ParseDate(c.Query("checkin_date"))
	if err != nil {
		response.BadRequest(c, "无效的入住日期")
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), propertyID, roomID, checkin)
	handler.MustSucceed(c, err, resolution)
}

// PreviewScheduleRequest 付款计划预览请求
type PreviewScheduleRequest struct {
	PropertyID  int64     `json:"property_id" binding:"required"`
	RoomID      int64     `json:"room_id" binding:"required"`
	TotalPrice  float64   `json:"total_price" binding:"required,gt=0"`
	CheckinDate time.Time `json:"checkin_date" binding:"required"`
}

// PreviewSchedule 预览付款计划
// @Summary 按生效规则预览付款计划
// @Tags 管理端-支付规则
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body PreviewScheduleRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/payment-rules/preview [post]
func (h *Handler) PreviewSchedule(c *gin.Context) {
	var req PreviewScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), req.PropertyID, req.RoomID, req.CheckinDate)
	if handler.HandleError(c, err) {
		return
	}

	lines, err := ruleService.Expand(resolution.Rule, ruleService.BookingTerms{
		TotalPrice:  req.TotalPrice,
		BookingDate: time.Now(),
		CheckinDate: req.CheckinDate,
	})
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{
		"rule":   resolution.Rule,
		"source": resolution.Source,
		"lines":  lines,
	})
}

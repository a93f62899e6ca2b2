// Package booking 提供预订相关的 HTTP Handler
package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	bookingService "github.com/dumeirei/smart-booking-backend/internal/service/booking"
)

// Handler 预订处理器
type Handler struct {
	bookingService *bookingService.BookingService
}

// NewHandler 创建预订处理器
func NewHandler(bookingSvc *bookingService.BookingService) *Handler {
	return &Handler{
		bookingService: bookingSvc,
	}
}

// CreateBooking 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req bookingService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, booking)
}

// GetBooking 获取预订详情
// @Summary 获取预订详情（含付款计划）
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBookingForUser(c.Request.Context(), userID, id)
	handler.MustSucceed(c, err, booking)
}

// ListBookings 获取我的预订列表
// @Summary 获取我的预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	bookings, total, err := h.bookingService.ListUserBookings(c.Request.Context(), userID, p.GetOffset(), p.GetLimit(), status)
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// CancelBooking 取消预订
// @Summary 取消预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /bookings/{id}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	err := h.bookingService.CancelBooking(c.Request.Context(), userID, id)
	handler.MustSucceedWithMessage(c, err, "预订已取消", nil)
}

// PayScheduleItem 支付应付款项
// @Summary 支付付款计划中的一笔款项
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param item_id path int true "款项ID"
// @Success 200 {object} response.Response
// @Router /bookings/{id}/schedule/{item_id}/pay [post]
func (h *Handler) PayScheduleItem(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}
	itemID, ok := handler.ParseParamID(c, "item_id", "款项")
	if !ok {
		return
	}

	err := h.bookingService.PayScheduleItem(c.Request.Context(), userID, id, itemID)
	handler.MustSucceedWithMessage(c, err, "支付成功", nil)
}

// CheckinQRCode 获取入住核验二维码
// @Summary 获取入住核验二维码
// @Tags 预订
// @Produce png
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {file} binary
// @Router /bookings/{id}/qrcode [get]
func (h *Handler) CheckinQRCode(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	png, err := h.bookingService.CheckinQRCode(c.Request.Context(), userID, id)
	if handler.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// AdminHandler 预订处理器（管理端）
type AdminHandler struct {
	bookingService *bookingService.BookingService
}

// NewAdminHandler 创建管理端预订处理器
func NewAdminHandler(bookingSvc *bookingService.BookingService) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingSvc,
	}
}

// ListBookings 获取预订列表
// @Summary 获取预订列表
// @Tags 管理端-预订
// @Produce json
// @Security Bearer
// @Param property_id query int false "物业ID"
// @Param status query string false "状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := make(map[string]interface{})
	propertyID, ok := handler.ParseQueryID(c, "property_id", "物业")
	if !ok {
		return
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// GetBooking 获取预订详情
// @Summary 获取预订详情
// @Tags 管理端-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id} [get]
func (h *AdminHandler) GetBooking(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	handler.MustSucceed(c, err, booking)
}

// ConfirmBooking 确认预订
// @Summary 确认预订
// @Tags 管理端-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /admin/bookings/{id}/confirm [post]
func (h *AdminHandler) ConfirmBooking(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	err := h.bookingService.ConfirmBooking(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "预订已确认", nil)
}

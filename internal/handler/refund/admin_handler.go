package refund

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	refundService "github.com/dumeirei/smart-booking-backend/internal/service/refund"
)

// AdminHandler 退款审核处理器（管理端）
type AdminHandler struct {
	refundService   *refundService.RefundService
	commentService  *refundService.CommentService
	documentService *refundService.DocumentService
}

// NewAdminHandler 创建退款审核处理器
func NewAdminHandler(
	refundSvc *refundService.RefundService,
	commentSvc *refundService.CommentService,
	documentSvc *refundService.DocumentService,
) *AdminHandler {
	return &AdminHandler{
		refundService:   refundSvc,
		commentService:  commentSvc,
		documentService: documentSvc,
	}
}

// ListRefunds 获取退款申请列表
// @Summary 获取退款申请列表
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param booking_id query int false "预订ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /admin/refunds [get]
func (h *AdminHandler) ListRefunds(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订")
	if !ok {
		return
	}
	if bookingID != nil {
		filters["booking_id"] = *bookingID
	}

	requests, total, err := h.refundService.ListRefunds(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, requests, total, p.Page, p.PageSize)
}

// GetRefund 获取退款详情
// @Summary 获取退款详情
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /admin/refunds/{id} [get]
func (h *AdminHandler) GetRefund(c *gin.Context) {
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	request, err := h.refundService.GetRefund(c.Request.Context(), id)
	handler.MustSucceed(c, err, request)
}

// GetActivity 获取退款动态（含内部备注）
// @Summary 获取退款完整时间线
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response
// @Router /admin/refunds/{id}/activity [get]
func (h *AdminHandler) GetActivity(c *gin.Context) {
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	entries, err := h.refundService.Activity(c.Request.Context(), id, true)
	handler.MustSucceed(c, err, entries)
}

// TakeReview 领取审核
// @Summary 将退款申请转入审核中
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /admin/refunds/{id}/review [post]
func (h *AdminHandler) TakeReview(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	request, err := h.refundService.TakeReview(c.Request.Context(), adminID, id)
	handler.MustSucceed(c, err, request)
}

// Approve 批准退款
// @Summary 批准退款申请
// @Tags 管理端-退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param request body refundService.ApproveRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /admin/refunds/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	var req refundService.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	request, err := h.refundService.Approve(c.Request.Context(), adminID, id, &req)
	handler.MustSucceed(c, err, request)
}

// Reject 驳回退款
// @Summary 驳回退款申请
// @Tags 管理端-退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param request body refundService.RejectRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /admin/refunds/{id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	var req refundService.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	request, err := h.refundService.Reject(c.Request.Context(), adminID, id, &req)
	handler.MustSucceed(c, err, request)
}

// StartProcessing 发起打款
// @Summary 将已批准的退款提交退款渠道
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /admin/refunds/{id}/process [post]
func (h *AdminHandler) StartProcessing(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	request, err := h.refundService.StartProcessing(c.Request.Context(), adminID, id)
	handler.MustSucceed(c, err, request)
}

// AddComment 添加留言（可标记内部备注）
// @Summary 管理员在退款申请下留言
// @Tags 管理端-退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param request body refundService.AddCommentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RefundComment}
// @Router /admin/refunds/{id}/comments [post]
func (h *AdminHandler) AddComment(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	var req refundService.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), adminID, models.RefundActorAdmin, id, &req)
	handler.MustSucceed(c, err, comment)
}

// ListComments 获取留言列表（含内部备注）
// @Summary 获取退款申请的全部留言
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response
// @Router /admin/refunds/{id}/comments [get]
func (h *AdminHandler) ListComments(c *gin.Context) {
	id, ok := handler.ParseID(c, "退款")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), id, true)
	handler.MustSucceed(c, err, comments)
}

// VerifyDocument 核验凭证
// @Summary 核验退款凭证
// @Tags 管理端-退款
// @Produce json
// @Security Bearer
// @Param doc_id path int true "凭证ID"
// @Success 200 {object} response.Response{data=models.RefundDocument}
// @Router /admin/refunds/documents/{doc_id}/verify [post]
func (h *AdminHandler) VerifyDocument(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	docID, ok := handler.ParseParamID(c, "doc_id", "凭证")
	if !ok {
		return
	}

	doc, err := h.documentService.VerifyDocument(c.Request.Context(), adminID, docID)
	handler.MustSucceed(c, err, doc)
}

// Package refund 提供退款相关的 HTTP Handler
package refund

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	refundService "github.com/dumeirei/smart-booking-backend/internal/service/refund"
)

// Handler 退款处理器（用户端）
type Handler struct {
	refundService   *refundService.RefundService
	commentService  *refundService.CommentService
	documentService *refundService.DocumentService
}

// NewHandler 创建退款处理器
func NewHandler(
	refundSvc *refundService.RefundService,
	commentSvc *refundService.CommentService,
	documentSvc *refundService.DocumentService,
) *Handler {
	return &Handler{
		refundService:   refundSvc,
		commentService:  commentSvc,
		documentService: documentSvc,
	}
}

// CreateRefund 提交退款申请
// @Summary 提交退款申请
// @Tags 退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body refundService.CreateRefundRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /refunds [post]
func (h *Handler) CreateRefund(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req refundService.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	request, err := h.refundService.CreateRefund(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, request)
}

// GetRefund 获取退款详情
// @Summary 获取退款详情
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response{data=models.RefundRequest}
// @Router /refunds/{id} [get]
func (h *Handler) GetRefund(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "退款")
	if !ok {
		return
	}

	request, err := h.refundService.GetRefundForUser(c.Request.Context(), userID, id)
	handler.MustSucceed(c, err, request)
}

// ListRefunds 获取我的退款列表
// @Summary 获取我的退款列表
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response
// @Router /refunds [get]
func (h *Handler) ListRefunds(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	requests, total, err := h.refundService.ListUserRefunds(c.Request.Context(), userID, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, requests, total, p.Page, p.PageSize)
}

// GetActivity 获取退款动态
// @Summary 获取退款状态变更与留言的合并时间线
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response
// @Router /refunds/{id}/activity [get]
func (h *Handler) GetActivity(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "退款")
	if !ok {
		return
	}

	// 校验归属后再返回时间线（不含内部备注）
	if _, err := h.refundService.GetRefundForUser(c.Request.Context(), userID, id); handler.HandleError(c, err) {
		return
	}

	entries, err := h.refundService.Activity(c.Request.Context(), id, false)
	handler.MustSucceed(c, err, entries)
}

// AddComment 添加留言
// @Summary 在退款申请下留言
// @Tags 退款
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param request body refundService.AddCommentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.RefundComment}
// @Router /refunds/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "退款")
	if !ok {
		return
	}

	var req refundService.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), userID, models.RefundActorUser, id, &req)
	handler.MustSucceed(c, err, comment)
}

// ListComments 获取留言列表
// @Summary 获取退款申请的留言列表
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response
// @Router /refunds/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "退款")
	if !ok {
		return
	}

	if _, err := h.refundService.GetRefundForUser(c.Request.Context(), userID, id); handler.HandleError(c, err) {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), id, false)
	handler.MustSucceed(c, err, comments)
}

// UploadDocument 上传退款凭证
// @Summary 上传退款凭证
// @Tags 退款
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param file formData file true "凭证文件"
// @Success 200 {object} response.Response{data=models.RefundDocument}
// @Router /refunds/{id}/documents [post]
func (h *Handler) UploadDocument(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "退款")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "文件读取失败")
		return
	}
	defer file.Close()

	doc, err := h.documentService.UploadDocument(
		c.Request.Context(), userID, id, fileHeader.Filename, fileHeader.Size, file)
	handler.MustSucceed(c, err, doc)
}

// ListDocuments 获取凭证列表
// @Summary 获取退款凭证列表
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Success 200 {object} response.Response
// @Router /refunds/{id}/documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	userID, id, ok := handler.RequireUserAndParseID(c, "退款")
	if !ok {
		return
	}

	if _, err := h.refundService.GetRefundForUser(c.Request.Context(), userID, id); handler.HandleError(c, err) {
		return
	}

	docs, err := h.documentService.ListDocuments(c.Request.Context(), id)
	handler.MustSucceed(c, err, docs)
}

// DeleteDocument 删除退款凭证
// @Summary 删除本人上传且未核验的凭证
// @Tags 退款
// @Produce json
// @Security Bearer
// @Param id path int true "退款ID"
// @Param doc_id path int true "凭证ID"
// @Success 200 {object} response.Response
// @Router /refunds/{id}/documents/{doc_id} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	docID, ok := handler.ParseParamID(c, "doc_id", "凭证")
	if !ok {
		return
	}

	err := h.documentService.DeleteDocument(c.Request.Context(), userID, docID)
	handler.MustSucceedWithMessage(c, err, "凭证已删除", nil)
}

package refund

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/handler"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	refundService "github.com/dumeirei/smart-booking-backend/internal/service/refund"
)

// CallbackHandler 退款渠道回调处理器
type CallbackHandler struct {
	refundService *refundService.RefundService
}

// NewCallbackHandler 创建回调处理器
func NewCallbackHandler(refundSvc *refundService.RefundService) *CallbackHandler {
	return &CallbackHandler{
		refundService: refundSvc,
	}
}

// GatewayNotify 退款渠道异步通知
// @Summary 退款渠道异步通知
// @Tags 回调
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /callback/refund [post]
func (h *CallbackHandler) GatewayNotify(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "读取通知内容失败")
		return
	}

	if err := h.refundService.HandleGatewayNotify(c.Request.Context(), payload); err != nil {
		logger.Error("处理退款回调失败", logger.Err(err))
		handler.HandleError(c, err)
		return
	}

	response.Success(c, nil)
}

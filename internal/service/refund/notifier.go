package refund

import "github.com/dumeirei/smart-booking-backend/internal/models"

// Notifier 退款事件触达接口
// 实现方负责异步与降级，调用方不关心触达结果。
type Notifier interface {
	RefundStatusChanged(request *models.RefundRequest, fromStatus, toStatus string)
	RefundCommentAdded(request *models.RefundRequest, comment *models.RefundComment)
}

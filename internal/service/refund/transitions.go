// Package refund 提供退款申请的生命周期管理
package refund

import "github.com/dumeirei/smart-booking-backend/internal/models"

// 状态机事件
const (
	EventSubmit          = "submit"
	EventTakeReview      = "take_review"
	EventApprove         = "approve"
	EventReject          = "reject"
	EventStartProcessing = "start_processing"
	EventComplete        = "complete"
	EventFail            = "fail"
)

type transitionKey struct {
	status string
	event  string
}

// transitions 退款状态机
// rejected / completed / failed 为终态，终态不出现在键中。
var transitions = map[transitionKey]string{
	{models.RefundStatusRequested, EventTakeReview}:     models.RefundStatusUnderReview,
	{models.RefundStatusUnderReview, EventApprove}:      models.RefundStatusApproved,
	{models.RefundStatusUnderReview, EventReject}:       models.RefundStatusRejected,
	{models.RefundStatusApproved, EventStartProcessing}: models.RefundStatusProcessing,
	{models.RefundStatusProcessing, EventComplete}:      models.RefundStatusCompleted,
	{models.RefundStatusProcessing, EventFail}:          models.RefundStatusFailed,
}

// nextStatus 查询状态机，返回事件触发后的目标状态
func nextStatus(status, event string) (string, bool) {
	next, ok := transitions[transitionKey{status: status, event: event}]
	return next, ok
}

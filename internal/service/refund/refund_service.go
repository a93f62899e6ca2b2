package refund

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	"github.com/dumeirei/smart-booking-backend/internal/common/utils"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	"github.com/dumeirei/smart-booking-backend/pkg/paymentgw"
)

// RefundService 退款申请服务
type RefundService struct {
	refundRepo  *repository.RefundRepository
	commentRepo *repository.RefundCommentRepository
	bookingRepo *repository.BookingRepository
	gateway     paymentgw.Gateway
	provider    string
	notifier    Notifier
}

// NewRefundService 创建退款申请服务
func NewRefundService(
	refundRepo *repository.RefundRepository,
	commentRepo *repository.RefundCommentRepository,
	bookingRepo *repository.BookingRepository,
	gateway paymentgw.Gateway,
	provider string,
	notifier Notifier,
) *RefundService {
	if provider == "" {
		provider = "sandbox"
	}
	return &RefundService{
		refundRepo:  refundRepo,
		commentRepo: commentRepo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		provider:    provider,
		notifier:    notifier,
	}
}

// CreateRefundRequest 提交退款申请请求
type CreateRefundRequest struct {
	BookingID       int64   `json:"booking_id" binding:"required"`
	Reason          string  `json:"reason" binding:"required,max=255"`
	RequestedAmount float64 `json:"requested_amount" binding:"required"`
}

// CreateRefund 用户提交退款申请
// 同一预订同时只允许一条进行中的申请，申请金额不得超过已付金额。
func (s *RefundService) CreateRefund(ctx context.Context, userID int64, req *CreateRefundRequest) (*models.RefundRequest, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.UserID != userID {
		return nil, errors.ErrBookingNotOwned
	}

	exists, err := s.refundRepo.ExistsActiveByBooking(ctx, booking.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrRefundDuplicate
	}

	if req.RequestedAmount <= 0 {
		return nil, errors.ErrRefundAmountInvalid
	}
	paid, err := s.bookingRepo.SumPaidAmount(ctx, booking.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if req.RequestedAmount > paid {
		return nil, errors.ErrRefundAmountExceed
	}

	request := &models.RefundRequest{
		RequestNo:       utils.GenerateOrderNo("RF"),
		BookingID:       booking.ID,
		RequesterID:     userID,
		Status:          models.RefundStatusRequested,
		Reason:          req.Reason,
		RequestedAmount: utils.RoundMoney(req.RequestedAmount),
	}
	history := &models.RefundStatusHistory{
		FromStatus: models.RefundStatusRequested,
		ToStatus:   models.RefundStatusRequested,
		Event:      EventSubmit,
		ActorID:    userID,
		ActorType:  models.RefundActorUser,
	}
	if err := s.refundRepo.Create(ctx, request, history); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.refreshActiveGauge(ctx)
	if s.notifier != nil {
		s.notifier.RefundStatusChanged(request, models.RefundStatusRequested, models.RefundStatusRequested)
	}
	logger.Info("退款申请已提交",
		logger.RefundID(request.ID),
		logger.BookingID(booking.ID),
		logger.UserID(userID),
	)
	return request, nil
}

// GetRefund 获取退款申请详情（管理端）
func (s *RefundService) GetRefund(ctx context.Context, id int64) (*models.RefundRequest, error) {
	request, err := s.refundRepo.GetByIDWithDetails(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return request, nil
}

// GetRefundForUser 获取退款申请详情，校验归属
func (s *RefundService) GetRefundForUser(ctx context.Context, userID, id int64) (*models.RefundRequest, error) {
	request, err := s.GetRefund(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != userID {
		return nil, errors.ErrRefundNotFound
	}
	return request, nil
}

// ListRefunds 获取退款申请列表（管理端）
func (s *RefundService) ListRefunds(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.RefundRequest, int64, error) {
	requests, total, err := s.refundRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return requests, total, nil
}

// ListUserRefunds 获取用户自己的退款申请列表
func (s *RefundService) ListUserRefunds(ctx context.Context, userID int64, offset, limit int) ([]*models.RefundRequest, int64, error) {
	return s.ListRefunds(ctx, offset, limit, map[string]interface{}{"requester_id": userID})
}

// TakeReview 管理员领取审核
func (s *RefundService) TakeReview(ctx context.Context, adminID, id int64) (*models.RefundRequest, error) {
	now := time.Now()
	return s.transition(ctx, id, EventTakeReview, adminID, models.RefundActorAdmin, map[string]interface{}{
		"reviewed_by": adminID,
		"reviewed_at": now,
	}, nil)
}

// ApproveRequest 批准退款请求
type ApproveRequest struct {
	ApprovedAmount float64 `json:"approved_amount" binding:"required"`
	Note           *string `json:"note,omitempty"`
}

// Approve 批准退款
// 批准金额必须为正且不超过申请金额。
func (s *RefundService) Approve(ctx context.Context, adminID, id int64, req *ApproveRequest) (*models.RefundRequest, error) {
	request, err := s.GetRefund(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ApprovedAmount <= 0 {
		return nil, errors.ErrRefundAmountInvalid
	}
	if req.ApprovedAmount > request.RequestedAmount {
		return nil, errors.ErrRefundAmountExceed
	}

	now := time.Now()
	return s.transition(ctx, id, EventApprove, adminID, models.RefundActorAdmin, map[string]interface{}{
		"approved_amount": utils.RoundMoney(req.ApprovedAmount),
		"reviewed_by":     adminID,
		"reviewed_at":     now,
	}, req.Note)
}

// RejectRequest 驳回退款请求
type RejectRequest struct {
	ReviewNotes string `json:"review_notes" binding:"required,max=500"`
}

// Reject 驳回退款，必须填写审核意见
func (s *RefundService) Reject(ctx context.Context, adminID, id int64, req *RejectRequest) (*models.RefundRequest, error) {
	if req.ReviewNotes == "" {
		return nil, errors.ErrInvalidParams.WithMessage("驳回必须填写审核意见")
	}

	now := time.Now()
	return s.transition(ctx, id, EventReject, adminID, models.RefundActorAdmin, map[string]interface{}{
		"review_notes": req.ReviewNotes,
		"reviewed_by":  adminID,
		"reviewed_at":  now,
	}, &req.ReviewNotes)
}

// StartProcessing 发起渠道退款
// 先落库推进到 processing，事务提交后再调用渠道；
// 渠道同步失败时以系统身份推进到 failed。
func (s *RefundService) StartProcessing(ctx context.Context, adminID, id int64) (*models.RefundRequest, error) {
	request, err := s.transition(ctx, id, EventStartProcessing, adminID, models.RefundActorAdmin, nil, nil)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, request.BookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	amount := request.RequestedAmount
	if request.ApprovedAmount != nil {
		amount = *request.ApprovedAmount
	}
	receipt, err := s.gateway.SubmitRefund(ctx, &paymentgw.RefundOrder{
		RequestNo: request.RequestNo,
		BookingNo: booking.BookingNo,
		Amount:    amount,
		Reason:    request.Reason,
	})
	if err != nil {
		metrics.GetMetrics().RecordRefundGatewayCall(s.provider, "error")
		logger.Error("渠道退款提交失败",
			logger.RefundID(request.ID),
			logger.Err(err),
		)
		reason := err.Error()
		if _, failErr := s.transition(ctx, id, EventFail, 0, models.RefundActorSystem, map[string]interface{}{
			"failure_reason": reason,
		}, &reason); failErr != nil {
			logger.Error("渠道失败后状态推进失败", logger.RefundID(request.ID), logger.Err(failErr))
		}
		return nil, errors.ErrRefundGatewayFailed.WithError(err)
	}

	metrics.GetMetrics().RecordRefundGatewayCall(s.provider, receipt.Status)
	logger.Info("渠道退款已受理",
		logger.RefundID(request.ID),
		logger.String("provider_refund_id", receipt.ProviderRefundID),
	)
	return s.GetRefund(ctx, id)
}

// HandleGatewayNotify 处理渠道异步回调，以系统身份完成终态流转
func (s *RefundService) HandleGatewayNotify(ctx context.Context, payload []byte) error {
	result, err := s.gateway.ParseNotify(payload)
	if err != nil {
		return errors.ErrInvalidParams.WithError(err)
	}

	request, err := s.refundRepo.GetByRequestNo(ctx, result.RequestNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRefundNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	switch result.Status {
	case paymentgw.GatewayStatusSuccess:
		if result.RefundedAmount <= 0 {
			return errors.ErrRefundAmountInvalid
		}
		if result.CreditMemoID == "" {
			return errors.ErrInvalidParams.WithMessage("回调缺少 credit_memo_id")
		}
		now := time.Now()
		_, err = s.transition(ctx, request.ID, EventComplete, 0, models.RefundActorSystem, map[string]interface{}{
			"refunded_amount": utils.RoundMoney(result.RefundedAmount),
			"credit_memo_id":  result.CreditMemoID,
			"completed_at":    now,
		}, nil)
		return err
	case paymentgw.GatewayStatusFailed:
		if result.FailureReason == "" {
			return errors.ErrInvalidParams.WithMessage("回调缺少 failure_reason")
		}
		_, err = s.transition(ctx, request.ID, EventFail, 0, models.RefundActorSystem, map[string]interface{}{
			"failure_reason": result.FailureReason,
		}, &result.FailureReason)
		return err
	}
	return errors.ErrInvalidParams.WithMessage("未知的回调状态")
}

// transition 推进状态机：CAS 更新 + 流转记录同事务写入
// 并发冲突统一按非法流转处理，调用方重新拉取最新状态即可。
func (s *RefundService) transition(ctx context.Context, id int64, event string, actorID int64, actorType string, fields map[string]interface{}, note *string) (*models.RefundRequest, error) {
	request, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	next, ok := nextStatus(request.Status, event)
	if !ok {
		return nil, errors.NewInvalidTransition(request.Status, event)
	}

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["status"] = next
	history := &models.RefundStatusHistory{
		FromStatus: request.Status,
		ToStatus:   next,
		Event:      event,
		ActorID:    actorID,
		ActorType:  actorType,
		Note:       note,
	}

	if err := s.refundRepo.Transition(ctx, id, request.Status, fields, history); err != nil {
		if err == gorm.ErrRecordNotFound {
			current, getErr := s.refundRepo.GetByID(ctx, id)
			if getErr == nil {
				return nil, errors.NewInvalidTransition(current.Status, event)
			}
			return nil, errors.NewInvalidTransition(request.Status, event)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	metrics.GetMetrics().RecordRefundTransition(request.Status, next)
	s.refreshActiveGauge(ctx)

	updated, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if s.notifier != nil {
		s.notifier.RefundStatusChanged(updated, request.Status, next)
	}
	logger.Info("退款状态已流转",
		logger.RefundID(id),
		logger.String("from", request.Status),
		logger.String("to", next),
		logger.String("event", event),
	)
	return updated, nil
}

func (s *RefundService) refreshActiveGauge(ctx context.Context) {
	if count, err := s.refundRepo.CountActive(ctx); err == nil {
		metrics.GetMetrics().SetActiveRefunds(float64(count))
	}
}

// ActivityEntry 活动流水条目
type ActivityEntry struct {
	Type       string    `json:"type"` // status_change / comment
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    int64     `json:"actor_id"`
	ActorType  string    `json:"actor_type"`

	// status_change 字段
	FromStatus string  `json:"from_status,omitempty"`
	ToStatus   string  `json:"to_status,omitempty"`
	Event      string  `json:"event,omitempty"`
	Note       *string `json:"note,omitempty"`

	// comment 字段
	Content    string `json:"content,omitempty"`
	IsInternal bool   `json:"is_internal,omitempty"`
}

// 活动条目类型
const (
	ActivityStatusChange = "status_change"
	ActivityComment      = "comment"
)

// Activity 获取退款申请的活动流水
// 状态流转与留言合并为一条时间线，最新在前；includeInternal 控制内部备注可见性。
func (s *RefundService) Activity(ctx context.Context, id int64, includeInternal bool) ([]ActivityEntry, error) {
	if _, err := s.GetRefund(ctx, id); err != nil {
		return nil, err
	}

	history, err := s.refundRepo.ListHistory(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	comments, err := s.commentRepo.ListByRequest(ctx, id, includeInternal)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	entries := make([]ActivityEntry, 0, len(history)+len(comments))
	for _, h := range history {
		entries = append(entries, ActivityEntry{
			Type:       ActivityStatusChange,
			OccurredAt: h.CreatedAt,
			ActorID:    h.ActorID,
			ActorType:  h.ActorType,
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Event:      h.Event,
			Note:       h.Note,
		})
	}
	for _, c := range comments {
		entries = append(entries, ActivityEntry{
			Type:       ActivityComment,
			OccurredAt: c.CreatedAt,
			ActorID:    c.AuthorID,
			ActorType:  c.AuthorType,
			Content:    c.Content,
			IsInternal: c.IsInternal,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	return entries, nil
}

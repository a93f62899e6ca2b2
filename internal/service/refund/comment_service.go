package refund

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

// CommentService 退款留言服务
// 留言创建后不可修改、不可删除。
type CommentService struct {
	commentRepo *repository.RefundCommentRepository
	refundRepo  *repository.RefundRepository
	notifier    Notifier
}

// NewCommentService 创建退款留言服务
func NewCommentService(
	commentRepo *repository.RefundCommentRepository,
	refundRepo *repository.RefundRepository,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		refundRepo:  refundRepo,
		notifier:    notifier,
	}
}

// AddCommentRequest 新增留言请求
type AddCommentRequest struct {
	Content    string `json:"content" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

// AddComment 新增留言
// is_internal 仅管理员可用，用户留言一律公开。
func (s *CommentService) AddComment(ctx context.Context, authorID int64, authorType string, requestID int64, req *AddCommentRequest) (*models.RefundComment, error) {
	request, err := s.refundRepo.GetByID(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if authorType == models.RefundActorUser && request.RequesterID != authorID {
		return nil, errors.ErrRefundNotFound
	}

	if req.Content == "" {
		return nil, errors.ErrInvalidParams.WithMessage("留言内容不能为空")
	}
	if len([]rune(req.Content)) > models.RefundCommentMaxLength {
		return nil, errors.ErrRefundCommentTooLong
	}

	isInternal := req.IsInternal
	if authorType != models.RefundActorAdmin {
		isInternal = false
	}

	comment := &models.RefundComment{
		RequestID:  requestID,
		AuthorID:   authorID,
		AuthorType: authorType,
		Content:    req.Content,
		IsInternal: isInternal,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if s.notifier != nil {
		s.notifier.RefundCommentAdded(request, comment)
	}
	return comment, nil
}

// ListComments 获取留言列表，最新在前
// includeInternal 为 false 时过滤内部备注（用户视图）。
func (s *CommentService) ListComments(ctx context.Context, requestID int64, includeInternal bool) ([]*models.RefundComment, error) {
	if _, err := s.refundRepo.GetByID(ctx, requestID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	comments, err := s.commentRepo.ListByRequest(ctx, requestID, includeInternal)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return comments, nil
}

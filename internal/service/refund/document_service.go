package refund

import (
	"context"
	"io"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	"github.com/dumeirei/smart-booking-backend/pkg/oss"
)

// DocumentService 退款凭证服务
type DocumentService struct {
	docRepo      *repository.RefundDocumentRepository
	refundRepo   *repository.RefundRepository
	uploader     oss.Uploader
	maxDocuments int
	maxSize      int64
}

// NewDocumentService 创建退款凭证服务
func NewDocumentService(
	docRepo *repository.RefundDocumentRepository,
	refundRepo *repository.RefundRepository,
	uploader oss.Uploader,
	maxDocuments int,
	maxSize int64,
) *DocumentService {
	if maxDocuments <= 0 {
		maxDocuments = 10
	}
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &DocumentService{
		docRepo:      docRepo,
		refundRepo:   refundRepo,
		uploader:     uploader,
		maxDocuments: maxDocuments,
		maxSize:      maxSize,
	}
}

// UploadDocument 上传退款凭证
// 终态申请不再接收新凭证。
func (s *DocumentService) UploadDocument(ctx context.Context, uploaderID, requestID int64, fileName string, fileSize int64, reader io.Reader) (*models.RefundDocument, error) {
	request, err := s.refundRepo.GetByID(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if models.RefundStatusTerminal(request.Status) {
		return nil, errors.NewInvalidTransition(request.Status, "upload_document")
	}

	if fileSize <= 0 || fileSize > s.maxSize {
		return nil, errors.ErrInvalidParams.WithMessage("文件大小超出限制")
	}
	count, err := s.docRepo.CountByRequest(ctx, requestID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if count >= int64(s.maxDocuments) {
		return nil, errors.ErrInvalidParams.WithMessage("凭证数量已达上限")
	}

	objectKey := oss.GenerateObjectKey("refund", fileName)
	fileURL, err := s.uploader.Upload(ctx, objectKey, reader)
	if err != nil {
		return nil, errors.ErrExternalService.WithError(err)
	}

	doc := &models.RefundDocument{
		RequestID:  requestID,
		UploaderID: uploaderID,
		FileName:   fileName,
		FileURL:    fileURL,
		FileSize:   fileSize,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("退款凭证已上传",
		logger.RefundID(requestID),
		logger.UserID(uploaderID),
		logger.String("file_name", fileName),
	)
	return doc, nil
}

// ListDocuments 获取凭证列表
func (s *DocumentService) ListDocuments(ctx context.Context, requestID int64) ([]*models.RefundDocument, error) {
	docs, err := s.docRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return docs, nil
}

// CanDelete 判断凭证是否可被指定用户删除：仅上传者本人且未核验
func CanDelete(doc *models.RefundDocument, userID int64) bool {
	return doc.UploaderID == userID && !doc.IsVerified
}

// DeleteDocument 删除凭证（软删除）
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, docID int64) error {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRefundDocumentNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if doc.UploaderID != userID {
		return errors.ErrRefundDocumentNotOwned
	}
	if doc.IsVerified {
		return errors.ErrRefundDocumentLocked
	}

	if err := s.docRepo.SoftDelete(ctx, doc.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			// 并发核验抢先，按已锁定处理
			return errors.ErrRefundDocumentLocked
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// VerifyDocument 管理员核验凭证，核验后凭证不可删除
func (s *DocumentService) VerifyDocument(ctx context.Context, adminID, docID int64) (*models.RefundDocument, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRefundDocumentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if doc.IsVerified {
		return doc, nil
	}

	if err := s.docRepo.Verify(ctx, doc.ID, adminID); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("退款凭证已核验",
		logger.RefundID(doc.RequestID),
		logger.AdminID(adminID),
	)
	return s.docRepo.GetByID(ctx, doc.ID)
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

func newTestDocument(requestID, uploaderID int64) *models.RefundDocument {
	return &models.RefundDocument{
		RequestID:  requestID,
		UploaderID: uploaderID,
		FileName:   "receipt.pdf",
		FileURL:    "https://oss.example.com/refund/receipt.pdf",
		FileSize:   10240,
	}
}

func TestRefundDocumentRepository_CreateAndList(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRefundDocumentRepository(db)
	ctx := context.Background()

	doc := newTestDocument(1, 1)
	require.NoError(t, repo.Create(ctx, doc))
	assert.NotZero(t, doc.ID)

	docs, err := repo.ListByRequest(ctx, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "receipt.pdf", docs[0].FileName)
	assert.False(t, docs[0].IsVerified)
}

func TestRefundDocumentRepository_Verify(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRefundDocumentRepository(db)
	ctx := context.Background()

	doc := newTestDocument(1, 1)
	require.NoError(t, repo.Create(ctx, doc))

	err := repo.Verify(ctx, doc.ID, 2)
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, found.IsVerified)
	require.NotNil(t, found.VerifiedBy)
	assert.Equal(t, int64(2), *found.VerifiedBy)
	assert.NotNil(t, found.VerifiedAt)
}

func TestRefundDocumentRepository_SoftDelete(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRefundDocumentRepository(db)
	ctx := context.Background()

	doc := newTestDocument(1, 1)
	require.NoError(t, repo.Create(ctx, doc))

	require.NoError(t, repo.SoftDelete(ctx, doc.ID))

	_, err := repo.GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	docs, err := repo.ListByRequest(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRefundDocumentRepository_SoftDelete_VerifiedBlocked(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRefundDocumentRepository(db)
	ctx := context.Background()

	doc := newTestDocument(1, 1)
	require.NoError(t, repo.Create(ctx, doc))
	require.NoError(t, repo.Verify(ctx, doc.ID, 2))

	// 已核验的凭证不允许删除
	err := repo.SoftDelete(ctx, doc.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, found.DeletedAt)
}

func TestRefundDocumentRepository_CountByRequest(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRefundDocumentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestDocument(1, 1)))
	require.NoError(t, repo.Create(ctx, newTestDocument(1, 1)))

	count, err := repo.CountByRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

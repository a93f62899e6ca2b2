package models

import (
	"time"
)

// RefundRequest 退款申请模型
// 记录只追加不覆盖：状态推进时填充新字段，已有金额不会被改写。
type RefundRequest struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_no"`
	BookingID       int64      `gorm:"index;not null" json:"booking_id"`
	RequesterID     int64      `gorm:"index;not null" json:"requester_id"`
	Status          string     `gorm:"type:varchar(20);not null;default:'requested'" json:"status"`
	Reason          string     `gorm:"type:varchar(255);not null" json:"reason"`
	RequestedAmount float64    `gorm:"type:decimal(10,2);not null" json:"requested_amount"`
	ApprovedAmount  *float64   `gorm:"type:decimal(10,2)" json:"approved_amount,omitempty"`
	RefundedAmount  *float64   `gorm:"type:decimal(10,2)" json:"refunded_amount,omitempty"`
	ReviewNotes     *string    `gorm:"type:varchar(500)" json:"review_notes,omitempty"`
	FailureReason   *string    `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	CreditMemoID    *string    `gorm:"type:varchar(64)" json:"credit_memo_id,omitempty"`
	ReviewedBy      *int64     `gorm:"index" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Booking   *Booking         `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	Requester *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Reviewer  *Admin           `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	History   []RefundStatusHistory `gorm:"foreignKey:RequestID" json:"history,omitempty"`
	Comments  []RefundComment  `gorm:"foreignKey:RequestID" json:"comments,omitempty"`
	Documents []RefundDocument `gorm:"foreignKey:RequestID" json:"documents,omitempty"`
}

// TableName 表名
func (RefundRequest) TableName() string {
	return "refund_requests"
}

// RefundStatus 退款申请状态
const (
	RefundStatusRequested   = "requested"    // 已提交
	RefundStatusUnderReview = "under_review" // 审核中
	RefundStatusApproved    = "approved"     // 已批准
	RefundStatusRejected    = "rejected"     // 已拒绝（终态）
	RefundStatusProcessing  = "processing"   // 渠道退款中
	RefundStatusCompleted   = "completed"    // 已完成（终态）
	RefundStatusFailed      = "failed"       // 退款失败（终态）
)

// RefundStatusTerminal 判断是否为终态
func RefundStatusTerminal(status string) bool {
	return status == RefundStatusRejected ||
		status == RefundStatusCompleted ||
		status == RefundStatusFailed
}

// RefundStatusHistory 退款状态流转记录（只追加）
type RefundStatusHistory struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID  int64     `gorm:"index;not null" json:"request_id"`
	FromStatus string    `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(20);not null" json:"to_status"`
	Event      string    `gorm:"type:varchar(30);not null" json:"event"`
	ActorID    int64     `gorm:"not null" json:"actor_id"`
	ActorType  string    `gorm:"type:varchar(10);not null" json:"actor_type"`
	Note       *string   `gorm:"type:varchar(500)" json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Request *RefundRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

// TableName 表名
func (RefundStatusHistory) TableName() string {
	return "refund_status_histories"
}

// RefundActorType 操作人类型
const (
	RefundActorUser   = "user"   // 用户
	RefundActorAdmin  = "admin"  // 管理员
	RefundActorSystem = "system" // 系统（渠道回调）
)

// RefundComment 退款留言（创建后不可修改）
type RefundComment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID  int64     `gorm:"index;not null" json:"request_id"`
	AuthorID   int64     `gorm:"not null" json:"author_id"`
	AuthorType string    `gorm:"type:varchar(10);not null" json:"author_type"`
	Content    string    `gorm:"type:varchar(2000);not null" json:"content"`
	IsInternal bool      `gorm:"not null;default:false" json:"is_internal"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Request *RefundRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

// TableName 表名
func (RefundComment) TableName() string {
	return "refund_comments"
}

// RefundCommentMaxLength 留言内容长度上限
const RefundCommentMaxLength = 2000

// RefundDocument 退款凭证文件
type RefundDocument struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID  int64      `gorm:"index;not null" json:"request_id"`
	UploaderID int64      `gorm:"not null" json:"uploader_id"`
	FileName   string     `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL    string     `gorm:"type:varchar(500);not null" json:"file_url"`
	FileSize   int64      `gorm:"not null;default:0" json:"file_size"`
	IsVerified bool       `gorm:"not null;default:false" json:"is_verified"`
	VerifiedBy *int64     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	DeletedAt  *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Request *RefundRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

// TableName 表名
func (RefundDocument) TableName() string {
	return "refund_documents"
}

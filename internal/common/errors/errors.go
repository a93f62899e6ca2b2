// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
	"strings"
)

// AppError 应用错误
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Details: e.Details,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Err:     err,
	}
}

// WithDetails 附加结构化错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Err:     e.Err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
	ErrConcurrentEdit  = New(1010, "数据已被其他操作修改，请刷新后重试")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrTokenRefreshFail = New(2003, "刷新令牌失败")
	ErrPermissionDenied = New(2004, "权限不足")
	ErrAccountDisabled  = New(2005, "账号已禁用")
	ErrPasswordError    = New(2006, "密码错误")
	ErrSmsSendFail      = New(2007, "短信发送失败")
	ErrSmsCodeError     = New(2008, "验证码错误或已过期")
	ErrPhoneInvalid     = New(2009, "手机号格式不正确")
	ErrUserNotFound     = New(2010, "用户不存在")
)

// 物业/房间错误码 (3000-3999)
var (
	ErrPropertyNotFound = New(3000, "物业不存在")
	ErrPropertyDisabled = New(3001, "物业已禁用")
	ErrRoomNotFound     = New(3002, "房间不存在")
	ErrRoomDisabled     = New(3003, "房间已禁用")
	ErrRoomNotInProperty = New(3004, "房间不属于该物业")
)

// 预订错误码 (4000-4999)
var (
	ErrBookingNotFound    = New(4000, "预订不存在")
	ErrBookingStatusError = New(4001, "预订状态异常")
	ErrBookingCancelled   = New(4002, "预订已取消")
	ErrBookingDateInvalid = New(4003, "入住/退房日期无效")
	ErrBookingNotOwned    = New(4004, "无权访问该预订")
)

// 支付规则错误码 (5000-5999)
var (
	ErrRuleNotFound      = New(5000, "支付规则不存在")
	ErrRuleValidation    = New(5001, "支付规则校验失败")
	ErrRuleEditLocked    = New(5002, "规则已被房间引用，无法进行结构性修改")
	ErrRuleTypeInvalid   = New(5003, "无效的规则类型")
	ErrRuleAssignExists  = New(5004, "房间已绑定该规则")
	ErrRuleAssignMissing = New(5005, "房间未绑定该规则")
	ErrRuleVersionStale  = New(5006, "规则已被其他操作修改，请刷新后重试")
)

// 退款错误码 (6000-6999)
var (
	ErrRefundNotFound          = New(6000, "退款申请不存在")
	ErrRefundInvalidTransition = New(6001, "当前状态不允许该操作")
	ErrRefundAmountInvalid     = New(6002, "退款金额无效")
	ErrRefundAmountExceed      = New(6003, "退款金额超出可退上限")
	ErrRefundDuplicate         = New(6004, "该预订已有进行中的退款申请")
	ErrRefundCommentTooLong    = New(6005, "留言内容超出长度上限")
	ErrRefundDocumentNotFound  = New(6006, "退款凭证不存在")
	ErrRefundDocumentLocked    = New(6007, "凭证已核验，无法删除")
	ErrRefundDocumentNotOwned  = New(6008, "只能删除本人上传的凭证")
	ErrRefundGatewayFailed     = New(6009, "退款渠道调用失败")
)

// 通知错误码 (7000-7999)
var (
	ErrNotificationNotFound = New(7000, "通知不存在")
	ErrNotifyDispatchFailed = New(7001, "通知发送失败")
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidation 构造带字段详情的规则校验错误
func NewValidation(fields ...FieldError) *AppError {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return ErrRuleValidation.
		WithMessage(fmt.Sprintf("支付规则校验失败：%s", strings.Join(msgs, "；"))).
		WithDetails(fields)
}

// NewEditLocked 构造结构性修改被房间绑定阻止的错误，附带房间名称
func NewEditLocked(roomNames []string) *AppError {
	return ErrRuleEditLocked.
		WithMessage(fmt.Sprintf("规则已被房间 %s 引用，解绑后才能修改", strings.Join(roomNames, "、"))).
		WithDetails(map[string]interface{}{"rooms": roomNames})
}

// NewInvalidTransition 构造状态机非法流转错误，指明当前状态与触发事件
func NewInvalidTransition(status, event string) *AppError {
	return ErrRefundInvalidTransition.
		WithMessage(fmt.Sprintf("状态 %s 下不允许执行 %s", status, event)).
		WithDetails(map[string]interface{}{"status": status, "event": event})
}

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

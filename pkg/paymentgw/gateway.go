// Package paymentgw 提供退款渠道的统一封装
package paymentgw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Config 退款渠道配置
type Config struct {
	Provider   string `mapstructure:"provider"`
	MerchantID string `mapstructure:"merchant_id"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	NotifyURL  string `mapstructure:"notify_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// RefundOrder 渠道退款请求
type RefundOrder struct {
	RequestNo string  `json:"request_no"`
	BookingNo string  `json:"booking_no"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	NotifyURL string  `json:"notify_url,omitempty"`
}

// RefundReceipt 渠道受理回执
type RefundReceipt struct {
	ProviderRefundID string    `json:"provider_refund_id"`
	Status           string    `json:"status"`
	AcceptedAt       time.Time `json:"accepted_at"`
}

// 渠道退款状态
const (
	GatewayStatusAccepted   = "ACCEPTED"
	GatewayStatusProcessing = "PROCESSING"
	GatewayStatusSuccess    = "SUCCESS"
	GatewayStatusFailed     = "FAILED"
)

// NotifyResult 渠道异步回调结果
type NotifyResult struct {
	RequestNo        string  `json:"request_no"`
	ProviderRefundID string  `json:"provider_refund_id"`
	Status           string  `json:"status"`
	RefundedAmount   float64 `json:"refunded_amount"`
	CreditMemoID     string  `json:"credit_memo_id,omitempty"`
	FailureReason    string  `json:"failure_reason,omitempty"`
	SuccessTime      string  `json:"success_time,omitempty"`
}

// Gateway 退款渠道接口
type Gateway interface {
	// SubmitRefund 向渠道提交退款，渠道受理后异步回调最终结果
	SubmitRefund(ctx context.Context, order *RefundOrder) (*RefundReceipt, error)
	// ParseNotify 解析并校验渠道回调报文
	ParseNotify(payload []byte) (*NotifyResult, error)
}

// NewGateway 按配置创建渠道客户端
func NewGateway(config *Config) (Gateway, error) {
	switch config.Provider {
	case "sandbox", "":
		return NewSandboxGateway(config), nil
	}
	return nil, fmt.Errorf("unsupported payment provider: %s", config.Provider)
}

// SandboxGateway 沙箱渠道
// 受理全部退款请求并立即返回 PROCESSING 回执，最终结果由回调接口模拟。
type SandboxGateway struct {
	config *Config
}

// NewSandboxGateway 创建沙箱渠道客户端
func NewSandboxGateway(config *Config) *SandboxGateway {
	return &SandboxGateway{config: config}
}

// SubmitRefund 提交退款（沙箱实现）
func (g *SandboxGateway) SubmitRefund(ctx context.Context, order *RefundOrder) (*RefundReceipt, error) {
	if order.Amount <= 0 {
		return nil, fmt.Errorf("invalid refund amount: %.2f", order.Amount)
	}

	return &RefundReceipt{
		ProviderRefundID: fmt.Sprintf("sbx_%s_%d", order.RequestNo, time.Now().UnixNano()),
		Status:           GatewayStatusProcessing,
		AcceptedAt:       time.Now(),
	}, nil
}

// ParseNotify 解析回调报文（沙箱实现，报文即明文 JSON）
func (g *SandboxGateway) ParseNotify(payload []byte) (*NotifyResult, error) {
	var result NotifyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("parse notify payload error: %w", err)
	}
	if result.RequestNo == "" {
		return nil, fmt.Errorf("notify payload missing request_no")
	}
	switch result.Status {
	case GatewayStatusSuccess, GatewayStatusFailed:
	default:
		return nil, fmt.Errorf("unexpected notify status: %s", result.Status)
	}
	return &result, nil
}

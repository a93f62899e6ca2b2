package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_SendCode(t *testing.T) {
	client := NewMockClient("测试签名")

	err := client.SendCode(context.Background(), "13800138000", "123456", TemplateCodeLogin)
	require.NoError(t, err)

	msg := client.LastMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "13800138000", msg.Phone)
	assert.Equal(t, TemplateCodeLogin, msg.TemplateCode)
	assert.Equal(t, "123456", msg.Params["code"])
}

func TestMockClient_SendNotification(t *testing.T) {
	client := NewMockClient("测试签名")

	err := client.SendNotification(context.Background(), "13800138000", TemplateCodeRefundStatus, map[string]string{
		"request_no": "RF20260801001",
		"status":     "approved",
	})
	require.NoError(t, err)

	msg := client.LastMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TemplateCodeRefundStatus, msg.TemplateCode)
	assert.Equal(t, "RF20260801001", msg.Params["request_no"])
}

func TestMockClient_Messages(t *testing.T) {
	client := NewMockClient("测试签名")
	ctx := context.Background()

	require.NoError(t, client.SendCode(ctx, "13800138000", "111111", TemplateCodeLogin))
	require.NoError(t, client.SendNotification(ctx, "13900139000", TemplateCodePaymentDue, map[string]string{
		"booking_no": "BK20260801001",
	}))

	messages := client.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "13800138000", messages[0].Phone)
	assert.Equal(t, "13900139000", messages[1].Phone)
}

func TestMockClient_LastMessage_Empty(t *testing.T) {
	client := NewMockClient("测试签名")
	assert.Nil(t, client.LastMessage())
}

// 验证 Client 与 MockClient 均满足 Sender 接口
func TestSenderInterface(t *testing.T) {
	var _ Sender = (*Client)(nil)
	var _ Sender = NewMockClient("测试签名")
}

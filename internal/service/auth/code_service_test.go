package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/smart-booking-backend/pkg/sms"
)

func setupCodeTest(t *testing.T) (*CodeService, *miniredis.Miniredis, *sms.MockClient) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mockSMS := sms.NewMockClient("测试签名")
	return NewCodeService(rdb, mockSMS, nil), mr, mockSMS
}

func TestCodeService_SendAndVerify(t *testing.T) {
	svc, _, mockSMS := setupCodeTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "13800138000", CodeTypeLogin))
	msg := mockSMS.LastMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "13800138000", msg.Phone)
	assert.Equal(t, sms.TemplateCodeLogin, msg.TemplateCode)
	code := msg.Params["code"]
	assert.Len(t, code, 6)

	ok, err := svc.VerifyCode(ctx, "13800138000", code, CodeTypeLogin)
	require.NoError(t, err)
	assert.True(t, ok)

	// 一次性使用
	ok, err = svc.VerifyCode(ctx, "13800138000", code, CodeTypeLogin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodeService_VerifyWrongType(t *testing.T) {
	svc, _, mockSMS := setupCodeTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "13800138000", CodeTypeLogin))
	code := mockSMS.LastMessage().Params["code"]

	ok, err := svc.VerifyCode(ctx, "13800138000", code, CodeTypeReset)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodeService_SendRateLimit(t *testing.T) {
	svc, mr, _ := setupCodeTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "13800138000", CodeTypeLogin))
	// 一分钟内重复发送被拒绝
	err := svc.SendCode(ctx, "13800138000", CodeTypeLogin)
	require.Error(t, err)

	// 频率限制过期后可再次发送
	mr.FastForward(61 * time.Second)
	require.NoError(t, svc.SendCode(ctx, "13800138000", CodeTypeLogin))
}

func TestCodeService_CodeExpiry(t *testing.T) {
	svc, mr, mockSMS := setupCodeTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "13800138000", CodeTypeLogin))
	code := mockSMS.LastMessage().Params["code"]

	mr.FastForward(6 * time.Minute)
	ok, err := svc.VerifyCode(ctx, "13800138000", code, CodeTypeLogin)
	require.NoError(t, err)
	assert.False(t, ok)
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/jwt"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
	"github.com/dumeirei/smart-booking-backend/pkg/sms"
)

func setupAuthTest(t *testing.T) (*AuthService, *gorm.DB, *miniredis.Miniredis, *sms.MockClient) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mockSMS := sms.NewMockClient("测试签名")
	codeSvc := NewCodeService(rdb, mockSMS, nil)

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "smart-booking-test",
	})
	svc := NewAuthService(repository.NewUserRepository(db), jwtManager, codeSvc)
	return svc, db, mr, mockSMS
}

// sentCode 从 mock 短信客户端取出刚发送的验证码
func sentCode(t *testing.T, mockSMS *sms.MockClient) string {
	msg := mockSMS.LastMessage()
	require.NotNil(t, msg)
	code, ok := msg.Params["code"]
	require.True(t, ok)
	return code
}

func TestAuthService_SmsLogin_AutoRegister(t *testing.T) {
	svc, db, _, mockSMS := setupAuthTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: "13800138000", CodeType: CodeTypeLogin}))
	code := sentCode(t, mockSMS)

	resp, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: "13800138000", Code: code})
	require.NoError(t, err)
	assert.True(t, resp.IsNewUser)
	assert.Equal(t, "用户8000", resp.User.Nickname)
	assert.NotEmpty(t, resp.TokenPair.AccessToken)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_SmsLogin_ExistingUser(t *testing.T) {
	svc, db, _, mockSMS := setupAuthTest(t)
	ctx := context.Background()

	phone := "13800138000"
	require.NoError(t, db.Create(&models.User{Phone: &phone, Nickname: "老用户", Status: models.UserStatusActive}).Error)

	require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: phone, CodeType: CodeTypeLogin}))
	resp, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: phone, Code: sentCode(t, mockSMS)})
	require.NoError(t, err)
	assert.False(t, resp.IsNewUser)
	assert.Equal(t, "老用户", resp.User.Nickname)
}

func TestAuthService_SmsLogin_WrongCode(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: "13800138000", CodeType: CodeTypeLogin}))
	_, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: "13800138000", Code: "000000"})
	assert.ErrorIs(t, err, errors.ErrSmsCodeError)
}

func TestAuthService_SmsLogin_CodeSingleUse(t *testing.T) {
	svc, _, _, mockSMS := setupAuthTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: "13800138000", CodeType: CodeTypeLogin}))
	code := sentCode(t, mockSMS)

	_, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: "13800138000", Code: code})
	require.NoError(t, err)

	// 验证码一次性使用
	_, err = svc.SmsLogin(ctx, &SmsLoginRequest{Phone: "13800138000", Code: code})
	assert.ErrorIs(t, err, errors.ErrSmsCodeError)
}

func TestAuthService_SmsLogin_DisabledUser(t *testing.T) {
	svc, db, _, mockSMS := setupAuthTest(t)
	ctx := context.Background()

	phone := "13800138000"
	require.NoError(t, db.Create(&models.User{Phone: &phone, Nickname: "被禁用", Status: models.UserStatusDisabled}).Error)

	require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: phone, CodeType: CodeTypeLogin}))
	_, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: phone, Code: sentCode(t, mockSMS)})
	assert.ErrorIs(t, err, errors.ErrAccountDisabled)
}

func TestAuthService_SendSmsCode_InvalidPhone(t *testing.T) {
	svc, _, _, _ := setupAuthTest(t)
	err := svc.SendSmsCode(context.Background(), &SendSmsCodeRequest{Phone: "123", CodeType: CodeTypeLogin})
	assert.ErrorIs(t, err, errors.ErrPhoneInvalid)
}

func TestAuthService_RefreshToken(t *testing.T) {
	svc, _, _, mockSMS := setupAuthTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: "13800138000", CodeType: CodeTypeLogin}))
	resp, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: "13800138000", Code: sentCode(t, mockSMS)})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(ctx, resp.TokenPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.RefreshToken(ctx, "garbage-token")
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, db, _, _ := setupAuthTest(t)
	ctx := context.Background()

	phone := "13800138000"
	user := &models.User{Phone: &phone, Nickname: "旧昵称", Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)

	nickname := "新昵称"
	info, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{Nickname: &nickname})
	require.NoError(t, err)
	assert.Equal(t, "新昵称", info.Nickname)

	_, err = svc.GetUserInfo(ctx, 9999)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

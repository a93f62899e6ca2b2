package paymentrule

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-booking-backend/internal/common/cache"
	"github.com/dumeirei/smart-booking-backend/internal/common/config"
	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

func setupResolverCache(t *testing.T) *miniredis.Miniredis {
	s, err := miniredis.Run()
	require.NoError(t, err)

	_, err = cache.Init(&config.RedisConfig{
		Host:        s.Host(),
		Port:        s.Server().Addr().Port,
		DialTimeout: 5,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cache.Close()
		s.Close()
	})
	return s
}

func seedRule(t *testing.T, db *gorm.DB, propertyID int64, name string, priority int, active bool) *models.PaymentRule {
	rule := &models.PaymentRule{
		PropertyID:    propertyID,
		Name:          name,
		RuleType:      models.RuleTypeDeposit,
		DepositType:   strPtr(models.AmountTypePercentage),
		DepositAmount: floatPtr(30),
		DepositDue:    strPtr(models.DueAtBooking),
		BalanceDue:    strPtr(models.DueOnCheckin),
		Priority:      priority,
		IsActive:      active,
		Version:       1,
		CreatedBy:     1,
	}
	require.NoError(t, db.Create(rule).Error)
	return rule
}

func assign(t *testing.T, db *gorm.DB, ruleID, roomID int64) {
	require.NoError(t, db.Create(&models.RoomRuleAssignment{
		RuleID:     ruleID,
		RoomID:     roomID,
		AssignedBy: 1,
	}).Error)
}

func TestResolver_RoomLevelWins(t *testing.T) {
	setupResolverCache(t)
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")

	propertyRule := seedRule(t, db, property.ID, "物业默认", 0, true)
	roomRule := seedRule(t, db, property.ID, "房间专属", 0, true)
	assign(t, db, roomRule.ID, room.ID)

	resolution, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, roomRule.ID, resolution.Rule.ID)
	assert.Equal(t, ResolveSourceRoom, resolution.Source)
	_ = propertyRule
}

func TestResolver_FallbackToProperty(t *testing.T) {
	setupResolverCache(t)
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")

	low := seedRule(t, db, property.ID, "低优先级", 0, true)
	high := seedRule(t, db, property.ID, "高优先级", 10, true)

	resolution, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, high.ID, resolution.Rule.ID)
	assert.Equal(t, ResolveSourceProperty, resolution.Source)
	_ = low
}

func TestResolver_NoMatch(t *testing.T) {
	setupResolverCache(t)
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")
	seedRule(t, db, property.ID, "停用规则", 0, false)

	_, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	assert.ErrorIs(t, err, errors.ErrRuleNotFound)
}

func TestResolver_CacheHit(t *testing.T) {
	setupResolverCache(t)
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")
	rule := seedRule(t, db, property.ID, "物业默认", 0, true)

	first, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, ResolveSourceProperty, first.Source)

	// 第二次命中缓存
	second, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, ResolveSourceCache, second.Source)
	assert.Equal(t, rule.ID, second.Rule.ID)
}

func TestResolver_InvalidateBumpsGeneration(t *testing.T) {
	setupResolverCache(t)
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")
	oldRule := seedRule(t, db, property.ID, "旧规则", 0, true)

	first, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, oldRule.ID, first.Rule.ID)

	// 新增更高优先级规则并失效缓存
	newRule := seedRule(t, db, property.ID, "新规则", 10, true)
	resolver.Invalidate(ctx)

	second, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, newRule.ID, second.Rule.ID)
	assert.Equal(t, ResolveSourceProperty, second.Source)
}

func TestResolver_DateWindowFilters(t *testing.T) {
	setupResolverCache(t)
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")

	summer := seedRule(t, db, property.ID, "暑期规则", 10, true)
	start := date(2026, 7, 1)
	end := date(2026, 8, 31)
	require.NoError(t, db.Model(summer).Updates(map[string]interface{}{
		"applies_to_dates": true,
		"start_date":       start,
		"end_date":         end,
	}).Error)
	yearRound := seedRule(t, db, property.ID, "全年规则", 0, true)

	// 窗口内命中暑期规则
	resolution, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, summer.ID, resolution.Rule.ID)

	// 窗口外回落到全年规则
	resolution, err = resolver.Resolve(ctx, property.ID, room.ID, date(2026, 9, 15))
	require.NoError(t, err)
	assert.Equal(t, yearRound.ID, resolution.Rule.ID)
}

func TestResolver_WithoutCache(t *testing.T) {
	// 未初始化 Redis 时解析直接走数据库
	db := setupRuleTestDB(t)
	ruleRepo := repository.NewPaymentRuleRepository(db)
	resolver := NewResolver(ruleRepo, time.Minute)
	ctx := context.Background()

	property := seedProperty(t, db)
	room := seedRoom(t, db, property.ID, "101", "湖景大床房")
	seedRule(t, db, property.ID, "物业默认", 0, true)

	resolution, err := resolver.Resolve(ctx, property.ID, room.ID, date(2026, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, ResolveSourceProperty, resolution.Source)
}

package paymentrule

import (
	"context"
	"fmt"
	"time"

	"github.com/dumeirei/smart-booking-backend/internal/common/cache"
	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/logger"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	"github.com/dumeirei/smart-booking-backend/internal/common/utils"
	"github.com/dumeirei/smart-booking-backend/internal/models"
	"github.com/dumeirei/smart-booking-backend/internal/repository"
)

// 解析来源
const (
	ResolveSourceCache    = "cache"
	ResolveSourceRoom     = "room"
	ResolveSourceProperty = "property"
)

// 缓存代数键，规则有任何写入时自增，旧代数下的缓存键随 TTL 自然过期
const ruleGenerationKey = "rule:gen"

// Resolver 支付规则解析器
// 按 房间级绑定 -> 物业级默认 的顺序为预订挑选生效规则，
// 结果经 Redis 缓存，写路径通过代数自增使全部缓存失效。
type Resolver struct {
	ruleRepo *repository.PaymentRuleRepository
	cacheTTL time.Duration
}

// NewResolver 创建支付规则解析器
func NewResolver(ruleRepo *repository.PaymentRuleRepository, cacheTTL time.Duration) *Resolver {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Resolver{
		ruleRepo: ruleRepo,
		cacheTTL: cacheTTL,
	}
}

// Resolution 解析结果
type Resolution struct {
	Rule   *models.PaymentRule `json:"rule"`
	Source string              `json:"source"`
}

// Resolve 为指定房间与入住日期解析生效的支付规则
// 先查房间级绑定，未命中时回退到物业级未绑定规则；
// 两级均按 priority 降序、创建时间降序取第一条。
func (r *Resolver) Resolve(ctx context.Context, propertyID, roomID int64, checkinDate time.Time) (*Resolution, error) {
	asOf := utils.DateOnly(checkinDate)

	key := r.cacheKey(ctx, propertyID, roomID, asOf)
	if key != "" {
		var cached Resolution
		if err := cache.Get(ctx, key, &cached); err == nil && cached.Rule != nil {
			metrics.GetMetrics().RecordCacheHit("rule_resolver")
			metrics.GetMetrics().RecordRuleResolution(ResolveSourceCache)
			return &cached, nil
		}
		metrics.GetMetrics().RecordCacheMiss("rule_resolver")
	}

	resolution, err := r.resolveFromDB(ctx, propertyID, roomID, asOf)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := cache.Set(ctx, key, resolution, r.cacheTTL); err != nil {
			logger.Warn("规则解析结果缓存失败",
				logger.RoomID(roomID),
				logger.Err(err),
			)
		}
	}

	metrics.GetMetrics().RecordRuleResolution(resolution.Source)
	return resolution, nil
}

func (r *Resolver) resolveFromDB(ctx context.Context, propertyID, roomID int64, asOf time.Time) (*Resolution, error) {
	rules, err := r.ruleRepo.ListActiveByRoom(ctx, roomID, asOf)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if len(rules) > 0 {
		return &Resolution{Rule: rules[0], Source: ResolveSourceRoom}, nil
	}

	rules, err = r.ruleRepo.ListActiveByProperty(ctx, propertyID, asOf)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if len(rules) > 0 {
		return &Resolution{Rule: rules[0], Source: ResolveSourceProperty}, nil
	}

	return nil, errors.ErrRuleNotFound
}

// Invalidate 使解析缓存整体失效
// 自增代数即可，无需遍历删除旧键。
func (r *Resolver) Invalidate(ctx context.Context) {
	if cache.GetClient() == nil {
		return
	}
	if _, err := cache.Incr(ctx, ruleGenerationKey); err != nil {
		logger.Warn("规则缓存代数自增失败", logger.Err(err))
	}
}

// cacheKey 构造带代数的缓存键，缓存不可用时返回空串
func (r *Resolver) cacheKey(ctx context.Context, propertyID, roomID int64, asOf time.Time) string {
	if cache.GetClient() == nil {
		return ""
	}
	gen, err := cache.GetString(ctx, ruleGenerationKey)
	if err != nil {
		gen = "0"
	}
	return cache.BuildKey(cache.KeyPrefixRoomRule,
		gen,
		fmt.Sprintf("%d", propertyID),
		fmt.Sprintf("%d", roomID),
		asOf.Format("2006-01-02"),
	)
}

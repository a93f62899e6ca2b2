// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-booking-backend/internal/common/response"
	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// RequireRoles 要求管理员具备指定角色之一
// 角色从 JWT 载荷写入上下文，见 AdminAuth
func RequireRoles(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		// 平台管理员不受角色限制
		if role == models.AdminRolePlatform {
			c.Next()
			return
		}

		if _, ok := roleSet[role]; !ok {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireFinance 要求财务或平台管理员，用于退款资金操作
func RequireFinance() gin.HandlerFunc {
	return RequireRoles(models.AdminRoleFinance)
}

// RequireManager 要求物业经理或平台管理员，用于规则与物业管理
func RequireManager() gin.HandlerFunc {
	return RequireRoles(models.AdminRoleManager)
}

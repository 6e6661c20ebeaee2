package api

import (
	"log"
	"net/http"

	"kroma-server/service"

	"github.com/gin-gonic/gin"
)

// Handler 持有各接口依赖（由 main 注入，不走包级全局状态）。
type Handler struct {
	Store        service.ProjectStore
	Tasks        service.TaskStore
	Ledger       service.CreditLedger
	Producer     *service.Producer
	InitialGrant int64
}

// UserAuth 身份由外部认证服务提供，这里只消费网关透传的不透明用户标识。
// 首次见到某用户时建立账本记录并发放初始额度。
func (h *Handler) UserAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID"})
			return
		}
		displayName := c.GetHeader("X-User-Name")
		if err := h.Ledger.Ensure(c.Request.Context(), userID, displayName, h.InitialGrant); err != nil {
			log.Printf("初始化用户账本失败: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile init failed"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

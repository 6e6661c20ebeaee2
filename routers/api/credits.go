package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TopupTier 充值档位。支付流程是外部协作方，这里只落地"已加点"这一结果。
type TopupTier struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	PriceUS int    `json:"price_usd"`
	Credits int64  `json:"credits"`
}

var TopupTiers = []TopupTier{
	{ID: "creator", Name: "Creator", PriceUS: 20, Credits: 500},
	{ID: "director", Name: "Director", PriceUS: 50, Credits: 1500},
}

// 查询余额：GET /v1/api/credits
func (h *Handler) GetCredits(c *gin.Context) {
	balance, err := h.Ledger.Balance(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询余额失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": balance, "tiers": TopupTiers})
}

// 充值：POST /v1/api/credits/topup {"tier": "creator"}
// 结账完成的回调入口——支付校验发生在外部，这里按档位原子加点。
func (h *Handler) TopupCredits(c *gin.Context) {
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tier *TopupTier
	for i := range TopupTiers {
		if TopupTiers[i].ID == req.Tier {
			tier = &TopupTiers[i]
			break
		}
	}
	if tier == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier"})
		return
	}

	userID := currentUserID(c)
	if err := h.Ledger.Credit(c.Request.Context(), userID, tier.Credits); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "充值失败: " + err.Error()})
		return
	}
	balance, err := h.Ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": balance, "added": tier.Credits})
}

// 余额订阅 WebSocket：GET /v1/api/credits/wss
// 轮询账本并在余额变化时推送（扣费/充值都会即时反映到客户端）。
func (h *Handler) CreditsWebSocket(c *gin.Context) {
	userID := currentUserID(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	balance, err := h.Ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(map[string]interface{}{"error": err.Error()})
		return
	}
	_ = conn.WriteJSON(map[string]interface{}{"credits": balance})

	// 读泵：余额长期不变时 WriteJSON 暴露不了断连，靠读失败感知客户端离开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prev := balance
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			cur, err := h.Ledger.Balance(c.Request.Context(), userID)
			if err != nil {
				continue
			}
			if cur != prev {
				if err := conn.WriteJSON(map[string]interface{}{"credits": cur}); err != nil {
					return
				}
				prev = cur
			}
		}
	}
}

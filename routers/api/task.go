package api

import (
	"errors"
	"net/http"
	"time"

	"kroma-server/models"
	"kroma-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 查询任务状态：GET /v1/api/tasks/:task_id
func (h *Handler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	t, err := h.Tasks.Get(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// 任务进度 WebSocket 推送：轮询任务存储并在状态变化时推送，终态后断开。
func (h *Handler) TaskProgressWebSocket(c *gin.Context) {
	taskID := c.Param("task_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	t, err := h.Tasks.Get(c.Request.Context(), taskID)
	if err != nil {
		_ = conn.WriteJSON(map[string]interface{}{"error": "task not found"})
		return
	}
	_ = conn.WriteJSON(t)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prevStatus := t.Status
	for range ticker.C {
		cur, err := h.Tasks.Get(c.Request.Context(), taskID)
		if err != nil {
			continue
		}
		if cur.Status != prevStatus {
			if err := conn.WriteJSON(cur); err != nil {
				break
			}
			prevStatus = cur.Status
		}
		if cur.Status == models.TaskStatusFinished || cur.Status == models.TaskStatusFailed {
			_ = conn.WriteJSON(cur)
			break
		}
	}
}

package api

import (
	"errors"
	"net/http"

	"kroma-server/service"

	"github.com/gin-gonic/gin"
)

// 剧本拆解：POST /v1/api/projects/:project_id/script
func (h *Handler) GenerateScript(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	task, err := h.Producer.RequestScript(c.Request.Context(), currentUserID(c), project.ID)
	if err != nil {
		h.generationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":    task.ID,
		"message":    "剧本拆解任务已创建",
		"project_id": project.ID,
	})
}

// 角色参考图生成：POST /v1/api/projects/:project_id/character
func (h *Handler) GenerateCharacter(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	task, err := h.Producer.RequestCharacter(c.Request.Context(), currentUserID(c), project.ID)
	if err != nil {
		h.generationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":    task.ID,
		"message":    "角色图生成任务已创建",
		"project_id": project.ID,
	})
}

// 分镜视频生成：POST /v1/api/projects/:project_id/scenes/:scene_id/video
func (h *Handler) GenerateSceneVideo(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	sceneID := c.Param("scene_id")
	task, err := h.Producer.RequestSceneVideo(c.Request.Context(), currentUserID(c), project.ID, sceneID)
	if err != nil {
		h.generationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":    task.ID,
		"message":    "视频生成任务已创建",
		"project_id": project.ID,
		"scene_id":   sceneID,
	})
}

// generationError 把控制器错误映射为 HTTP 响应。
// 余额不足返回 402 并附充值档位，供前端直接弹出升级引导。
func (h *Handler) generationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "insufficient credits",
			"tiers": TopupTiers,
		})
	case errors.Is(err, service.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is empty"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到目标项目或分镜"})
	case errors.Is(err, service.ErrSceneUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "scene is generating or already completed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

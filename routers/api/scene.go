package api

import (
	"errors"
	"net/http"

	"kroma-server/models"
	"kroma-server/service"

	"github.com/gin-gonic/gin"
)

const defaultSceneDescription = "A new scene description..."

// 手动追加分镜（时间线上的 Add Scene）
func (h *Handler) AddScene(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description == "" {
		req.Description = defaultSceneDescription
	}

	var created models.Scene
	updated, err := h.Store.Mutate(c.Request.Context(), project.ID, func(p *models.Project) error {
		created = *p.AppendScene(req.Description)
		return nil
	})
	if err != nil {
		h.sceneMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scene": created, "project": updated})
}

// 更新分镜描述（描述文本会被视频生成原样消费）
func (h *Handler) UpdateScene(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	sceneID := c.Param("scene_id")

	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Store.Mutate(c.Request.Context(), project.ID, func(p *models.Project) error {
		s := p.FindScene(sceneID)
		if s == nil {
			return service.ErrNotFound
		}
		s.Description = req.Description
		return nil
	})
	if err != nil {
		h.sceneMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": updated})
}

// 删除分镜。分镜已不存在时同样视为成功。
func (h *Handler) DeleteScene(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	sceneID := c.Param("scene_id")

	_, err := h.Store.Mutate(c.Request.Context(), project.ID, func(p *models.Project) error {
		p.RemoveScene(sceneID)
		return nil
	})
	if err != nil {
		h.sceneMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) sceneMutationError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "分镜未找到"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

package api

import (
	"errors"
	"net/http"
	"strings"

	"kroma-server/models"
	"kroma-server/service"

	"github.com/gin-gonic/gin"
)

// 创建项目
func (h *Handler) CreateProject(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	project, err := h.Store.Create(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建项目失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 项目列表（按 last_modified 倒序，供工作台展示）
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Store.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取项目列表失败: " + err.Error()})
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

// 获取项目详情
func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 更新项目（浅合并：只更新请求中出现的字段，lastModified 总是刷新）
func (h *Handler) UpdateProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	var req struct {
		Name            *string `json:"name"`
		ScriptPrompt    *string `json:"scriptPrompt"`
		CharacterPrompt *string `json:"characterPrompt"`
		Step            *string `json:"step"`
		AspectRatio     *string `json:"aspectRatio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Step != nil && !models.ValidStep(*req.Step) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step"})
		return
	}
	if req.AspectRatio != nil && !models.ValidAspectRatio(*req.AspectRatio) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aspect ratio"})
		return
	}

	updated, err := h.Store.Update(c.Request.Context(), project.ID, service.ProjectUpdate{
		Name:            req.Name,
		ScriptPrompt:    req.ScriptPrompt,
		CharacterPrompt: req.CharacterPrompt,
		Step:            req.Step,
		AspectRatio:     req.AspectRatio,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新项目失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": updated})
}

// 删除项目（幂等：重复删除同样返回成功）
func (h *Handler) DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := h.Store.Delete(c.Request.Context(), projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除项目失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "项目已删除"})
}

// ownedProject 加载路径中的项目并校验归属；未找到/不属于当前用户时统一返回 404。
func (h *Handler) ownedProject(c *gin.Context) (*models.Project, bool) {
	projectID := c.Param("project_id")
	project, err := h.Store.Get(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	if project.UserID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到"})
		return nil, false
	}
	return project, true
}

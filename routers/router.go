package routers

import (
	"kroma-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter(h *api.Handler) *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api")
	v1.Use(h.UserAuth())
	{
		v1.POST("/projects", h.CreateProject)
		v1.GET("/projects", h.ListProjects)
		v1.GET("/projects/:project_id", h.GetProject)
		v1.PUT("/projects/:project_id", h.UpdateProject)
		v1.DELETE("/projects/:project_id", h.DeleteProject)

		v1.POST("/projects/:project_id/scenes", h.AddScene)
		v1.PUT("/projects/:project_id/scenes/:scene_id", h.UpdateScene)
		v1.DELETE("/projects/:project_id/scenes/:scene_id", h.DeleteScene)

		v1.POST("/projects/:project_id/script", h.GenerateScript)
		v1.POST("/projects/:project_id/character", h.GenerateCharacter)
		v1.POST("/projects/:project_id/scenes/:scene_id/video", h.GenerateSceneVideo)

		v1.GET("/credits", h.GetCredits)
		v1.POST("/credits/topup", h.TopupCredits)
		v1.GET("/credits/wss", h.CreditsWebSocket)

		v1.GET("/tasks/:task_id", h.GetTaskStatus)
	}
	r.GET("/tasks/:task_id/wss", h.TaskProgressWebSocket)
	return r
}

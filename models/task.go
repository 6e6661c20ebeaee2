package models

import "time"

// 生成任务状态（任务记录只是瞬态进度/错误面板，实体状态以 project/scene 为准）
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusFinished   = "finished"
	TaskStatusFailed     = "failed"
)

// 三种付费生成任务类型
const (
	TaskTypeScript     = "generate_script"    // 概念文本 -> 分镜描述列表
	TaskTypeCharacter  = "generate_character" // 角色提示词 -> 角色参考图
	TaskTypeSceneVideo = "generate_video"     // 分镜描述 -> 视频片段
)

type GenTask struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string    `gorm:"index;type:varchar(128)" json:"userId"`
	ProjectID string    `gorm:"index;type:varchar(64)" json:"projectId"`
	SceneID   string    `gorm:"type:varchar(64)" json:"sceneId,omitempty"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (GenTask) TableName() string {
	return "gen_task"
}

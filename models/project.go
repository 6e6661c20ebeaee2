package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 项目流水线阶段：三个编辑界面，正常流向前推进，用户可随时回退。
const (
	StepScript     = "script"
	StepCharacter  = "character"
	StepProduction = "production"
)

const (
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
)

type Project struct {
	ID                   string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID               string    `gorm:"index;type:varchar(128)" json:"userId"`
	Name                 string    `json:"name"`
	Step                 string    `json:"step"`
	ScriptPrompt         string    `gorm:"type:text" json:"scriptPrompt"`
	CharacterPrompt      string    `gorm:"type:text" json:"characterPrompt"`
	CharacterImageBase64 string    `gorm:"type:longtext" json:"characterImageBase64,omitempty"`
	AspectRatio          string    `json:"aspectRatio"`
	Scenes               SceneList `gorm:"type:json" json:"scenes"`
	CreatedAt            time.Time `json:"createdAt"`
	LastModified         time.Time `json:"lastModified"`
}

func (Project) TableName() string {
	return "project"
}

func ValidStep(step string) bool {
	return step == StepScript || step == StepCharacter || step == StepProduction
}

func ValidAspectRatio(ar string) bool {
	return ar == AspectLandscape || ar == AspectPortrait
}

// FindScene 按 id 定位分镜（并发结果合并必须走 id，不允许用位置下标）。
func (p *Project) FindScene(sceneID string) *Scene {
	for i := range p.Scenes {
		if p.Scenes[i].ID == sceneID {
			return &p.Scenes[i]
		}
	}
	return nil
}

// StartScene 将分镜置为 generating。仅允许从 pending / error 进入，
// 重试时清除上一次的错误信息，避免展示陈旧错误。
func (p *Project) StartScene(sceneID string) error {
	s := p.FindScene(sceneID)
	if s == nil {
		return fmt.Errorf("scene %s not found", sceneID)
	}
	if s.Status == SceneStatusGenerating {
		return fmt.Errorf("scene %s is already generating", sceneID)
	}
	if s.Status == SceneStatusCompleted {
		return fmt.Errorf("scene %s is already completed", sceneID)
	}
	s.Status = SceneStatusGenerating
	s.Error = ""
	s.VideoUrl = ""
	return nil
}

// CompleteScene 应用视频生成成功的结果。分镜已被删除时返回 false（调用方静默丢弃）。
func (p *Project) CompleteScene(sceneID, videoURL string) bool {
	s := p.FindScene(sceneID)
	if s == nil {
		return false
	}
	s.Status = SceneStatusCompleted
	s.VideoUrl = videoURL
	s.Error = ""
	return true
}

// FailScene 应用视频生成失败的结果，错误信息直接面向用户展示。
func (p *Project) FailScene(sceneID, message string) bool {
	s := p.FindScene(sceneID)
	if s == nil {
		return false
	}
	s.Status = SceneStatusError
	s.Error = message
	s.VideoUrl = ""
	return true
}

// ReplaceScenes 用剧本拆解结果重建分镜列表，order 从 1 开始。
func (p *Project) ReplaceScenes(descriptions []string) {
	scenes := make(SceneList, 0, len(descriptions))
	for i, desc := range descriptions {
		scenes = append(scenes, Scene{
			ID:          uuid.NewString(),
			Order:       i + 1,
			Description: desc,
			Status:      SceneStatusPending,
		})
	}
	p.Scenes = scenes
}

// AppendScene 手动追加一个分镜，order 取当前最大值 +1（删除后不保证连续）。
func (p *Project) AppendScene(description string) *Scene {
	maxOrder := 0
	for i := range p.Scenes {
		if p.Scenes[i].Order > maxOrder {
			maxOrder = p.Scenes[i].Order
		}
	}
	p.Scenes = append(p.Scenes, Scene{
		ID:          uuid.NewString(),
		Order:       maxOrder + 1,
		Description: description,
		Status:      SceneStatusPending,
	})
	return &p.Scenes[len(p.Scenes)-1]
}

// RemoveScene 按 id 删除分镜，不存在时为 no-op（返回 false）。
func (p *Project) RemoveScene(sceneID string) bool {
	for i := range p.Scenes {
		if p.Scenes[i].ID == sceneID {
			p.Scenes = append(p.Scenes[:i], p.Scenes[i+1:]...)
			return true
		}
	}
	return false
}

package service

import (
	"errors"
	"fmt"
)

// 业务错误分类，由 API 层映射为对应的 HTTP 响应。
var (
	// ErrInsufficientCredits 余额不足：操作在任何扣费/生成调用前中止，前端应引导充值
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrNotFound 项目/分镜不存在（包括被并发删除的情况）
	ErrNotFound = errors.New("not found")
	// ErrEmptyPrompt 提示词为空，属于调用方前置条件违反，不会发起生成调用
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrSceneUnavailable 分镜当前不可生成（正在生成中，或已完成不再提供重生成）
	ErrSceneUnavailable = errors.New("scene not available for generation")
)

// GenerationError 生成后端失败，Message 可直接展示给用户。
type GenerationError struct {
	Op      string // breakdown_script | synthesize_character | synthesize_video
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UserMessage 提取适合用户展示的错误文案。
func UserMessage(err error) string {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}

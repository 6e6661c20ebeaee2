package service

import "context"

// ImageArtifact 生成的图像制品（角色参考图）。
type ImageArtifact struct {
	Bytes    []byte
	MIMEType string
}

// VideoArtifact 生成的视频制品。
type VideoArtifact struct {
	Bytes    []byte
	MIMEType string
}

// GenerationGateway 把三种生成能力统一为异步请求/结果契约。
// 每个操作独立失败，失败用 *GenerationError 携带可展示的消息；
// 任何操作都不在网关内自动重试，重试由用户重新触发状态机迁移。
type GenerationGateway interface {
	// BreakdownScript 把概念文本拆解为有序的分镜描述列表。
	BreakdownScript(ctx context.Context, prompt string) ([]string, error)
	// SynthesizeCharacter 生成角色一致性参考图。
	SynthesizeCharacter(ctx context.Context, prompt string) (*ImageArtifact, error)
	// SynthesizeVideo 把分镜描述渲染为视频片段；ref 可选，作为视觉一致性锚点。
	SynthesizeVideo(ctx context.Context, description string, ref *ImageArtifact, aspectRatio string) (*VideoArtifact, error)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiGateway 基于 google genai SDK 的 GenerationGateway 实现：
// Gemini 拆解剧本、Imagen 生成角色参考图、Veo 生成视频片段。
type GeminiGateway struct {
	client       *genai.Client
	scriptModel  string
	imageModel   string
	videoModel   string
	pollInterval time.Duration
}

func NewGeminiGateway(ctx context.Context, apiKey, scriptModel, imageModel, videoModel string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	return &GeminiGateway{
		client:       client,
		scriptModel:  scriptModel,
		imageModel:   imageModel,
		videoModel:   videoModel,
		pollInterval: 10 * time.Second,
	}, nil
}

const breakdownInstruction = `You are a film director breaking a video concept into scenes.
Given the concept below, return a JSON array of 3 to 6 short scene descriptions,
each a single vivid sentence describing one continuous shot, in story order.

Concept:
%s`

func (g *GeminiGateway) BreakdownScript(ctx context.Context, prompt string) ([]string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.scriptModel,
		genai.Text(fmt.Sprintf(breakdownInstruction, prompt)), config)
	if err != nil {
		return nil, &GenerationError{Op: "breakdown_script", Message: "Failed to generate script", Err: err}
	}

	var descriptions []string
	if err := json.Unmarshal([]byte(resp.Text()), &descriptions); err != nil {
		return nil, &GenerationError{Op: "breakdown_script", Message: "Script model returned unreadable output", Err: err}
	}
	// 过滤空白条目，保持顺序
	out := descriptions[:0]
	for _, d := range descriptions {
		if strings.TrimSpace(d) != "" {
			out = append(out, strings.TrimSpace(d))
		}
	}
	if len(out) == 0 {
		return nil, &GenerationError{Op: "breakdown_script", Message: "Script model returned no scenes"}
	}
	return out, nil
}

func (g *GeminiGateway) SynthesizeCharacter(ctx context.Context, prompt string) (*ImageArtifact, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, &GenerationError{Op: "synthesize_character", Message: "Failed to generate character", Err: err}
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, &GenerationError{Op: "synthesize_character", Message: "Image model returned no image"}
	}
	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &ImageArtifact{Bytes: img.ImageBytes, MIMEType: mime}, nil
}

func (g *GeminiGateway) SynthesizeVideo(ctx context.Context, description string, ref *ImageArtifact, aspectRatio string) (*VideoArtifact, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyPrompt
	}

	// 角色参考图作为首帧锚点传入，保证跨分镜的视觉一致性
	var image *genai.Image
	if ref != nil && len(ref.Bytes) > 0 {
		image = &genai.Image{ImageBytes: ref.Bytes, MIMEType: ref.MIMEType}
	}

	op, err := g.client.Models.GenerateVideos(ctx, g.videoModel, description, image, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		return nil, &GenerationError{Op: "synthesize_video", Message: "Video generation failed to start", Err: err}
	}

	// 轮询长时操作直到完成（ctx 超时/取消时放弃，由上层落为 error 状态）
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, &GenerationError{Op: "synthesize_video", Message: "Video generation timed out", Err: ctx.Err()}
		case <-time.After(g.pollInterval):
		}
		op, err = g.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, &GenerationError{Op: "synthesize_video", Message: "Video generation failed", Err: err}
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, &GenerationError{Op: "synthesize_video", Message: "Video model returned no video"}
	}
	video := op.Response.GeneratedVideos[0].Video
	if len(video.VideoBytes) == 0 {
		// 部分后端不内联视频字节，需要按 URI 再拉一次
		data, dlErr := g.client.Files.Download(ctx, video, nil)
		if dlErr != nil {
			return nil, &GenerationError{Op: "synthesize_video", Message: "Video download failed", Err: dlErr}
		}
		if len(video.VideoBytes) == 0 {
			video.VideoBytes = data
		}
	}
	if len(video.VideoBytes) == 0 {
		return nil, &GenerationError{Op: "synthesize_video", Message: "Video download failed"}
	}
	log.Printf("[GenAI] 视频生成完成 (%d bytes)", len(video.VideoBytes))
	mime := video.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	return &VideoArtifact{Bytes: video.VideoBytes, MIMEType: mime}, nil
}

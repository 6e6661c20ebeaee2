package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"kroma-server/config"
	"kroma-server/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Costs 各付费操作的信用点成本。
type Costs struct {
	Script    int64
	Character int64
	Video     int64
}

// Producer 生产流水线控制器：持有项目/分镜状态机的全部迁移，
// 在发起任何付费生成调用前先原子扣费（debit happens-before invoke），
// 并把异步生成结果按稳定 id 合并回对应项目。
//
// 生成调用发起之后的失败不退费（沿用的产品决策，见 DESIGN.md）；
// 分镜可用性裁决阶段的失败（并发竞争输掉、存储错误）会回滚本次扣费。
type Producer struct {
	store    ProjectStore
	tasks    TaskStore
	ledger   CreditLedger
	gateway  GenerationGateway
	uploader ArtifactUploader
	costs    Costs
	enqueue  func(taskID string) error
}

func NewProducer(store ProjectStore, tasks TaskStore, ledger CreditLedger, gateway GenerationGateway, uploader ArtifactUploader, costs Costs) *Producer {
	return &Producer{
		store:    store,
		tasks:    tasks,
		ledger:   ledger,
		gateway:  gateway,
		uploader: uploader,
		costs:    costs,
		enqueue:  EnqueueGeneration,
	}
}

// SetEnqueue 替换入队实现（测试用内联执行）。
func (p *Producer) SetEnqueue(fn func(taskID string) error) {
	p.enqueue = fn
}

func (p *Producer) Costs() Costs {
	return p.costs
}

// StartProcessor 启动任务消费者。concurrency 即生成并发上限。
func (p *Producer) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerationTask, p.HandleGenerationTask)

	log.Printf("Starting Task Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// ============================================================================
// 请求侧：校验前置条件 -> 扣费 -> 状态迁移 -> 入队
// ============================================================================

// RequestScript 发起剧本拆解。
func (p *Producer) RequestScript(ctx context.Context, userID, projectID string) (*models.GenTask, error) {
	proj, err := p.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(proj.ScriptPrompt) == "" {
		return nil, ErrEmptyPrompt
	}

	ok, err := p.ledger.Debit(ctx, userID, p.costs.Script)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	return p.createAndEnqueue(ctx, userID, projectID, "", models.TaskTypeScript)
}

// RequestCharacter 发起角色参考图生成。
func (p *Producer) RequestCharacter(ctx context.Context, userID, projectID string) (*models.GenTask, error) {
	proj, err := p.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(proj.CharacterPrompt) == "" {
		return nil, ErrEmptyPrompt
	}

	ok, err := p.ledger.Debit(ctx, userID, p.costs.Character)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	return p.createAndEnqueue(ctx, userID, projectID, "", models.TaskTypeCharacter)
}

// RequestSceneVideo 发起单个分镜的视频生成。
// 仅 pending / error 状态的分镜可触发；completed 不提供重生成入口。
// 可用性的最终裁决在 Mutate 的行锁内进行，并发的重复触发里
// 输掉竞争的一方在发起任何生成调用前退还扣费，保持零成本 no-op。
func (p *Producer) RequestSceneVideo(ctx context.Context, userID, projectID, sceneID string) (*models.GenTask, error) {
	// 快速前置校验，挡掉绝大多数无效请求；真正的裁决在下面的行锁内
	proj, err := p.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scene := proj.FindScene(sceneID)
	if scene == nil {
		return nil, ErrNotFound
	}
	if scene.Status == models.SceneStatusGenerating || scene.Status == models.SceneStatusCompleted {
		return nil, ErrSceneUnavailable
	}
	if strings.TrimSpace(scene.Description) == "" {
		return nil, ErrEmptyPrompt
	}

	ok, err := p.ledger.Debit(ctx, userID, p.costs.Video)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	// 行锁内重新裁决并迁移为 generating（重试时清掉旧错误）。
	// 走到这里生成尚未发起，Mutate 的任何失败都退还本次扣费，
	// 底层存储错误原样透传，不折叠成分镜不可用。
	if _, err := p.store.Mutate(ctx, projectID, func(pr *models.Project) error {
		s := pr.FindScene(sceneID)
		if s == nil {
			return ErrNotFound
		}
		if s.Status == models.SceneStatusGenerating || s.Status == models.SceneStatusCompleted {
			return ErrSceneUnavailable
		}
		return pr.StartScene(sceneID)
	}); err != nil {
		p.refund(ctx, userID, p.costs.Video)
		return nil, err
	}

	return p.createAndEnqueue(ctx, userID, projectID, sceneID, models.TaskTypeSceneVideo)
}

// refund 回滚一次尚未兑现为生成调用的扣费。
func (p *Producer) refund(ctx context.Context, userID string, amount int64) {
	if err := p.ledger.Credit(ctx, userID, amount); err != nil {
		log.Printf("退还扣费失败 (user=%s amount=%d): %v", userID, amount, err)
	}
}

func (p *Producer) createAndEnqueue(ctx context.Context, userID, projectID, sceneID, taskType string) (*models.GenTask, error) {
	task := &models.GenTask{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		SceneID:   sceneID,
		Type:      taskType,
		Status:    models.TaskStatusPending,
	}
	if err := p.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := p.enqueue(task.ID); err != nil {
		log.Printf("任务入队失败: %v", err)
		_ = p.tasks.SetStatus(ctx, task.ID, models.TaskStatusFailed, "queue unavailable")
		return nil, err
	}
	return task, nil
}

// ============================================================================
// 处理侧：调用网关 -> 按 id 合并结果（目标已删除则静默丢弃）
// ============================================================================

// HandleGenerationTask asynq 消费入口。
func (p *Producer) HandleGenerationTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	task, err := p.tasks.Get(ctx, payload.TaskID)
	if err != nil {
		return fmt.Errorf("task not found: %v", err)
	}
	return p.Process(ctx, task)
}

// Process 执行一个生成任务并合并结果。业务失败不向队列返回错误（不重试）。
func (p *Producer) Process(ctx context.Context, task *models.GenTask) error {
	log.Printf("Processing Task: %s | Type: %s", task.ID, task.Type)
	if err := p.tasks.SetStatus(ctx, task.ID, models.TaskStatusProcessing, ""); err != nil {
		log.Printf("SetStatus processing failed: %v", err)
	}

	var processingErr error
	switch task.Type {
	case models.TaskTypeScript:
		processingErr = p.processScript(ctx, task)
	case models.TaskTypeCharacter:
		processingErr = p.processCharacter(ctx, task)
	case models.TaskTypeSceneVideo:
		processingErr = p.processSceneVideo(ctx, task)
	default:
		processingErr = fmt.Errorf("unknown task type: %s", task.Type)
	}

	if processingErr != nil {
		log.Printf("[Error] 任务 %s 失败: %v", task.ID, processingErr)
		_ = p.tasks.SetStatus(ctx, task.ID, models.TaskStatusFailed, UserMessage(processingErr))
		return nil
	}
	_ = p.tasks.SetStatus(ctx, task.ID, models.TaskStatusFinished, "")
	log.Printf("Task %s completed successfully", task.ID)
	return nil
}

// processScript 剧本拆解：成功时用结果重建分镜列表（step 不自动推进）。
// 失败只记录在任务上，不写入项目实体。
func (p *Producer) processScript(ctx context.Context, task *models.GenTask) error {
	proj, err := p.store.Get(ctx, task.ProjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// 项目已在生成期间被删除，结果丢弃
			log.Printf("项目 %s 已删除，丢弃剧本结果", task.ProjectID)
			return nil
		}
		return err
	}

	descriptions, err := p.gateway.BreakdownScript(ctx, proj.ScriptPrompt)
	if err != nil {
		return err
	}

	if _, err := p.store.Mutate(ctx, task.ProjectID, func(pr *models.Project) error {
		pr.ReplaceScenes(descriptions)
		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("项目 %s 已删除，丢弃剧本结果", task.ProjectID)
			return nil
		}
		return err
	}
	log.Printf("Successfully created %d scenes for project %s", len(descriptions), task.ProjectID)
	return nil
}

// processCharacter 角色参考图：成功时把图像（base64）写到项目上。
func (p *Producer) processCharacter(ctx context.Context, task *models.GenTask) error {
	proj, err := p.store.Get(ctx, task.ProjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("项目 %s 已删除，丢弃角色图结果", task.ProjectID)
			return nil
		}
		return err
	}

	img, err := p.gateway.SynthesizeCharacter(ctx, proj.CharacterPrompt)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(img.Bytes)
	if _, err := p.store.Mutate(ctx, task.ProjectID, func(pr *models.Project) error {
		pr.CharacterImageBase64 = encoded
		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("项目 %s 已删除，丢弃角色图结果", task.ProjectID)
			return nil
		}
		return err
	}
	return nil
}

// processSceneVideo 分镜视频：调用网关，结果按分镜 id 合并到当前快照。
// 分镜/项目在生成期间被删除时结果静默丢弃；失败落为该分镜的 error 状态。
func (p *Producer) processSceneVideo(ctx context.Context, task *models.GenTask) error {
	proj, err := p.store.Get(ctx, task.ProjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("项目 %s 已删除，丢弃视频结果", task.ProjectID)
			return nil
		}
		return err
	}
	scene := proj.FindScene(task.SceneID)
	if scene == nil {
		log.Printf("分镜 %s 已删除，跳过生成", task.SceneID)
		return nil
	}

	// 角色参考图作为视觉一致性锚点（可选）
	var ref *ImageArtifact
	if proj.CharacterImageBase64 != "" {
		if raw, decErr := base64.StdEncoding.DecodeString(proj.CharacterImageBase64); decErr == nil {
			ref = &ImageArtifact{Bytes: raw, MIMEType: "image/png"}
		}
	}

	artifact, genErr := p.gateway.SynthesizeVideo(ctx, scene.Description, ref, proj.AspectRatio)
	if genErr != nil {
		p.failScene(ctx, task.ProjectID, task.SceneID, UserMessage(genErr))
		return genErr
	}

	objectName := fmt.Sprintf("scenes/%s/video.mp4", task.SceneID)
	videoURL, upErr := p.uploader.Upload(ctx, objectName, bytes.NewReader(artifact.Bytes), int64(len(artifact.Bytes)), artifact.MIMEType)
	if upErr != nil {
		p.failScene(ctx, task.ProjectID, task.SceneID, "Failed to store generated video")
		return upErr
	}

	applied := false
	if _, err := p.store.Mutate(ctx, task.ProjectID, func(pr *models.Project) error {
		applied = pr.CompleteScene(task.SceneID, videoURL)
		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("项目 %s 已删除，丢弃视频结果", task.ProjectID)
			return nil
		}
		return err
	}
	if !applied {
		// 分镜在生成期间被删除：丢弃，不是错误
		log.Printf("分镜 %s 已删除，丢弃视频结果", task.SceneID)
		return nil
	}
	log.Printf("分镜 %s 视频生成完成: %s", task.SceneID, videoURL)
	return nil
}

// failScene 把生成失败写到分镜上；目标已不存在时静默丢弃。
func (p *Producer) failScene(ctx context.Context, projectID, sceneID, message string) {
	if _, err := p.store.Mutate(ctx, projectID, func(pr *models.Project) error {
		pr.FailScene(sceneID, message)
		return nil
	}); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("记录分镜失败状态出错: %v", err)
	}
}

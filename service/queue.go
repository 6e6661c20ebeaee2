package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kroma-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerationTask = "generation:run"
)

type TaskPayload struct {
	TaskID string `json:"task_id"`
}

var QueueClient *asynq.Client

// InitQueue 初始化
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueGeneration 生成任务入队。MaxRetry(0)：网关不做自动重试，
// 失败后由用户显式重新触发。
func EnqueueGeneration(taskID string) error {
	payload, err := json.Marshal(TaskPayload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGenerationTask, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(20*time.Minute), // 视频生成较慢；超时后挂起的生成落为 error
		asynq.Retention(24*time.Hour),
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Task Enqueued: ID=%s, TaskID=%s", taskID, info.ID)
	return nil
}

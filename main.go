package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"kroma-server/config"
	"kroma-server/models"
	"kroma-server/routers"
	"kroma-server/routers/api"
	"kroma-server/service"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)

	var (
		store  service.ProjectStore
		tasks  service.TaskStore
		ledger service.CreditLedger
	)
	switch config.AppConfig.Storage.Driver {
	case "memory":
		// 本地开发/演示模式：数据仅保留在进程内
		store = service.NewMemoryProjectStore()
		tasks = service.NewMemoryTaskStore()
		ledger = service.NewMemoryLedger()
		fmt.Println("Using in-memory storage")
	default:
		models.InitDB()
		store = service.NewGormProjectStore(models.GormDB)
		tasks = service.NewGormTaskStore(models.GormDB)
		ledger = service.NewGormLedger(models.GormDB)
		fmt.Println("Database initialized")
	}

	service.InitQueue()
	fmt.Println("Queue initialized")

	uploader := service.InitMinIO()
	fmt.Println("MinIO initialized")

	apiKey := os.Getenv(config.AppConfig.GenAI.APIKeyEnv)
	gateway, err := service.NewGeminiGateway(context.Background(), apiKey,
		config.AppConfig.GenAI.ScriptModel,
		config.AppConfig.GenAI.ImageModel,
		config.AppConfig.GenAI.VideoModel)
	if err != nil {
		log.Fatalf("生成网关初始化失败: %v", err)
	}

	producer := service.NewProducer(store, tasks, ledger, gateway, uploader, service.Costs{
		Script:    config.AppConfig.Credits.ScriptCost,
		Character: config.AppConfig.Credits.CharacterCost,
		Video:     config.AppConfig.Credits.VideoCost,
	})
	producer.StartProcessor(config.AppConfig.Worker.Concurrency)

	h := &api.Handler{
		Store:        store,
		Tasks:        tasks,
		Ledger:       ledger,
		Producer:     producer,
		InitialGrant: config.AppConfig.Credits.InitialGrant,
	}
	r := routers.InitRouter(h)
	r.Run(config.AppConfig.Server.Port)
}

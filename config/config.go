package config

import (
    "log"
    "os"

    "github.com/joho/godotenv"
    "gopkg.in/yaml.v2"
)

type Config struct {
    Server struct {
        Port string `yaml:"port"`
    } `yaml:"server"`
    Storage struct {
        // driver: mysql | memory（memory 仅保留会话内数据，适合本地开发/测试）
        Driver string `yaml:"driver"`
    } `yaml:"storage"`
    MySQL struct {
        DSN string `yaml:"dsn"`
    } `yaml:"mysql"`
    Redis struct {
        Addr     string `yaml:"addr"`
        Password string `yaml:"password"`
    } `yaml:"redis"`
    GenAI struct {
        APIKeyEnv   string `yaml:"api_key_env"`
        ScriptModel string `yaml:"script_model"`
        ImageModel  string `yaml:"image_model"`
        VideoModel  string `yaml:"video_model"`
    } `yaml:"genai"`
    Credits struct {
        // 各付费操作的成本（信用点）
        ScriptCost    int64 `yaml:"script_cost"`
        CharacterCost int64 `yaml:"character_cost"`
        VideoCost     int64 `yaml:"video_cost"`
        // 新用户的初始赠送额度
        InitialGrant int64 `yaml:"initial_grant"`
    } `yaml:"credits"`
    Worker struct {
        Concurrency int `yaml:"concurrency"`
    } `yaml:"worker"`
    MinIO struct {
        Endpoint  string `yaml:"endpoint"`
        AccessKey string `yaml:"access_key"`
        SecretKey string `yaml:"secret_key"`
        Bucket    string `yaml:"bucket"`
        UseSSL    bool   `yaml:"use_ssl"`
    } `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
    // 本地开发时从 .env 读取密钥等环境变量（生产环境直接注入）
    _ = godotenv.Load()

    f, err := os.Open("config/config.yaml")
    if err != nil {
        log.Fatalf("配置文件读取失败: %v", err)
    }
    defer f.Close()
    decoder := yaml.NewDecoder(f)
    AppConfig = &Config{}
    if err := decoder.Decode(AppConfig); err != nil {
        log.Fatalf("配置文件解析失败: %v", err)
    }
    ApplyDefaults(AppConfig)
}

// ApplyDefaults 填充缺省配置（成本常量来自产品定价，可按需覆盖）
func ApplyDefaults(c *Config) {
    if c.Storage.Driver == "" {
        c.Storage.Driver = "mysql"
    }
    if c.GenAI.APIKeyEnv == "" {
        c.GenAI.APIKeyEnv = "GEMINI_API_KEY"
    }
    if c.GenAI.ScriptModel == "" {
        c.GenAI.ScriptModel = "gemini-2.5-flash"
    }
    if c.GenAI.ImageModel == "" {
        c.GenAI.ImageModel = "imagen-3.0-generate-002"
    }
    if c.GenAI.VideoModel == "" {
        c.GenAI.VideoModel = "veo-3.1-generate-preview"
    }
    if c.Credits.ScriptCost == 0 {
        c.Credits.ScriptCost = 10
    }
    if c.Credits.CharacterCost == 0 {
        c.Credits.CharacterCost = 25
    }
    if c.Credits.VideoCost == 0 {
        c.Credits.VideoCost = 150
    }
    if c.Credits.InitialGrant == 0 {
        c.Credits.InitialGrant = 100
    }
    if c.Worker.Concurrency <= 0 {
        c.Worker.Concurrency = 5
    }
}

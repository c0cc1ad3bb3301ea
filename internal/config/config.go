package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	GuidePerHour   int           `yaml:"guide_per_hour"` // rate limit for guide generation, per plan
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	ImageProvider     string `yaml:"image_provider"` // gemini | openai | noop
	GeminiKey         string `yaml:"gemini_key"`
	GeminiURL         string `yaml:"gemini_url"`
	TextModel         string `yaml:"text_model"`
	ImageModel        string `yaml:"image_model"`
	OpenAIKey         string `yaml:"openai_key"`
	OpenAIImageModel  string `yaml:"openai_image_model"`
	PromptTokenBudget int    `yaml:"prompt_token_budget"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // gcs | noop
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type TasksConfig struct {
	Mode       string `yaml:"mode"` // push | poll
	Project    string `yaml:"project"`
	Location   string `yaml:"location"`
	Queue      string `yaml:"queue"`
	HandlerURL string `yaml:"handler_url"`
}

type JobsConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	PollInterval time.Duration `yaml:"poll_interval"`
	StaleAfter   time.Duration `yaml:"stale_after"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Storage  StorageConfig  `yaml:"storage"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Jobs     JobsConfig     `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.GuidePerHour <= 0 {
		cfg.Server.GuidePerHour = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.AI.ImageProvider == "" {
		cfg.AI.ImageProvider = "gemini"
	}
	if cfg.AI.TextModel == "" {
		cfg.AI.TextModel = "gemini-2.0-flash"
	}
	if cfg.AI.ImageModel == "" {
		cfg.AI.ImageModel = "imagen-3.0-generate-002"
	}
	if cfg.AI.OpenAIImageModel == "" {
		cfg.AI.OpenAIImageModel = "dall-e-3"
	}
	if cfg.AI.PromptTokenBudget <= 0 {
		cfg.AI.PromptTokenBudget = 480
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "noop"
	}
	if cfg.Tasks.Mode == "" {
		cfg.Tasks.Mode = "poll"
	}
	if cfg.Jobs.Concurrency <= 0 {
		cfg.Jobs.Concurrency = 4
	}
	if cfg.Jobs.PollInterval <= 0 {
		cfg.Jobs.PollInterval = 2 * time.Second
	}
	if cfg.Jobs.StaleAfter <= 0 {
		cfg.Jobs.StaleAfter = 10 * time.Minute
	}
	if cfg.Jobs.MaxAttempts <= 0 {
		cfg.Jobs.MaxAttempts = 3
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	switch cfg.Tasks.Mode {
	case "poll":
	case "push":
		if cfg.Tasks.Project == "" || cfg.Tasks.Location == "" || cfg.Tasks.Queue == "" || cfg.Tasks.HandlerURL == "" {
			return nil, errors.New("tasks.project, tasks.location, tasks.queue and tasks.handler_url are required when tasks.mode is push")
		}
	default:
		return nil, fmt.Errorf("tasks.mode must be push or poll, got %q", cfg.Tasks.Mode)
	}
	if cfg.Storage.Backend == "gcs" && cfg.Storage.Bucket == "" {
		return nil, errors.New("storage.bucket is required when storage.backend is gcs")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

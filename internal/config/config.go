package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	AuthDebug  bool   `yaml:"auth_debug" env:"AUTH_DEBUG" env-default:"true"`
	Tokens     `yaml:"tokens"`
	Cookie     `yaml:"cookie"`
	Postgres   `yaml:"postgres"`
	RabbitMQ   `yaml:"rabbitmq"`
	LLM        `yaml:"llm"`
	HTTPServer `yaml:"http_server"`
	Logs       `yaml:"logs"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env-default:"localhost:8080"`
	Timeout      time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowOrigins []string      `yaml:"allow_origins" env-default:"http://127.0.0.1:8080,http://localhost:8080"`
}

type Tokens struct {
	// JWTSecret signs access tokens. A missing secret is a fatal startup
	// condition, there is no default.
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	SessionTTL     time.Duration `yaml:"session_ttl" env-default:"336h"`
}

type Cookie struct {
	Name   string `yaml:"name" env-default:"refresh_token"`
	Secure bool   `yaml:"secure" env-default:"false"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"auth_events"`
}

type LLM struct {
	BaseURL      string        `yaml:"base_url" env:"LLM_BASE_URL" env-required:"true"`
	APIKey       string        `yaml:"api_key" env:"LLM_API_KEY" env-required:"true"`
	Model        string        `yaml:"model" env-default:"gpt-4o"`
	Timeout      time.Duration `yaml:"timeout" env-default:"60s"`
	SystemPrompt string        `yaml:"system_prompt" env-default:"You are a helpful assistant. Answer briefly and to the point."`
}

type Logs struct {
	Dir        string `yaml:"dir" env-default:"logs"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"5"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return &cfg
}

package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env            string `yaml:"env" env-default:"local"`
	StoragePath    string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr      string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	MigrationsPath string `yaml:"migrations_path" env-default:"./migrations"`
	MeetingBaseURL string `yaml:"meeting_base_url" env-default:"https://meet.example.com"`
	AutoConfirm    bool   `yaml:"auto_confirm" env-default:"false"`
	HTTPServer     `yaml:"http_server"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

func MustLoad() *Config {
	// .env is optional, it only matters for local runs
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}

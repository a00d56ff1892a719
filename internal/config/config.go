package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort     string
	InferenceURL string
	CORSOrigins  string

	MaxAudioBytes int
	LogLevel      string
	Environment   string

	ParseTimeout       time.Duration
	ModelTimeout       time.Duration
	UploadModelTimeout time.Duration
	ProbeTimeout       time.Duration

	// DatabaseURL пустой = история отключена
	DatabaseURL string
}

func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func LoadConfig() *Config {
	// Загрузка .env файла (если существует)
	if err := godotenv.Load(); err != nil {
		// Игнорируем ошибку, если файл не найден - используем переменные окружения системы
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		HTTPPort:           getEnv("PORT", "8000"),
		InferenceURL:       getEnv("INFERENCE_URL", "http://localhost:9000"),
		CORSOrigins:        getEnv("CORS_ORIGINS", "*"),
		MaxAudioBytes:      getEnvInt("MAX_AUDIO_BYTES", 3_000_000),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		ParseTimeout:       getEnvDuration("PARSE_TIMEOUT_MS", 2000),
		ModelTimeout:       getEnvDuration("MODEL_TIMEOUT_MS", 8000),
		UploadModelTimeout: getEnvDuration("UPLOAD_MODEL_TIMEOUT_MS", 10000),
		ProbeTimeout:       getEnvDuration("PROBE_TIMEOUT_MS", 3000),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
	}

	if cfg.MaxAudioBytes <= 0 {
		log.Println("WARNING: MAX_AUDIO_BYTES must be positive, using default: 3000000")
		cfg.MaxAudioBytes = 3_000_000
	}

	return cfg
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		RateLimit    struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"` // tokens per second
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Backend struct {
		BaseURL string        `yaml:"baseURL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	Evaluation struct {
		DefaultProvider string `yaml:"defaultProvider"`
		// per-project budget for assistant-calling routes
		RunBurst      int `yaml:"runBurst"`
		RunsPerMinute int `yaml:"runsPerMinute"`
	} `yaml:"evaluation"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres, empty = no ledger
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Redis struct {
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		TTL        time.Duration `yaml:"ttl"`
		MaxHistory int           `yaml:"maxHistory"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		PresignTTL time.Duration `yaml:"presignTTL"`
	} `yaml:"minio"`

	Auth struct {
		// client name → API key; empty disables auth
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	Log struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"`
	} `yaml:"log"`

	Report struct {
		Competitors []string `yaml:"competitors"` // empty = built-in list
	} `yaml:"report"`
}

// Load baca .env (kalau ada), lalu file config.yaml, lalu override dari env.
// A missing yaml file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Backend.BaseURL = getEnv("BACKEND_BASE_URL", c.Backend.BaseURL)
	c.Evaluation.DefaultProvider = getEnv("DEFAULT_PROVIDER", c.Evaluation.DefaultProvider)
	c.Evaluation.RunsPerMinute = getEnvAsInt("RUNS_PER_MINUTE", c.Evaluation.RunsPerMinute)

	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.Model = getEnv("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)

	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DATABASE_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DATABASE_PORT", c.Database.Port)
	c.Database.User = getEnv("DATABASE_USER", c.Database.User)
	c.Database.Password = getEnv("DATABASE_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DATABASE_NAME", c.Database.Name)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.BucketName = getEnv("MINIO_BUCKET", c.Minio.BucketName)
	c.Minio.UseSSL = getEnvAsBool("MINIO_USE_SSL", c.Minio.UseSSL)
	c.Minio.Region = getEnv("MINIO_REGION", c.Minio.Region)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Env = getEnv("APP_ENV", c.Log.Env)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 100
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 10
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 2 * time.Minute
	}
	if c.Evaluation.DefaultProvider == "" {
		c.Evaluation.DefaultProvider = "chatgpt"
	}
	if c.Evaluation.RunBurst == 0 {
		c.Evaluation.RunBurst = 3
	}
	if c.Evaluation.RunsPerMinute == 0 {
		c.Evaluation.RunsPerMinute = 6
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "postgres":
			c.Database.Port = 5432
		case "mysql":
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Redis.MaxHistory == 0 {
		c.Redis.MaxHistory = 20
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "geo-reports"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = "development"
	}
}

// DatabaseEnabled: the export ledger is optional
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Driver != "" && c.Database.Host != ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN in lib/pq key=value form
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

func (c *Config) RedisEnabled() bool { return c.Redis.Addr != "" }

func (c *Config) MinioEnabled() bool { return c.Minio.Endpoint != "" }

func (c *Config) OpenAIEnabled() bool { return c.OpenAI.APIKey != "" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

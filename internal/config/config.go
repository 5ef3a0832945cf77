// Package config loads service settings from an optional YAML file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`

	DB struct {
		DSN                string        `yaml:"dsn"`
		MaxOpenConnections int           `yaml:"max_open_conns"`
		MaxIdleConnections int           `yaml:"max_idle_conns"`
		MaxIdleTime        time.Duration `yaml:"max_idle_time"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Sender   string `yaml:"sender"`
	} `yaml:"smtp"`

	JWT struct {
		Secret     string  `yaml:"secret"`
		ExpiryDays float64 `yaml:"expiry_days"`
	} `yaml:"jwt"`

	FrontendURL string `yaml:"frontend_url"`
}

func defaults() *Config {
	cfg := &Config{
		Port: 3000,
		Env:  EnvDevelopment,
	}
	cfg.DB.MaxOpenConnections = 25
	cfg.DB.MaxIdleConnections = 25
	cfg.DB.MaxIdleTime = 15 * time.Minute
	cfg.Redis.Prefix = "todo:"
	cfg.Minio.Endpoint = "localhost:9000"
	cfg.Minio.AccessKey = "minioadmin"
	cfg.Minio.SecretKey = "minioadmin"
	cfg.Minio.Bucket = "todo-files"
	cfg.Minio.Region = "us-east-1"
	cfg.SMTP.Port = 25
	cfg.JWT.ExpiryDays = 1
	cfg.FrontendURL = "http://localhost:5173"
	return cfg
}

// Load builds the configuration for the process. args excludes the program
// name.
func Load(args []string) (*Config, error) {
	cfg := defaults()

	path := configPath(args)
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.String("config", path, "YAML configuration file")
	fs.IntVar(&cfg.Port, "port", envInt("PORT", cfg.Port), "Server Port")
	fs.StringVar(&cfg.Env, "env", envString("ENV", cfg.Env), "Environment [development|production]")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", cfg.DB.DSN), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConnections, "db-max-open-conns", cfg.DB.MaxOpenConnections, "PostgreSQL max open connections")
	fs.IntVar(&cfg.DB.MaxIdleConnections, "db-max-idle-conns", cfg.DB.MaxIdleConnections, "PostgreSQL max idle connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", cfg.DB.MaxIdleTime, "PostgreSQL max connection idle time")

	fs.StringVar(&cfg.Redis.Addr, "redis-addr", envString("REDIS_ADDR", cfg.Redis.Addr), "Redis address, in-memory cache when empty")
	fs.StringVar(&cfg.Redis.Password, "redis-password", envString("REDIS_PASSWORD", cfg.Redis.Password), "Redis password")
	fs.IntVar(&cfg.Redis.DB, "redis-db", envInt("REDIS_DB", cfg.Redis.DB), "Redis database")
	fs.StringVar(&cfg.Redis.Prefix, "redis-prefix", cfg.Redis.Prefix, "Redis key prefix")

	fs.StringVar(&cfg.Minio.Endpoint, "minio-endpoint", envString("MINIO_ENDPOINT", cfg.Minio.Endpoint), "MinIO endpoint")
	fs.StringVar(&cfg.Minio.AccessKey, "minio-access-key", envString("MINIO_ACCESS_KEY", cfg.Minio.AccessKey), "MinIO access key")
	fs.StringVar(&cfg.Minio.SecretKey, "minio-secret-key", envString("MINIO_SECRET_KEY", cfg.Minio.SecretKey), "MinIO secret key")
	fs.StringVar(&cfg.Minio.Bucket, "minio-bucket", envString("MINIO_BUCKET", cfg.Minio.Bucket), "MinIO bucket for attachments")
	fs.StringVar(&cfg.Minio.Region, "minio-region", envString("MINIO_REGION", cfg.Minio.Region), "MinIO region")
	fs.BoolVar(&cfg.Minio.UseSSL, "minio-ssl", cfg.Minio.UseSSL, "Use HTTPS for MinIO")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", cfg.SMTP.Host), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", cfg.SMTP.Port), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", cfg.SMTP.Username), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", cfg.SMTP.Password), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", cfg.SMTP.Sender), "SMTP sender")

	fs.StringVar(&cfg.JWT.Secret, "jwt-secret", envString("JWT_SECRET", cfg.JWT.Secret), "JWT secret")
	fs.Float64Var(&cfg.JWT.ExpiryDays, "jwt-expiry-days", cfg.JWT.ExpiryDays, "JWT lifetime in days")

	fs.StringVar(&cfg.FrontendURL, "frontend-url", envString("FRONTEND_URL", cfg.FrontendURL), "Front-end base URL used in confirmation links")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		cfg.JWT.Secret = hex.EncodeToString(secret)
	}

	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("invalid environment %q", c.Env)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.JWT.ExpiryDays <= 0 {
		return errors.New("jwt expiry must be positive")
	}
	if c.Env == EnvProduction {
		if c.JWT.Secret == "" {
			return errors.New("JWT_SECRET is required in production")
		}
		if c.DB.DSN == "" {
			return errors.New("DB_DSN is required in production")
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// configPath finds -config before the flag set is parsed so the file can
// supply defaults for every other flag.
func configPath(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("CONFIG_FILE")
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Package config assembles runtime settings from defaults, an optional YAML
// file, a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// devSecret is only accepted together with the memory driver.
const devSecret = "dev-secret-change-me"

type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	StoreDriver    string        `yaml:"store_driver"`
	DatabaseURL    string        `yaml:"database_url"`
	MongoURL       string        `yaml:"mongo_url"`
	MongoDatabase  string        `yaml:"mongo_database"`
	JWTSecret      string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8001"
	c.StoreDriver = DriverMemory
	c.MongoURL = "mongodb://localhost:27017"
	c.MongoDatabase = "smartpen_db"
	c.AccessTokenTTL = 30 * time.Minute
	c.LogLevel = "info"
	c.CORSOrigins = []string{"*"}
}

// Load builds a Config. path names an optional YAML file; "" skips it.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.parseYAML(path); err != nil {
		return nil, err
	}
	if err := cfg.parseEnv(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" && cfg.StoreDriver == DriverMemory {
		cfg.JWTSecret = devSecret
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	case DriverMongo:
		if c.MongoURL == "" || c.MongoDatabase == "" {
			return errors.New("config: MONGO_URL and MONGO_DATABASE are required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET_KEY is required")
	}
	if c.JWTSecret == devSecret && c.StoreDriver != DriverMemory {
		return errors.New("config: the development JWT secret cannot be used with a persistent store")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("config: ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) parseYAML(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) parseEnv() error {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MongoURL = getEnv("MONGO_URL", c.MongoURL)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.JWTSecret = getEnv("JWT_SECRET_KEY", c.JWTSecret)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)

	if v := getEnv("ACCESS_TOKEN_TTL", ""); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: ACCESS_TOKEN_TTL: %w", err)
		}
		c.AccessTokenTTL = ttl
	}
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		return value
	}
	return fallback
}

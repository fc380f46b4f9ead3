package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	Store           string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	RedisDB         int
	UserCacheTTL    time.Duration
	ClerkSecretKey  string
	GoogleMapsKey   string
	CronSecret      string
	AllowedOrigins  []string
	InactivityLease time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8400")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE", StoreMongo)
	v.SetDefault("MONGODB_DATABASE", "wya")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("USER_CACHE_TTL", "5m")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("INACTIVITY_LEASE_TTL", "10m")

	cfg := &Config{
		Port:            v.GetString("PORT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Store:           strings.ToLower(v.GetString("STORE")),
		MongoURI:        v.GetString("MONGODB_URI"),
		MongoDatabase:   v.GetString("MONGODB_DATABASE"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisDB:         v.GetInt("REDIS_DB"),
		UserCacheTTL:    v.GetDuration("USER_CACHE_TTL"),
		ClerkSecretKey:  v.GetString("CLERK_SECRET_KEY"),
		GoogleMapsKey:   v.GetString("GOOGLE_MAPS_API_KEY"),
		CronSecret:      v.GetString("CRON_SECRET"),
		AllowedOrigins:  splitList(v.GetString("ALLOWED_ORIGINS")),
		InactivityLease: v.GetDuration("INACTIVITY_LEASE_TTL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI environment variable is not set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.ClerkSecretKey == "" {
		return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}
	if c.UserCacheTTL <= 0 {
		return fmt.Errorf("USER_CACHE_TTL must be positive")
	}
	if c.InactivityLease <= 0 {
		return fmt.Errorf("INACTIVITY_LEASE_TTL must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

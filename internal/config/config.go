// backend-go/internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Lock     LockConfig
	Notify   NotifyConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConcurrentTx int
}

// DSN renders the lib/pq keyword connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL renders the same target as a postgres:// URL for pgx.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	PricingTTLSeconds int
}

type LockConfig struct {
	Driver     string
	TTLSeconds int
}

type NotifyConfig struct {
	Driver  string
	Channel string
	Buffer  int
}

type MetricsConfig struct {
	Enabled bool
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
	LockDriverLocal     = "local"
	LockDriverRedis     = "redis"
	NotifyDriverLog     = "log"
	NotifyDriverRedis   = "redis"
)

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "butcherline")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_MAX_CONCURRENT_TX", 10)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PRICING_TTL_SECONDS", 300)
		viper.SetDefault("LOCK_DRIVER", LockDriverLocal)
		viper.SetDefault("LOCK_TTL_SECONDS", 10)
		viper.SetDefault("NOTIFY_DRIVER", NotifyDriverLog)
		viper.SetDefault("NOTIFY_CHANNEL", "butcherline:events")
		viper.SetDefault("NOTIFY_BUFFER", 256)
		viper.SetDefault("METRICS_ENABLED", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				LogLevel:       viper.GetString("LOG_LEVEL"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: splitOrigins(viper.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
			},
			Database: DatabaseConfig{
				Driver:          strings.ToLower(viper.GetString("STORE_DRIVER")),
				Host:            viper.GetString("DB_HOST"),
				Port:            viper.GetString("DB_PORT"),
				User:            viper.GetString("DB_USER"),
				Password:        viper.GetString("DB_PASSWORD"),
				DBName:          viper.GetString("DB_NAME"),
				SSLMode:         viper.GetString("DB_SSLMODE"),
				MaxConcurrentTx: viper.GetInt("DB_MAX_CONCURRENT_TX"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				PricingTTLSeconds: viper.GetInt("CACHE_PRICING_TTL_SECONDS"),
			},
			Lock: LockConfig{
				Driver:     strings.ToLower(viper.GetString("LOCK_DRIVER")),
				TTLSeconds: viper.GetInt("LOCK_TTL_SECONDS"),
			},
			Notify: NotifyConfig{
				Driver:  strings.ToLower(viper.GetString("NOTIFY_DRIVER")),
				Channel: viper.GetString("NOTIFY_CHANNEL"),
				Buffer:  viper.GetInt("NOTIFY_BUFFER"),
			},
			Metrics: MetricsConfig{
				Enabled: viper.GetBool("METRICS_ENABLED"),
			},
		}
	})

	return instance
}

// splitOrigins accepts both a real list and a single comma separated env value.
func splitOrigins(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

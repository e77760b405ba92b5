// internal/config/config.go
package config

import (
	"runtime"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	BatchTTLHours int
}

type ArchiveConfig struct {
	Enabled bool
	Dir     string
}

// EngineConfig carries the tuning knobs of the decision engine.
type EngineConfig struct {
	MinPoints          int
	TopModels          int
	FitThreshold       float64
	FallbackConfidence float64
	MaxConfidence      float64
	Workers            int
	LookaheadDays      int
	ForestSeed         int64
	HorizonDays        int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "replenish")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_BATCH_TTL_HOURS", 48)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_DIR", "./data/decisions")
		viper.SetDefault("ENGINE_MIN_POINTS", 30)
		viper.SetDefault("ENGINE_TOP_MODELS", 2)
		viper.SetDefault("ENGINE_FIT_THRESHOLD", 0.5)
		viper.SetDefault("ENGINE_FALLBACK_CONFIDENCE", 0.3)
		viper.SetDefault("ENGINE_MAX_CONFIDENCE", 0.95)
		viper.SetDefault("ENGINE_WORKERS", 0)
		viper.SetDefault("ENGINE_LOOKAHEAD_DAYS", 45)
		viper.SetDefault("ENGINE_FOREST_SEED", 42)
		viper.SetDefault("ENGINE_HORIZON_DAYS", 30)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				BatchTTLHours: viper.GetInt("CACHE_BATCH_TTL_HOURS"),
			},
			Archive: ArchiveConfig{
				Enabled: viper.GetBool("ARCHIVE_ENABLED"),
				Dir:     viper.GetString("ARCHIVE_DIR"),
			},
			Engine: EngineConfig{
				MinPoints:          viper.GetInt("ENGINE_MIN_POINTS"),
				TopModels:          viper.GetInt("ENGINE_TOP_MODELS"),
				FitThreshold:       viper.GetFloat64("ENGINE_FIT_THRESHOLD"),
				FallbackConfidence: viper.GetFloat64("ENGINE_FALLBACK_CONFIDENCE"),
				MaxConfidence:      viper.GetFloat64("ENGINE_MAX_CONFIDENCE"),
				Workers:            viper.GetInt("ENGINE_WORKERS"),
				LookaheadDays:      viper.GetInt("ENGINE_LOOKAHEAD_DAYS"),
				ForestSeed:         viper.GetInt64("ENGINE_FOREST_SEED"),
				HorizonDays:        viper.GetInt("ENGINE_HORIZON_DAYS"),
			},
		}
	})

	return instance
}

// EffectiveWorkers resolves the worker pool size, 0 meaning one per CPU.
func (e EngineConfig) EffectiveWorkers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.NumCPU()
}

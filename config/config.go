package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort     string `validate:"required,numeric"`
	AppTimezone string
	// Gin framework configuration
	GinMode string `validate:"oneof=debug release test"`
	GinPath string
	// Database
	DBDriver    string `validate:"oneof=mysql postgres memory"`
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for allocation locks and stats cache
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int `validate:"gte=0,lte=65535"`
	RedisDB       int `validate:"gte=0"`
	RedisPassword string
	// Auth
	JWTSecret      string
	AuthEnabled    bool
	AdminUsernames []string
	// HTTP
	AllowedOrigins     []string
	RateLimitPerMinute int `validate:"gte=1"`
	// Mission engine
	MissionRewardPoints   int `validate:"gt=0"`
	CatalogSeedPath       string
	StreakRolloverEnabled bool
	// Logging configuration
	LogLevel      string `validate:"oneof=debug info warn error dpanic panic fatal silent"`
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// envKeys maps viper keys (grouped like config/config.json) to environment variables.
var envKeys = map[string]string{
	"app.port":                  "APP_PORT",
	"app.timezone":              "APP_TIMEZONE",
	"app.allowed_origins":       "CORS_ALLOWED_ORIGINS",
	"app.rate_limit_per_minute": "RATE_LIMIT_PER_MINUTE",
	"gin.mode":                  "GIN_MODE",
	"gin.path":                  "GIN_PATH",
	"database.driver":           "DB_DRIVER",
	"database.uri":              "DATABASE_URI",
	"database.host":             "DB_HOST",
	"database.port":             "DB_PORT",
	"database.user":             "DB_USER",
	"database.password":         "DB_PASSWORD",
	"database.name":             "DB_NAME",
	"redis.enabled":             "REDIS_ENABLED",
	"redis.host":                "REDIS_HOST",
	"redis.port":                "REDIS_PORT",
	"redis.db":                  "REDIS_DB",
	"redis.password":            "REDIS_PASSWORD",
	"auth.jwt_secret":           "JWT_SECRET",
	"auth.enabled":              "AUTH_ENABLED",
	"auth.admin_usernames":      "ADMIN_USERNAMES",
	"mission.reward_points":     "MISSION_REWARD_POINTS",
	"mission.catalog_seed_path": "CATALOG_SEED_PATH",
	"mission.streak_rollover":   "STREAK_ROLLOVER_ENABLED",
	"log.level":                 "LOG_LEVEL",
	"log.path":                  "LOG_PATH",
	"log.max_size_mb":           "LOG_MAX_SIZE_MB",
	"log.max_backups":           "LOG_MAX_BACKUPS",
	"log.max_age_days":          "LOG_MAX_AGE_DAYS",
	"log.compress":              "LOG_COMPRESS",
}

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	// .env is optional; already-set variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	v := viper.New()
	applyDefaults(v)
	v.SetConfigFile(filepath.Join("config", "config.json"))
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("invalid config/config.json: %v", err)
	}
	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}

	c := fromViper(v)
	if err := Validate(c); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	ok := loaded
	c := cfg
	mu.RUnlock()
	if !ok {
		return Load()
	}
	return c
}

// Set installs c as the active configuration. Used by tests and tools that
// build configuration programmatically.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

// Defaults returns the configuration obtained from defaults only.
func Defaults() AppConfig {
	v := viper.New()
	applyDefaults(v)
	return fromViper(v)
}

var validate = validator.New()

// Validate checks field constraints and cross-field requirements.
func Validate(c AppConfig) error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set when AUTH_ENABLED=true")
	}
	if c.AppTimezone != "" {
		if _, err := time.LoadLocation(c.AppTimezone); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves AppTimezone, falling back to the process local zone.
func (c AppConfig) Location() *time.Location {
	if c.AppTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.path", "logs/go_gin.log")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "studyhub")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("mission.reward_points", 50)
	v.SetDefault("mission.catalog_seed_path", filepath.Join("config", "missions.json"))
	v.SetDefault("mission.streak_rollover", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
}

func fromViper(v *viper.Viper) AppConfig {
	return AppConfig{
		AppPort:               v.GetString("app.port"),
		AppTimezone:           v.GetString("app.timezone"),
		AllowedOrigins:        readList(v, "app.allowed_origins"),
		RateLimitPerMinute:    v.GetInt("app.rate_limit_per_minute"),
		GinMode:               strings.ToLower(v.GetString("gin.mode")),
		GinPath:               v.GetString("gin.path"),
		DBDriver:              strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:           v.GetString("database.uri"),
		DBHost:                v.GetString("database.host"),
		DBPort:                v.GetString("database.port"),
		DBUser:                v.GetString("database.user"),
		DBPassword:            v.GetString("database.password"),
		DBName:                v.GetString("database.name"),
		RedisEnabled:          v.GetBool("redis.enabled"),
		RedisHost:             v.GetString("redis.host"),
		RedisPort:             v.GetInt("redis.port"),
		RedisDB:               v.GetInt("redis.db"),
		RedisPassword:         v.GetString("redis.password"),
		JWTSecret:             v.GetString("auth.jwt_secret"),
		AuthEnabled:           v.GetBool("auth.enabled"),
		AdminUsernames:        readList(v, "auth.admin_usernames"),
		MissionRewardPoints:   v.GetInt("mission.reward_points"),
		CatalogSeedPath:       v.GetString("mission.catalog_seed_path"),
		StreakRolloverEnabled: v.GetBool("mission.streak_rollover"),
		LogLevel:              strings.ToLower(v.GetString("log.level")),
		LogPath:               v.GetString("log.path"),
		LogMaxSizeMB:          v.GetInt("log.max_size_mb"),
		LogMaxBackups:         v.GetInt("log.max_backups"),
		LogMaxAgeDays:         v.GetInt("log.max_age_days"),
		LogCompress:           v.GetBool("log.compress"),
	}
}

// readList accepts either a JSON array or a comma separated env value.
func readList(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	items := []string{}
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}

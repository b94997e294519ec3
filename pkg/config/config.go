package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Row source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Env string `validate:"required,oneof=development production test"`

	Log      LogConfig
	Source   SourceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Reports  ReportsConfig
	Publish  PublishConfig
	Metrics  MetricsConfig
}

type LogConfig struct {
	Level  string
	Format string `validate:"omitempty,oneof=json console"`
}

// SourceConfig selects where the three raw datasets are read from.
type SourceConfig struct {
	Kind             string   `validate:"required,oneof=csv postgres"`
	DataDir          string   `validate:"required_if=Kind csv"`
	EnrollmentsFile  string   `validate:"required_if=Kind csv"`
	EngagementFile   string   `validate:"required_if=Kind csv"`
	SubmissionsFile  string   `validate:"required_if=Kind csv"`
	EnrollmentsTable string   `validate:"required_if=Kind postgres"`
	EngagementTable  string   `validate:"required_if=Kind postgres"`
	SubmissionsTable string   `validate:"required_if=Kind postgres"`
	Columns          []string `validate:"dive,oneof=num_courses_visited total_minutes_visited lessons_completed projects_completed days_visited"`
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ReportsConfig controls rendering of the funnel report and histograms.
type ReportsConfig struct {
	Enabled       bool
	StorageDir    string `validate:"required_if=Enabled true"`
	HistogramBins int    `validate:"min=1,max=100"`
	ChartWidth    int    `validate:"min=200"`
	ChartHeight   int    `validate:"min=150"`
	FontPath      string
}

// PublishConfig governs publishing the final report to Redis.
type PublishConfig struct {
	Enabled   bool
	KeyPrefix string `validate:"required_if=Enabled true"`
	TTL       time.Duration
}

// MetricsConfig points at a node-exporter textfile; empty disables the export.
type MetricsConfig struct {
	TextfilePath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Source = SourceConfig{
		Kind:             strings.ToLower(v.GetString("FUNNEL_SOURCE")),
		DataDir:          v.GetString("FUNNEL_DATA_DIR"),
		EnrollmentsFile:  v.GetString("FUNNEL_ENROLLMENTS_FILE"),
		EngagementFile:   v.GetString("FUNNEL_ENGAGEMENT_FILE"),
		SubmissionsFile:  v.GetString("FUNNEL_SUBMISSIONS_FILE"),
		EnrollmentsTable: v.GetString("FUNNEL_ENROLLMENTS_TABLE"),
		EngagementTable:  v.GetString("FUNNEL_ENGAGEMENT_TABLE"),
		SubmissionsTable: v.GetString("FUNNEL_SUBMISSIONS_TABLE"),
		Columns:          splitAndTrim(v.GetString("FUNNEL_COLUMNS")),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:       v.GetBool("ENABLE_REPORTS"),
		StorageDir:    v.GetString("REPORTS_STORAGE_DIR"),
		HistogramBins: v.GetInt("REPORTS_HISTOGRAM_BINS"),
		ChartWidth:    v.GetInt("REPORTS_CHART_WIDTH"),
		ChartHeight:   v.GetInt("REPORTS_CHART_HEIGHT"),
		FontPath:      v.GetString("REPORTS_FONT_PATH"),
	}

	cfg.Publish = PublishConfig{
		Enabled:   v.GetBool("ENABLE_PUBLISH"),
		KeyPrefix: v.GetString("PUBLISH_KEY_PREFIX"),
		TTL:       parseDuration(v.GetString("PUBLISH_TTL"), 7*24*time.Hour),
	}

	cfg.Metrics = MetricsConfig{
		TextfilePath: v.GetString("METRICS_TEXTFILE"),
	}

	return cfg
}

// Validate checks field constraints and wraps failures as configuration errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConfig.Code, appErrors.ErrConfig.ExitCode, appErrors.ErrConfig.Message)
	}
	return nil
}

// RedisAddr renders the host:port pair for the Redis client.
func (c RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FUNNEL_SOURCE", SourceCSV)
	v.SetDefault("FUNNEL_DATA_DIR", ".")
	v.SetDefault("FUNNEL_ENROLLMENTS_FILE", "enrollments.csv")
	v.SetDefault("FUNNEL_ENGAGEMENT_FILE", "daily_engagement.csv")
	v.SetDefault("FUNNEL_SUBMISSIONS_FILE", "project_submissions.csv")
	v.SetDefault("FUNNEL_ENROLLMENTS_TABLE", "enrollments")
	v.SetDefault("FUNNEL_ENGAGEMENT_TABLE", "daily_engagement")
	v.SetDefault("FUNNEL_SUBMISSIONS_TABLE", "project_submissions")
	v.SetDefault("FUNNEL_COLUMNS", "total_minutes_visited,lessons_completed,days_visited")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_analytics")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")
	v.SetDefault("REPORTS_HISTOGRAM_BINS", 8)
	v.SetDefault("REPORTS_CHART_WIDTH", 640)
	v.SetDefault("REPORTS_CHART_HEIGHT", 480)
	v.SetDefault("REPORTS_FONT_PATH", "")

	v.SetDefault("ENABLE_PUBLISH", false)
	v.SetDefault("PUBLISH_KEY_PREFIX", "funnel:report")
	v.SetDefault("PUBLISH_TTL", "168h")

	v.SetDefault("METRICS_TEXTFILE", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

// config реализует конфигурацию engagement-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Ops        OpsConfig        `yaml:"ops"`
	DB         DBConfig         `yaml:"db"`
	Limits     LimitsConfig     `yaml:"limits"`
	Moderation ModerationConfig `yaml:"moderation"`
	Reading    ReadingConfig    `yaml:"reading"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки REST API.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50086"`
}

// GRPCConfig — сетевые настройки gRPC-сервера (health/reflection).
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50056"`
}

// OpsConfig — служебный HTTP (livez/healthz/metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50096"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// DBConfig — настройки подключения к MongoDB.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
	// ConflictRetries — число повторов compare-and-swap при конкурентном
	// обновлении одного агрегата; после исчерпания наружу уходит Conflict.
	ConflictRetries int `yaml:"conflict_retries" env:"DB_CONFLICT_RETRIES" env-default:"3"`
	// ConflictBackoff — пауза между CAS-повторами.
	ConflictBackoff time.Duration `yaml:"conflict_backoff" env:"DB_CONFLICT_BACKOFF" env-default:"25ms"`
}

// LimitsConfig — лимиты на выдачу и размеры контента.
type LimitsConfig struct {
	// Пагинация: page_size=0 -> берём Default; верхняя граница — Max.
	Default int32 `yaml:"default" env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int32 `yaml:"max"     env:"MAX_LIMIT"     env-default:"100"`
	// Границы длины комментария в символах (руны).
	CommentMinLen int `yaml:"comment_min_len" env:"COMMENT_MIN_LEN" env-default:"1"`
	CommentMaxLen int `yaml:"comment_max_len" env:"COMMENT_MAX_LEN" env-default:"2000"`
	// Границы длины страницы истории в символах (руны).
	PageMinLen int `yaml:"page_min_len" env:"PAGE_MIN_LEN" env-default:"50"`
	PageMaxLen int `yaml:"page_max_len" env:"PAGE_MAX_LEN" env-default:"40000"`
	// EditHistoryDepth — сколько последних редакций комментария храним.
	EditHistoryDepth int `yaml:"edit_history_depth" env:"EDIT_HISTORY_DEPTH" env-default:"10"`
}

// ModerationConfig — правила автоматической модерации.
type ModerationConfig struct {
	// AutoFlagThreshold — число уникальных жалоб, при котором активный
	// комментарий автоматически переводится в flagged.
	AutoFlagThreshold int32 `yaml:"auto_flag_threshold" env:"AUTO_FLAG_THRESHOLD" env-default:"3"`
}

// ReadingConfig — параметры расчёта времени чтения.
type ReadingConfig struct {
	// WordsPerMinute — скорость чтения для readingTimeMinutes = ceil(words/WPM).
	WordsPerMinute int32 `yaml:"words_per_minute" env:"WORDS_PER_MINUTE" env-default:"200"`
}

// ScoringConfig — веса формулы engagement score.
// Формула: views*Views + likes*Likes + comments*Comments +
// ratingCount*RatingCount + averageRating*AverageRating.
// Веса вынесены в конфигурацию, чтобы тюнинг ранжирования не требовал релиза.
type ScoringConfig struct {
	Views         float64 `yaml:"views"          env:"SCORE_VIEWS"          env-default:"1"`
	Likes         float64 `yaml:"likes"          env:"SCORE_LIKES"          env-default:"5"`
	Comments      float64 `yaml:"comments"       env:"SCORE_COMMENTS"       env-default:"3"`
	RatingCount   float64 `yaml:"rating_count"   env:"SCORE_RATING_COUNT"   env-default:"2"`
	AverageRating float64 `yaml:"average_rating" env:"SCORE_AVERAGE_RATING" env-default:"10"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}

		if err := c.validate(); err != nil {
			return nil, err
		}

		return c, nil
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)
		if err != nil {
			return nil, err
		}

		if err := c.validate(); err != nil {
			return nil, err
		}

		return c, nil
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	if c.DB.ConflictRetries < 1 {
		return fmt.Errorf("db.conflict_retries must be >= 1")
	}

	if c.Limits.Default <= 0 {
		return fmt.Errorf("limits.default must be > 0")
	}

	if c.Limits.Max <= 0 {
		return fmt.Errorf("limits.max must be > 0")
	}

	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	if c.Limits.CommentMinLen < 1 || c.Limits.CommentMaxLen < c.Limits.CommentMinLen {
		return fmt.Errorf("limits.comment_min_len/comment_max_len are inconsistent")
	}

	if c.Limits.PageMinLen < 1 || c.Limits.PageMaxLen < c.Limits.PageMinLen {
		return fmt.Errorf("limits.page_min_len/page_max_len are inconsistent")
	}

	if c.Limits.EditHistoryDepth < 1 {
		return fmt.Errorf("limits.edit_history_depth must be >= 1")
	}

	if c.Moderation.AutoFlagThreshold < 1 {
		return fmt.Errorf("moderation.auto_flag_threshold must be >= 1")
	}

	if c.Reading.WordsPerMinute < 1 {
		return fmt.Errorf("reading.words_per_minute must be >= 1")
	}

	return nil
}

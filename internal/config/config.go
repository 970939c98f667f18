// Package config loads the engine configuration. Precedence is
// environment variables over an optional YAML file over built-in
// defaults, so deployments can override a checked-in config without
// editing it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces every environment variable of the engine.
const envPrefix = "TSR"

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	RefData    RefDataConfig    `yaml:"refdata" envconfig:"REFDATA"`
	Normalizer NormalizerConfig `yaml:"normalizer" envconfig:"NORMALIZER"`
	Entity     EntityConfig     `yaml:"entity" envconfig:"ENTITY"`
	Metrics    MetricsConfig    `yaml:"metrics" envconfig:"METRICS"`
	Signals    SignalsConfig    `yaml:"signals" envconfig:"SIGNALS"`
	Predictor  PredictorConfig  `yaml:"predictor" envconfig:"PREDICTOR"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// StorageConfig points at the SQLite database file.
type StorageConfig struct {
	DSN string `yaml:"dsn" envconfig:"DSN" validate:"required"`
}

// RefDataConfig locates reference-data inputs.
type RefDataConfig struct {
	// SnapshotFile is an optional YAML overlay on the built-in tables.
	SnapshotFile string `yaml:"snapshot_file" envconfig:"SNAPSHOT_FILE"`
	// WorkbookFile is an optional Excel workbook with freight and FX rows.
	WorkbookFile string        `yaml:"workbook_file" envconfig:"WORKBOOK_FILE"`
	MaxAge       time.Duration `yaml:"max_age" envconfig:"MAX_AGE"`
}

// NormalizerConfig contains the record pipeline tunables.
type NormalizerConfig struct {
	SuspectLowUSDPerMT    float64 `yaml:"suspect_low_usd_per_mt" envconfig:"SUSPECT_LOW_USD_PER_MT"`
	SuspectHighUSDPerMT   float64 `yaml:"suspect_high_usd_per_mt" envconfig:"SUSPECT_HIGH_USD_PER_MT" validate:"gtfield=SuspectLowUSDPerMT"`
	OutlierMADMultiplier  float64 `yaml:"outlier_mad_multiplier" envconfig:"OUTLIER_MAD_MULTIPLIER"`
	OutlierMinComparables int     `yaml:"outlier_min_comparables" envconfig:"OUTLIER_MIN_COMPARABLES" validate:"min=2"`
	// OutlierMultiplierByHCT overrides the MAD multiplier per commodity,
	// e.g. a wider band for commodities with legitimate grade spreads.
	OutlierMultiplierByHCT map[string]float64 `yaml:"outlier_multiplier_by_hct" envconfig:"OUTLIER_MULTIPLIER_BY_HCT"`
	MaxWorkers             int                `yaml:"max_workers" envconfig:"MAX_WORKERS"`
}

// EntityConfig contains resolver thresholds.
type EntityConfig struct {
	MatchThreshold  float64 `yaml:"match_threshold" envconfig:"MATCH_THRESHOLD" validate:"gt=0,lte=1"`
	ReviewThreshold float64 `yaml:"review_threshold" envconfig:"REVIEW_THRESHOLD" validate:"gt=0,ltfield=MatchThreshold"`
}

// MetricsConfig contains the metric engine thresholds.
type MetricsConfig struct {
	IPCWindowDays      int     `yaml:"ipc_window_days" envconfig:"IPC_WINDOW_DAYS" validate:"min=1"`
	IPCThinWindowDays  int     `yaml:"ipc_thin_window_days" envconfig:"IPC_THIN_WINDOW_DAYS"`
	MinRecordsHigh     int     `yaml:"min_records_high" envconfig:"MIN_RECORDS_HIGH"`
	MinRecordsMedium   int     `yaml:"min_records_medium" envconfig:"MIN_RECORDS_MEDIUM"`
	MaxDispersionHigh  float64 `yaml:"max_dispersion_high" envconfig:"MAX_DISPERSION_HIGH"`
	CoverageHigh       float64 `yaml:"coverage_high" envconfig:"COVERAGE_HIGH"`
	CoverageMedium     float64 `yaml:"coverage_medium" envconfig:"COVERAGE_MEDIUM"`
	MinSampleQuotable  int     `yaml:"min_sample_quotable" envconfig:"MIN_SAMPLE_QUOTABLE"`
	FVIRecentDays      int     `yaml:"fvi_recent_days" envconfig:"FVI_RECENT_DAYS" validate:"min=1"`
	FVIBaselineLag     int     `yaml:"fvi_baseline_lag" envconfig:"FVI_BASELINE_LAG" validate:"min=1"`
	SDOverPct          float64 `yaml:"sd_over_pct" envconfig:"SD_OVER_PCT"`
	SDSlightPct        float64 `yaml:"sd_slight_pct" envconfig:"SD_SLIGHT_PCT"`
	WithdrawalSharePct float64 `yaml:"withdrawal_share_pct" envconfig:"WITHDRAWAL_SHARE_PCT"`
	SurgeMultiplier    float64 `yaml:"surge_multiplier" envconfig:"SURGE_MULTIPLIER"`
}

// SignalsConfig contains signal generation and escalation tunables.
type SignalsConfig struct {
	IPCMovePct          float64       `yaml:"ipc_move_pct" envconfig:"IPC_MOVE_PCT"`
	IPCMoveHighPct      float64       `yaml:"ipc_move_high_pct" envconfig:"IPC_MOVE_HIGH_PCT"`
	CSSRatioTrigger     float64       `yaml:"css_ratio_trigger" envconfig:"CSS_RATIO_TRIGGER"`
	ConsecutiveForAlert int           `yaml:"consecutive_for_alert" envconfig:"CONSECUTIVE_FOR_ALERT" validate:"min=1"`
	Cooldown            time.Duration `yaml:"cooldown" envconfig:"COOLDOWN"`
	TTL                 time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// PredictorConfig contains the history gate and horizon.
type PredictorConfig struct {
	MinHistoryDays int `yaml:"min_history_days" envconfig:"MIN_HISTORY_DAYS" validate:"min=1"`
	HorizonDays    int `yaml:"horizon_days" envconfig:"HORIZON_DAYS" validate:"min=1"`
}

// Load loads configuration. The YAML file named by TSR_CONFIG_FILE
// (default config.yaml) is read first if it exists, environment
// variables are layered on top, and remaining zero values take the
// built-in defaults.
func Load() (*Config, error) {
	var cfg Config

	configFile := os.Getenv(envPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyDefaults fills zero values. Component packages default their own
// analytical thresholds; only the fields consumed directly by the
// binaries are defaulted here.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 50
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 25
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/tesseract.log"
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = "data/tesseract.db"
	}
	if c.RefData.MaxAge == 0 {
		c.RefData.MaxAge = 30 * 24 * time.Hour
	}
	if c.Normalizer.SuspectLowUSDPerMT == 0 {
		c.Normalizer.SuspectLowUSDPerMT = 10
	}
	if c.Normalizer.SuspectHighUSDPerMT == 0 {
		c.Normalizer.SuspectHighUSDPerMT = 50000
	}
	if c.Normalizer.OutlierMADMultiplier == 0 {
		c.Normalizer.OutlierMADMultiplier = 3
	}
	if c.Normalizer.OutlierMinComparables == 0 {
		c.Normalizer.OutlierMinComparables = 5
	}
	if c.Entity.MatchThreshold == 0 {
		c.Entity.MatchThreshold = 0.88
	}
	if c.Entity.ReviewThreshold == 0 {
		c.Entity.ReviewThreshold = 0.72
	}
	if c.Metrics.IPCWindowDays == 0 {
		c.Metrics.IPCWindowDays = 5
	}
	if c.Metrics.IPCThinWindowDays == 0 {
		c.Metrics.IPCThinWindowDays = 15
	}
	if c.Metrics.MinRecordsHigh == 0 {
		c.Metrics.MinRecordsHigh = 20
	}
	if c.Metrics.MinRecordsMedium == 0 {
		c.Metrics.MinRecordsMedium = 5
	}
	if c.Metrics.MaxDispersionHigh == 0 {
		c.Metrics.MaxDispersionHigh = 0.15
	}
	if c.Metrics.CoverageHigh == 0 {
		c.Metrics.CoverageHigh = 0.80
	}
	if c.Metrics.CoverageMedium == 0 {
		c.Metrics.CoverageMedium = 0.30
	}
	if c.Metrics.MinSampleQuotable == 0 {
		c.Metrics.MinSampleQuotable = 3
	}
	if c.Metrics.FVIRecentDays == 0 {
		c.Metrics.FVIRecentDays = 7
	}
	if c.Metrics.FVIBaselineLag == 0 {
		c.Metrics.FVIBaselineLag = 30
	}
	if c.Metrics.SDOverPct == 0 {
		c.Metrics.SDOverPct = 10
	}
	if c.Metrics.SDSlightPct == 0 {
		c.Metrics.SDSlightPct = 5
	}
	if c.Metrics.WithdrawalSharePct == 0 {
		c.Metrics.WithdrawalSharePct = 3
	}
	if c.Metrics.SurgeMultiplier == 0 {
		c.Metrics.SurgeMultiplier = 2
	}
	if c.Signals.IPCMovePct == 0 {
		c.Signals.IPCMovePct = 5
	}
	if c.Signals.IPCMoveHighPct == 0 {
		c.Signals.IPCMoveHighPct = 10
	}
	if c.Signals.CSSRatioTrigger == 0 {
		c.Signals.CSSRatioTrigger = 1.5
	}
	if c.Signals.ConsecutiveForAlert == 0 {
		c.Signals.ConsecutiveForAlert = 2
	}
	if c.Signals.Cooldown == 0 {
		c.Signals.Cooldown = 24 * time.Hour
	}
	if c.Signals.TTL == 0 {
		c.Signals.TTL = 72 * time.Hour
	}
	if c.Predictor.MinHistoryDays == 0 {
		c.Predictor.MinHistoryDays = 182
	}
	if c.Predictor.HorizonDays == 0 {
		c.Predictor.HorizonDays = 14
	}
}

// Validate checks the field constraints declared in the struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

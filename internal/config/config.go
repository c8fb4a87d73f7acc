package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Collector CollectorConfig `yaml:"collector" envconfig:"COLLECTOR"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// CollectorConfig contains collection run configuration
type CollectorConfig struct {
	Date         string        `yaml:"date" envconfig:"DATE"`
	Workers      int           `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	MaxPerBoard  int           `yaml:"max_per_board" envconfig:"MAX_PER_BOARD" validate:"min=0"`
	RequestDelay time.Duration `yaml:"request_delay" envconfig:"REQUEST_DELAY" validate:"min=0"`
	CallTimeout  time.Duration `yaml:"call_timeout" envconfig:"CALL_TIMEOUT" validate:"gt=0"`
	// SourceOrder is the failover priority, highest first.
	SourceOrder []string `yaml:"source_order" envconfig:"SOURCE_ORDER" validate:"min=1,dive,oneof=eastmoney szse sse ths"`
}

// SourcesConfig contains settings shared by the source adapters
type SourcesConfig struct {
	UserAgent string        `yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	PageSize  int           `yaml:"page_size" envconfig:"PAGE_SIZE" validate:"min=1,max=500"`
	PageCap   int           `yaml:"page_cap" envconfig:"PAGE_CAP" validate:"min=1"`
	PageDelay time.Duration `yaml:"page_delay" envconfig:"PAGE_DELAY" validate:"min=0"`
	// Headless controls the browser the ths adapter drives.
	Headless bool `yaml:"headless" envconfig:"HEADLESS"`
}

// ServerConfig contains the optional status server configuration
type ServerConfig struct {
	// Listen enables the status server when non-empty, e.g. ":8080".
	Listen          string          `yaml:"listen" envconfig:"LISTEN"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	WebSocket       WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"min=1"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"min=1"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output     string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath   string `yaml:"file_path" envconfig:"FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS" validate:"min=0"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Collector: CollectorConfig{
			Workers:      1,
			MaxPerBoard:  0,
			RequestDelay: 500 * time.Millisecond,
			CallTimeout:  30 * time.Second,
			SourceOrder:  []string{"eastmoney", "szse", "sse", "ths"},
		},
		Sources: SourcesConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			PageSize:  100,
			PageCap:   2000,
			PageDelay: 200 * time.Millisecond,
			Headless:  true,
		},
		Server: ServerConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			WebSocket: WebSocketConfig{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				PingPeriod:      30 * time.Second,
				PongWait:        60 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "both",
			FilePath:   "collector.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
	}
}

// Load builds the configuration: built-in defaults, overridden by the YAML
// config file when present, overridden by ASH_* environment variables. A
// .env file in the working directory is read first so local development can
// set the environment without exporting.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path; an empty path or a
// missing file skips the file layer.
func LoadFrom(configFile string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("ASH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// configFilePath returns the config file location, overridable with
// ASH_CONFIG_FILE.
func configFilePath() string {
	if path := os.Getenv("ASH_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yml"
}

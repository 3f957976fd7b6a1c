package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no config path is given
const DefaultPath = "config/cryptointel.yaml"

// Environment overrides
const (
	EnvDBPath        = "CRYPTOINTEL_DB_PATH"
	EnvLogLevel      = "CRYPTOINTEL_LOG_LEVEL"
	EnvDashboardAddr = "CRYPTOINTEL_DASHBOARD_ADDR"
	EnvWorkspace     = "CRYPTOINTEL_HOME"
)

var validate = validator.New()

// Load reads the configuration file. A missing file is not an error: defaults
// are returned with environment overrides applied.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	// .env next to the config file, then in the working directory
	loadDotEnv(filepath.Join(filepath.Dir(configPath), ".env"))
	loadDotEnv(".env")

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(configPath, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	home := getDefaultHome()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(home, "agentic.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: filepath.Join(home, "decisions.log"),
		},
		Simulation: SimulationConfig{
			Seed:     42,
			Feedback: true,
		},
		Reputation: ReputationConfig{
			HalfLife: 24 * time.Hour,
			Default:  0.5,
		},
		Agents: AgentsConfig{
			Hunter: HunterConfig{
				Watchlist:     []string{"BTC", "ETH", "SOL", "AVAX", "LINK"},
				MinConfidence: 0.6,
				WhaleFlow:     1_000_000,
				Concurrency:   4,
			},
			Orchestrator: OrchestratorConfig{
				MaxAccepted:   3,
				MinConfidence: 0.65,
				MaxAge:        time.Hour,
				Goals: []GoalConfig{
					{
						Description: "Grow portfolio alpha",
						Priority:    0.9,
						Children: []GoalConfig{
							{Description: "Surface high-confidence opportunities", Priority: 0.8},
							{Description: "Keep drawdown under control", Priority: 0.6},
						},
					},
				},
			},
			Optimizer: OptimizerConfig{
				TargetAccuracy: 0.7,
				Step:           0.05,
				MinThreshold:   0.5,
				MaxThreshold:   0.95,
			},
		},
		Dashboard: DashboardConfig{
			Addr: ":8080",
		},
		Stream: StreamConfig{
			Interval: 2 * time.Second,
			Cycles:   10,
		},
	}
}

// decode picks the parser by file extension
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDashboardAddr); v != "" {
		cfg.Dashboard.Addr = v
	}
}

// applyDefaults fills values a partial file left empty
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Database.Path == "" {
		cfg.Database.Path = def.Database.Path
	}
	cfg.Database.Path = expandHomePath(cfg.Database.Path)
	cfg.Audit.LogPath = expandHomePath(cfg.Audit.LogPath)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = def.Dashboard.Addr
	}
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	// Existing environment wins over .env
	_ = godotenv.Load(path)
}

// getDefaultHome returns the data directory
// Priority: CRYPTOINTEL_HOME env var > ~/.cryptointel > ./.cryptointel
func getDefaultHome() string {
	if home := os.Getenv(EnvWorkspace); home != "" {
		return expandHomePath(home)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".cryptointel"
	}

	return filepath.Join(homeDir, ".cryptointel")
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// Package config loads rigscout settings. RIGSCOUT_* environment variables
// override the YAML file, which overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/FranksOps/rigscout/internal/assist"
	"github.com/FranksOps/rigscout/internal/fingerprint"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/recommend"
	"github.com/FranksOps/rigscout/internal/store"
)

// Storage backends accepted in storage.backend.
const (
	BackendNone     = "none"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSON     = "json"
	BackendCSV      = "csv"
)

// Config holds all configuration for the application
type Config struct {
	Log       LogConfig        `mapstructure:"log"`
	HTTP      HTTPConfig       `mapstructure:"http"`
	Recommend recommend.Config `mapstructure:"recommend"`
	Fetch     FetchConfig      `mapstructure:"fetch"`
	Browser   BrowserConfig    `mapstructure:"browser"`
	GenAI     GenAIConfig      `mapstructure:"genai"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Stores    []store.Config   `mapstructure:"stores"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FetchConfig holds the retrieval settings shared by every store.
type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Backoff     time.Duration `mapstructure:"backoff"`
	Fingerprint string        `mapstructure:"fingerprint"`
	ProxyFile   string        `mapstructure:"proxy_file"`
	UserAgents  []string      `mapstructure:"user_agents"`
}

type BrowserConfig struct {
	ChromePath string `mapstructure:"chrome_path"`
	Headless   bool   `mapstructure:"headless"`
}

// GenAIConfig enables the generative assistant when APIKey is set. Classify
// also routes intent classification through the model.
type GenAIConfig struct {
	assist.GenAIConfig `mapstructure:",squash"`
	Classify           bool `mapstructure:"classify"`
}

// Enabled reports whether an API key is configured.
func (g GenAIConfig) Enabled() bool { return strings.TrimSpace(g.APIKey) != "" }

// StorageConfig selects where run records go.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// Load reads configuration. An empty path searches rigscout.yaml in the
// working directory, $HOME/.config/rigscout and /etc/rigscout; a missing
// file there is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rigscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/rigscout")
		v.AddConfigPath("/etc/rigscout/")
	}

	v.SetEnvPrefix("RIGSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if len(cfg.Stores) == 0 {
		cfg.Stores = store.Defaults()
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.request_timeout", "2m")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("recommend.workers", recommend.DefaultWorkers)
	v.SetDefault("recommend.min_score", recommend.DefaultMinScore)
	v.SetDefault("recommend.max_results", recommend.DefaultMaxResults)
	v.SetDefault("recommend.pace_min", recommend.DefaultPaceMin)
	v.SetDefault("recommend.pace_max", recommend.DefaultPaceMax)

	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.backoff", "1s")
	v.SetDefault("fetch.fingerprint", string(fingerprint.ProfileChrome))
	v.SetDefault("fetch.proxy_file", "")
	v.SetDefault("fetch.user_agents", []string{})

	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.headless", true)

	v.SetDefault("genai.api_key", "")
	v.SetDefault("genai.model", assist.DefaultGenAIModel)
	v.SetDefault("genai.base_url", assist.DefaultGenAIBaseURL)
	v.SetDefault("genai.timeout", "30s")
	v.SetDefault("genai.rate_per_second", 1.0)
	v.SetDefault("genai.burst", 5)
	v.SetDefault("genai.retries", 2)
	v.SetDefault("genai.backoff", "500ms")
	v.SetDefault("genai.classify", false)

	v.SetDefault("storage.backend", BackendNone)
	v.SetDefault("storage.dsn", "")
}

func validate(cfg *Config) error {
	if cfg.Recommend.Workers < 1 {
		return fmt.Errorf("%w: recommend.workers must be at least 1, got %d", model.ErrInvalidConfig, cfg.Recommend.Workers)
	}
	if cfg.Recommend.MinScore < 0 || cfg.Recommend.MinScore > 1 {
		return fmt.Errorf("%w: recommend.min_score must be within [0, 1], got %g", model.ErrInvalidConfig, cfg.Recommend.MinScore)
	}
	if cfg.Recommend.MaxResults < 1 {
		return fmt.Errorf("%w: recommend.max_results must be at least 1, got %d", model.ErrInvalidConfig, cfg.Recommend.MaxResults)
	}
	if cfg.Recommend.PaceMin < 0 || cfg.Recommend.PaceMax < cfg.Recommend.PaceMin {
		return fmt.Errorf("%w: recommend.pace_min/pace_max must satisfy 0 <= min <= max", model.ErrInvalidConfig)
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("%w: fetch.timeout must be positive", model.ErrInvalidConfig)
	}
	if _, err := fingerprint.ParseProfile(cfg.Fetch.Fingerprint); err != nil {
		return fmt.Errorf("%w: fetch.fingerprint: %v", model.ErrInvalidConfig, err)
	}

	switch cfg.Storage.Backend {
	case BackendNone:
	case BackendSQLite, BackendPostgres, BackendJSON, BackendCSV:
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for backend %q", model.ErrInvalidConfig, cfg.Storage.Backend)
		}
	default:
		return fmt.Errorf("%w: storage.backend must be one of none, sqlite, postgres, json, csv; got %q", model.ErrInvalidConfig, cfg.Storage.Backend)
	}

	seen := make(map[string]bool, len(cfg.Stores))
	for _, s := range cfg.Stores {
		if err := s.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate store %q", model.ErrInvalidConfig, s.Name)
		}
		seen[key] = true
	}
	return nil
}

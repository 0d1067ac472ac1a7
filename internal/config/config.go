package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and
// environment variables. It is assembled once at startup and passed to
// component constructors; nothing mutates it afterwards.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	// Provider application identity. Mandatory: the process refuses to
	// start without it, everything else is retried forever.
	APIID   int64  `mapstructure:"api_id"`
	APIHash string `mapstructure:"api_hash"`

	GatewayURL string `mapstructure:"gateway_url"`

	ConfigServiceURL   string `mapstructure:"config_service_url"`
	ConfigServiceToken string `mapstructure:"config_service_token"`
	SourcesFile        string `mapstructure:"sources_file"`

	SinkURL    string `mapstructure:"sink_url"`
	SinkSecret string `mapstructure:"sink_secret"`

	AlertsFile string `mapstructure:"alerts_file"`

	// SessionSecretKey names the config-service secret holding the
	// session credential; SessionCredential is the local fallback used
	// when the secret store has no value.
	SessionSecretKey  string `mapstructure:"session_secret_key"`
	SessionCredential string `mapstructure:"session_credential"`

	RawKeywords string   `mapstructure:"keywords"`
	Keywords    []string `mapstructure:"-"`

	SemanticEnabled  bool   `mapstructure:"semantic_enabled"`
	SemanticURL      string `mapstructure:"semantic_url"`
	SemanticModel    string `mapstructure:"semantic_model"`
	SemanticAPIKey   string `mapstructure:"semantic_api_key"`
	SemanticMaxChars int    `mapstructure:"semantic_max_chars"`

	PollIntervalMinSeconds int64         `mapstructure:"poll_interval_min"`
	PollIntervalMaxSeconds int64         `mapstructure:"poll_interval_max"`
	PollIntervalMin        time.Duration `mapstructure:"-"`
	PollIntervalMax        time.Duration `mapstructure:"-"`

	FetchLimit         int           `mapstructure:"fetch_limit"`
	DedupCapacity      int           `mapstructure:"dedup_capacity"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "jobradar-feedwatch")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("gateway_url", "http://localhost:8484")
	v.SetDefault("config_service_url", "")
	v.SetDefault("config_service_token", "")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("sink_url", "")
	v.SetDefault("sink_secret", "")
	v.SetDefault("alerts_file", "./configs/alerts.yaml")
	v.SetDefault("session_secret_key", "session")
	v.SetDefault("session_credential", "")
	v.SetDefault("keywords", "вакансия,работа,job,hiring,remote,developer,программист,engineer")
	v.SetDefault("semantic_enabled", false)
	v.SetDefault("semantic_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("semantic_model", "gpt-4o-mini")
	v.SetDefault("semantic_api_key", "")
	v.SetDefault("semantic_max_chars", 2000)
	v.SetDefault("poll_interval_min", 240) // seconds
	v.SetDefault("poll_interval_max", 360)
	v.SetDefault("fetch_limit", 50)
	v.SetDefault("dedup_capacity", 4096)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/fingerprints.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.APIID <= 0 {
		return nil, fmt.Errorf("api_id is required (provider application identity)")
	}
	if strings.TrimSpace(cfg.APIHash) == "" {
		return nil, fmt.Errorf("api_hash is required (provider application identity)")
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return nil, fmt.Errorf("gateway_url must not be empty")
	}
	if strings.TrimSpace(cfg.SinkURL) == "" {
		return nil, fmt.Errorf("sink_url must not be empty")
	}

	if cfg.PollIntervalMinSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval_min (must be positive seconds)")
	}
	if cfg.PollIntervalMaxSeconds < cfg.PollIntervalMinSeconds {
		return nil, fmt.Errorf("poll_interval_max must be >= poll_interval_min")
	}
	cfg.PollIntervalMin = time.Duration(cfg.PollIntervalMinSeconds) * time.Second
	cfg.PollIntervalMax = time.Duration(cfg.PollIntervalMaxSeconds) * time.Second

	if cfg.FetchLimit <= 0 {
		return nil, fmt.Errorf("invalid fetch_limit (must be positive)")
	}
	if cfg.DedupCapacity <= 0 {
		return nil, fmt.Errorf("invalid dedup_capacity (must be positive)")
	}
	if cfg.SemanticMaxChars <= 0 {
		return nil, fmt.Errorf("invalid semantic_max_chars (must be positive)")
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	cfg.Keywords = SplitKeywords(cfg.RawKeywords)

	return &cfg, nil
}

// LogSafe returns the startup-log view of the configuration. Secret fields
// are masked: the log shows whether each one is set, never its value.
func (c *Config) LogSafe() map[string]any {
	return map[string]any{
		"app_name":             c.AppName,
		"app_env":              c.Env,
		"log_level":            c.LogLevel,
		"api_id":               c.APIID,
		"api_hash":             maskSecret(c.APIHash),
		"gateway_url":          c.GatewayURL,
		"config_service_url":   c.ConfigServiceURL,
		"config_service_token": maskSecret(c.ConfigServiceToken),
		"sources_file":         c.SourcesFile,
		"sink_url":             c.SinkURL,
		"sink_secret":          maskSecret(c.SinkSecret),
		"alerts_file":          c.AlertsFile,
		"session_secret_key":   c.SessionSecretKey,
		"session_credential":   maskSecret(c.SessionCredential),
		"keywords_count":       len(c.Keywords),
		"semantic_enabled":     c.SemanticEnabled,
		"semantic_url":         c.SemanticURL,
		"semantic_model":       c.SemanticModel,
		"semantic_api_key":     maskSecret(c.SemanticAPIKey),
		"poll_interval_min":    c.PollIntervalMin.String(),
		"poll_interval_max":    c.PollIntervalMax.String(),
		"fetch_limit":          c.FetchLimit,
		"dedup_capacity":       c.DedupCapacity,
		"http_timeout":         c.HTTPTimeout.String(),
		"storage_type":         c.StorageType,
		"bbolt_path":           c.BBoltPath,
	}
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	return "***"
}

// SplitKeywords parses the comma-separated keyword list, lowercasing and
// trimming each phrase and dropping empties.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

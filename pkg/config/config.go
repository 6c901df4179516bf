package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Bridge  BridgeConfig  `json:"bridge"`
	Planner PlannerConfig `json:"planner"`
	Amadeus AmadeusConfig `json:"amadeus"`
	Widget  WidgetConfig  `json:"widget"`
	Logging LoggingConfig `json:"logging"`
	mu      sync.RWMutex
}

type GatewayConfig struct {
	Host string `json:"host" env:"TRIPCANVAS_GATEWAY_HOST"`
	Port int    `json:"port" env:"TRIPCANVAS_GATEWAY_PORT"`
}

type BridgeConfig struct {
	PollIntervalMS  int    `json:"poll_interval_ms" env:"TRIPCANVAS_BRIDGE_POLL_INTERVAL_MS"`
	PollMaxAttempts int    `json:"poll_max_attempts" env:"TRIPCANVAS_BRIDGE_POLL_MAX_ATTEMPTS"`
	PageQueryParam  string `json:"page_query_param" env:"TRIPCANVAS_BRIDGE_PAGE_QUERY_PARAM"`
}

type PlannerConfig struct {
	DefaultCurrency string `json:"default_currency" env:"TRIPCANVAS_PLANNER_DEFAULT_CURRENCY"`
	MaxFlights      int    `json:"max_flights" env:"TRIPCANVAS_PLANNER_MAX_FLIGHTS"`
	MaxHotels       int    `json:"max_hotels" env:"TRIPCANVAS_PLANNER_MAX_HOTELS"`
	MaxActivities   int    `json:"max_activities" env:"TRIPCANVAS_PLANNER_MAX_ACTIVITIES"`
}

type AmadeusConfig struct {
	Enabled      bool   `json:"enabled" env:"TRIPCANVAS_AMADEUS_ENABLED"`
	ClientID     string `json:"client_id" env:"TRIPCANVAS_AMADEUS_CLIENT_ID"`
	ClientSecret string `json:"client_secret" env:"TRIPCANVAS_AMADEUS_CLIENT_SECRET"`
	BaseURL      string `json:"base_url" env:"TRIPCANVAS_AMADEUS_BASE_URL"`
	TimeoutSecs  int    `json:"timeout_secs" env:"TRIPCANVAS_AMADEUS_TIMEOUT_SECS"`
}

type WidgetConfig struct {
	TemplateURI string `json:"template_uri" env:"TRIPCANVAS_WIDGET_TEMPLATE_URI"`
	AssetsDir   string `json:"assets_dir" env:"TRIPCANVAS_WIDGET_ASSETS_DIR"`
	PublicURL   string `json:"public_url" env:"TRIPCANVAS_WIDGET_PUBLIC_URL"`
}

type LoggingConfig struct {
	FileEnabled bool   `json:"file_enabled" env:"TRIPCANVAS_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"TRIPCANVAS_LOGGING_FILE_PATH"`
	MaxSizeMB   int    `json:"max_size_mb" env:"TRIPCANVAS_LOGGING_MAX_SIZE_MB"`
	Debug       bool   `json:"debug" env:"TRIPCANVAS_LOGGING_DEBUG"`
}

func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Bridge: BridgeConfig{
			PollIntervalMS:  250,
			PollMaxAttempts: 40,
			PageQueryParam:  "data",
		},
		Planner: PlannerConfig{
			DefaultCurrency: "USD",
			MaxFlights:      5,
			MaxHotels:       5,
			MaxActivities:   6,
		},
		Amadeus: AmadeusConfig{
			Enabled:      false,
			ClientID:     "",
			ClientSecret: "",
			BaseURL:      "https://test.api.amadeus.com",
			TimeoutSecs:  10,
		},
		Widget: WidgetConfig{
			TemplateURI: "ui://widget/trip-plan.html",
			AssetsDir:   "widget",
		},
		Logging: LoggingConfig{
			FileEnabled: false,
			FilePath:    "~/.tripcanvas/tripcanvas.log",
			MaxSizeMB:   50,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			resolveSecretRefs(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	resolveSecretRefs(cfg)

	return cfg, nil
}

// resolveSecretRefs lets credentials in the config file point at environment
// variables ("$AMADEUS_SECRET" or "${AMADEUS_SECRET}") instead of holding the
// value inline.
func resolveSecretRefs(cfg *Config) {
	cfg.Amadeus.ClientID = resolveEnvRef(cfg.Amadeus.ClientID)
	cfg.Amadeus.ClientSecret = resolveEnvRef(cfg.Amadeus.ClientSecret)
}

func resolveEnvRef(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return v
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		key := strings.TrimSpace(s[2 : len(s)-1])
		if key == "" {
			return v
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return v
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		key := strings.TrimSpace(s[1:])
		if key == "" {
			return v
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
	}
	return v
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) ListenAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	host := c.Gateway.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.Gateway.Port)
}

func (c *Config) LogFilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Logging.FilePath)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}

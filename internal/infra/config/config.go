package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	App     AppConfig     `yaml:"app"`
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Data    DataConfig    `yaml:"data"`
	Booking BookingConfig `yaml:"booking"`
	Session SessionConfig `yaml:"session"`
	Storage StorageConfig `yaml:"storage"`
}

// AppConfig holds process wide settings.
type AppConfig struct {
	ServiceName    string `yaml:"serviceName"`
	PageTitle      string `yaml:"pageTitle"`
	LogLevel       string `yaml:"logLevel"`
	MaxImageSizeMB int    `yaml:"maxImageSizeMb"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `yaml:"allowedOrigins"`
	AdminToken      string          `yaml:"adminToken"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	Retry           RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures retries of GET and HEAD requests whose path starts
// with one of Paths.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Paths       []string      `yaml:"paths"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey             string        `yaml:"apiKey"`
	BaseURL            string        `yaml:"baseUrl"`
	Timeout            time.Duration `yaml:"timeout"`
	HistoryTokenBudget int           `yaml:"historyTokenBudget"`
	VisionCacheSize    int           `yaml:"visionCacheSize"`
	VisionCacheTTL     time.Duration `yaml:"visionCacheTtl"`
	SchemaCacheSize    int           `yaml:"schemaCacheSize"`
	Agents             AgentsConfig  `yaml:"agents"`
}

// AgentsConfig lists per-agent model settings.
type AgentsConfig struct {
	TypeDetection   AgentConfig `yaml:"typeDetection"`
	IssueListing    AgentConfig `yaml:"issueListing"`
	Troubleshooting AgentConfig `yaml:"troubleshooting"`
	Summarization   AgentConfig `yaml:"summarization"`
	Nameplate       AgentConfig `yaml:"nameplate"`
	Extraction      AgentConfig `yaml:"extraction"`
	Guidance        AgentConfig `yaml:"guidance"`
}

// AgentConfig is the model/temperature pair used by a single agent.
type AgentConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// DataConfig points at the flat-file reference data.
type DataConfig struct {
	KnowledgeBasePath string `yaml:"knowledgeBasePath"`
	TechniciansPath   string `yaml:"techniciansPath"`
	CommonIssuesPath  string `yaml:"commonIssuesPath"`
	BookingsPath      string `yaml:"bookingsPath"`
	PartsImagesDir    string `yaml:"partsImagesDir"`
}

// BookingConfig drives pricing and scheduling for bookings and part orders.
type BookingConfig struct {
	CombinedTechnicianFee float64        `yaml:"combinedTechnicianFee"`
	TaxRate               float64        `yaml:"taxRate"`
	ShippingCost          float64        `yaml:"shippingCost"`
	SlotWindowDays        int            `yaml:"slotWindowDays"`
	DeliveryMinDays       int            `yaml:"deliveryMinDays"`
	DeliveryMaxDays       int            `yaml:"deliveryMaxDays"`
	DispatchTrackingURL   string         `yaml:"dispatchTrackingUrl"`
	Postgres              PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SessionConfig controls where conversation state lives.
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxSessions int           `yaml:"maxSessions"`
	TokenSecret string        `yaml:"tokenSecret"`
	Redis       RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for session storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// StorageConfig configures the S3 compatible nameplate image archive.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_ADMIN_TOKEN"); v != "" {
		cfg.HTTP.AdminToken = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	// OPENAI_API_KEY wins over LLM_API_KEY so existing deployments keep working.
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_TEXT_MODEL"); v != "" {
		for _, agent := range cfg.LLM.Agents.textAgents() {
			agent.Model = v
		}
	}
	if v := os.Getenv("LLM_VISION_MODEL"); v != "" {
		for _, agent := range cfg.LLM.Agents.visionAgents() {
			agent.Model = v
		}
	}
	if v := os.Getenv("LLM_HISTORY_TOKEN_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.HistoryTokenBudget = parsed
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data = dataConfigFor(v)
	}
	if v := os.Getenv("BOOKINGS_PATH"); v != "" {
		cfg.Data.BookingsPath = v
	}
	if v := os.Getenv("PARTS_IMAGES_DIR"); v != "" {
		cfg.Data.PartsImagesDir = v
	}
	if v := os.Getenv("BOOKINGS_POSTGRES_DSN"); v != "" {
		cfg.Booking.Postgres.DSN = v
	}
	if v := os.Getenv("BOOKING_TAX_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Booking.TaxRate = parsed
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = parsed
		}
	}
	if v := os.Getenv("SESSION_TOKEN_SECRET"); v != "" {
		cfg.Session.TokenSecret = v
	}
	if v := os.Getenv("SESSION_REDIS_ENABLED"); v != "" {
		cfg.Session.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("SESSION_REDIS_ADDR"); v != "" {
		cfg.Session.Redis.Addr = v
	}
	if v := os.Getenv("STORAGE_ENABLED"); v != "" {
		cfg.Storage.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("MAX_IMAGE_SIZE_MB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.App.MaxImageSizeMB = parsed
		}
	}
}

func (a *AgentsConfig) textAgents() []*AgentConfig {
	return []*AgentConfig{&a.TypeDetection, &a.IssueListing, &a.Summarization, &a.Extraction}
}

func (a *AgentsConfig) visionAgents() []*AgentConfig {
	return []*AgentConfig{&a.Troubleshooting, &a.Nameplate, &a.Guidance}
}

func dataConfigFor(dir string) DataConfig {
	dir = strings.TrimRight(dir, "/")
	return DataConfig{
		KnowledgeBasePath: dir + "/knowledge_base.json",
		TechniciansPath:   dir + "/technicians.json",
		CommonIssuesPath:  dir + "/common_issues.json",
		BookingsPath:      dir + "/bookings.json",
		PartsImagesDir:    dir + "/parts",
	}
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			ServiceName:    "appliance-assistant",
			PageTitle:      "Appliance Troubleshoot Assistant",
			LogLevel:       "info",
			MaxImageSizeMB: 10,
		},
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Paths: []string{
					"/api/v1/bookings/",
					"/api/v1/parts",
					"/api/v1/technicians",
				},
			},
		},
		LLM: LLMConfig{
			Timeout:            60 * time.Second,
			HistoryTokenBudget: 6000,
			VisionCacheSize:    256,
			VisionCacheTTL:     time.Hour,
			SchemaCacheSize:    32,
			Agents: AgentsConfig{
				TypeDetection:   AgentConfig{Model: "gpt-4o-mini", Temperature: 0.3},
				IssueListing:    AgentConfig{Model: "gpt-4o-mini", Temperature: 0.5},
				Troubleshooting: AgentConfig{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2000},
				Summarization:   AgentConfig{Model: "gpt-4o-mini", Temperature: 0.3},
				Nameplate:       AgentConfig{Model: "gpt-4o", MaxTokens: 500},
				Extraction:      AgentConfig{Model: "gpt-4o-mini", Temperature: 0.3},
				Guidance:        AgentConfig{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2500},
			},
		},
		Data: dataConfigFor("data"),
		Booking: BookingConfig{
			CombinedTechnicianFee: 125.0,
			TaxRate:               0.08,
			ShippingCost:          9.99,
			SlotWindowDays:        7,
			DeliveryMinDays:       3,
			DeliveryMaxDays:       7,
			DispatchTrackingURL:   "https://track.example.com/dispatch/",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			MaxSessions: 1024,
			Redis: RedisConfig{
				Prefix: "appliance:session",
			},
		},
		Storage: StorageConfig{
			Bucket: "nameplates",
			Region: "auto",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.App.ServiceName) == "" {
		return errors.New("app.serviceName cannot be empty")
	}
	if c.App.MaxImageSizeMB <= 0 {
		return errors.New("app.maxImageSizeMb must be positive")
	}
	for name, agent := range map[string]AgentConfig{
		"typeDetection":   c.LLM.Agents.TypeDetection,
		"issueListing":    c.LLM.Agents.IssueListing,
		"troubleshooting": c.LLM.Agents.Troubleshooting,
		"summarization":   c.LLM.Agents.Summarization,
		"nameplate":       c.LLM.Agents.Nameplate,
		"extraction":      c.LLM.Agents.Extraction,
		"guidance":        c.LLM.Agents.Guidance,
	} {
		if strings.TrimSpace(agent.Model) == "" {
			return fmt.Errorf("llm.agents.%s.model cannot be empty", name)
		}
		if agent.Temperature < 0 {
			return fmt.Errorf("llm.agents.%s.temperature cannot be negative", name)
		}
	}
	if c.LLM.HistoryTokenBudget < 0 {
		return errors.New("llm.historyTokenBudget cannot be negative")
	}
	if c.LLM.VisionCacheSize <= 0 {
		return errors.New("llm.visionCacheSize must be positive")
	}
	if strings.TrimSpace(c.Data.KnowledgeBasePath) == "" {
		return errors.New("data.knowledgeBasePath cannot be empty")
	}
	if strings.TrimSpace(c.Data.TechniciansPath) == "" {
		return errors.New("data.techniciansPath cannot be empty")
	}
	if strings.TrimSpace(c.Data.CommonIssuesPath) == "" {
		return errors.New("data.commonIssuesPath cannot be empty")
	}
	if strings.TrimSpace(c.Data.BookingsPath) == "" {
		return errors.New("data.bookingsPath cannot be empty")
	}
	if c.Booking.TaxRate < 0 {
		return errors.New("booking.taxRate cannot be negative")
	}
	if c.Booking.CombinedTechnicianFee < 0 {
		return errors.New("booking.combinedTechnicianFee cannot be negative")
	}
	if c.Booking.SlotWindowDays <= 0 {
		return errors.New("booking.slotWindowDays must be positive")
	}
	if c.Booking.DeliveryMinDays <= 0 || c.Booking.DeliveryMaxDays < c.Booking.DeliveryMinDays {
		return errors.New("booking.deliveryMinDays/deliveryMaxDays must form a positive range")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.MaxSessions <= 0 {
		return errors.New("session.maxSessions must be positive")
	}
	if c.Session.Redis.Enabled && strings.TrimSpace(c.Session.Redis.Addr) == "" {
		return errors.New("session.redis.addr cannot be empty when redis sessions are enabled")
	}
	if c.Storage.Enabled {
		if strings.TrimSpace(c.Storage.Endpoint) == "" {
			return errors.New("storage.endpoint cannot be empty when storage is enabled")
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage.bucket cannot be empty when storage is enabled")
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

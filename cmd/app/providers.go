package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/appliance-assistant/internal/domain/agent"
	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	"github.com/yanqian/appliance-assistant/internal/infra/bookingrepo"
	"github.com/yanqian/appliance-assistant/internal/infra/config"
	"github.com/yanqian/appliance-assistant/internal/infra/imagestore"
	"github.com/yanqian/appliance-assistant/internal/infra/jsonrepo"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/schema"
	"github.com/yanqian/appliance-assistant/internal/infra/partscatalog"
	"github.com/yanqian/appliance-assistant/internal/infra/sessionstore"
	httpiface "github.com/yanqian/appliance-assistant/internal/interface/http"
)

// provideChatGPTClient returns nil when no API key is configured; the flow
// then runs on its fixed fallbacks.
func provideChatGPTClient(cfg *config.Config, logger *slog.Logger) *chatgpt.Client {
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		logger.Warn("llm client disabled", "error", err)
		return nil
	}
	return client
}

func provideSchemaValidator(cfg *config.Config) *schema.Validator {
	return schema.NewValidator(cfg.LLM.SchemaCacheSize, 0)
}

func provideAgents(cfg *config.Config, client *chatgpt.Client, validator *schema.Validator, logger *slog.Logger) flow.Agents {
	if client == nil {
		return flow.Agents{}
	}
	a := cfg.LLM.Agents
	return flow.Agents{
		TypeDetector:    agent.NewTypeDetector(client, settings(a.TypeDetection), validator, logger),
		IssueLister:     agent.NewIssueLister(client, settings(a.IssueListing), validator, logger),
		Troubleshooter:  agent.NewTroubleshooter(client, settings(a.Troubleshooting), logger),
		Summarizer:      agent.NewSummarizer(client, settings(a.Summarization), agent.NewTiktokenCounter(a.Summarization.Model), cfg.LLM.HistoryTokenBudget, logger),
		NameplateReader: agent.NewNameplateReader(client, settings(a.Nameplate), validator, cfg.LLM.VisionCacheSize, cfg.LLM.VisionCacheTTL, logger),
		Extractor:       agent.NewExtractor(client, settings(a.Extraction), validator, logger),
		NameplateGuide:  agent.NewNameplateGuide(client, settings(a.Guidance), logger),
	}
}

func settings(c config.AgentConfig) agent.Settings {
	return agent.Settings{Model: c.Model, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
}

func provideKnowledgeBase(cfg *config.Config) *jsonrepo.KnowledgeBaseRepository {
	return jsonrepo.NewKnowledgeBaseRepository(cfg.Data.KnowledgeBasePath)
}

func provideTechnicians(cfg *config.Config) *jsonrepo.TechnicianRepository {
	return jsonrepo.NewTechnicianRepository(cfg.Data.TechniciansPath)
}

func provideCommonIssues(cfg *config.Config) *jsonrepo.CommonIssuesRepository {
	return jsonrepo.NewCommonIssuesRepository(cfg.Data.CommonIssuesPath)
}

func providePartsCatalog(cfg *config.Config, logger *slog.Logger) *partscatalog.Catalog {
	return partscatalog.New(cfg.Data.PartsImagesDir, logger)
}

// provideBookingRepository prefers Postgres when a DSN is configured and
// reachable, and the bookings JSON file otherwise. The cleanup closes the
// pool.
func provideBookingRepository(cfg *config.Config, logger *slog.Logger) (appliance.BookingRepository, func(), error) {
	noop := func() {}
	fallback := func() (appliance.BookingRepository, func(), error) {
		repo, err := jsonrepo.NewBookingRepository(cfg.Data.BookingsPath, logger)
		return repo, noop, err
	}
	dsn := strings.TrimSpace(cfg.Booking.Postgres.DSN)
	if dsn == "" {
		return fallback()
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using json booking repository", "error", err)
		return fallback()
	}
	if cfg.Booking.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Booking.Postgres.MaxConns
	}
	if cfg.Booking.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Booking.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using json booking repository", "error", err)
		return fallback()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using json booking repository", "error", err)
		pool.Close()
		return fallback()
	}
	repo := bookingrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("bookings table unavailable, using json booking repository", "error", err)
		pool.Close()
		return fallback()
	}
	logger.Info("postgres booking repository enabled")
	return repo, func() {
		pool.Close()
		logger.Info("postgres pool closed")
	}, nil
}

func provideBookingConfig(cfg *config.Config) booking.Config {
	b := cfg.Booking
	return booking.Config{
		CombinedTechnicianFee: b.CombinedTechnicianFee,
		TaxRate:               b.TaxRate,
		ShippingCost:          b.ShippingCost,
		SlotWindowDays:        b.SlotWindowDays,
		DeliveryMinDays:       b.DeliveryMinDays,
		DeliveryMaxDays:       b.DeliveryMaxDays,
		DispatchTrackingURL:   b.DispatchTrackingURL,
	}
}

func provideFlowConfig(cfg *config.Config) flow.Config {
	return flow.Config{MaxImageBytes: int64(cfg.App.MaxImageSizeMB) << 20}
}

func provideUploadLimit(cfg *config.Config) httpiface.UploadLimit {
	return httpiface.UploadLimit(int64(cfg.App.MaxImageSizeMB) << 20)
}

func provideImageStore(cfg *config.Config, logger *slog.Logger) flow.ImageStore {
	s := cfg.Storage
	if !s.Enabled {
		return imagestore.NewMemoryStorage()
	}
	store, err := imagestore.NewR2Storage(s.Endpoint, s.AccessKey, s.SecretKey, s.Bucket, s.Region, logger)
	if err != nil {
		logger.Error("failed to create object storage client, falling back to memory", "error", err)
		return imagestore.NewMemoryStorage()
	}
	logger.Info("object storage image archive enabled", "bucket", s.Bucket)
	return store
}

// provideSessionStore uses Valkey when enabled and reachable. The cleanup
// closes the client.
func provideSessionStore(cfg *config.Config, logger *slog.Logger) (flow.SessionStore, func()) {
	memory := sessionstore.NewMemoryStore(cfg.Session.MaxSessions, cfg.Session.TTL)
	noop := func() {}
	if !cfg.Session.Redis.Enabled {
		return memory, noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return memory, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return memory, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return memory, noop
	}
	logger.Info("valkey session store enabled", "addr", cfg.Session.Redis.Addr)
	return sessionstore.NewValkeyStore(client, cfg.Session.Redis.Prefix, cfg.Session.TTL), client.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Session.Redis.Addr, "://") {
		return valkey.ParseURL(cfg.Session.Redis.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Session.Redis.Addr}}, nil
}

// provideSessionTokens signs with a per-process random secret when none is
// configured, so tokens do not survive restarts.
func provideSessionTokens(cfg *config.Config, logger *slog.Logger) *httpiface.SessionTokens {
	secret := strings.TrimSpace(cfg.Session.TokenSecret)
	if secret == "" {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = hex.EncodeToString(buf)
		logger.Warn("session token secret not set, using an ephemeral one")
	}
	return httpiface.NewSessionTokens(secret, cfg.Session.TTL)
}

func provideCacheClearers(kb *jsonrepo.KnowledgeBaseRepository, technicians *jsonrepo.TechnicianRepository, issues *jsonrepo.CommonIssuesRepository) httpiface.CacheClearers {
	return httpiface.CacheClearers{kb, technicians, issues}
}

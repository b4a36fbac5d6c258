package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/wanderpaws/wanderpaws/internal/domain/chatbuilder"
	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
	"github.com/wanderpaws/wanderpaws/internal/infra/aicache"
	"github.com/wanderpaws/wanderpaws/internal/infra/config"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
	"github.com/wanderpaws/wanderpaws/internal/infra/policyrepo"
	"github.com/wanderpaws/wanderpaws/internal/infra/profilerepo"
)

func provideChatClient(cfg *config.Config) *chatgpt.Client {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func providePlacesClient(cfg *config.Config) *places.Client {
	return places.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL, cfg.Places.DetailsFields, cfg.Places.Timeout)
}

func provideItineraryConfig(cfg *config.Config) itinerary.Config {
	return itinerary.Config{
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		RadiusMeters: cfg.Places.RadiusMeters,
		MaxPerQuery:  cfg.Places.MaxPerQuery,
		MaxInterests: cfg.Planner.MaxInterests,
		CacheTTL:     cfg.Planner.CacheTTL,
	}
}

func provideChatbuilderConfig(cfg *config.Config) chatbuilder.Config {
	return chatbuilder.Config{
		AssistantID:        cfg.LLM.AssistantID,
		PollInterval:       cfg.Planner.ChatPollInterval,
		RunDeadline:        cfg.Planner.ChatRunDeadline,
		ContextTokenBudget: cfg.Planner.ContextTokenBudget,
	}
}

func provideGenerationDeadline(cfg *config.Config) time.Duration {
	return cfg.Planner.GenerationDeadline
}

// providePostgresPool opens the shared pool, or nil when no DSN is configured
// or the database is unreachable. Repositories fall back to memory seeds.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Store.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Store.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Store.Postgres.MaxConns
	}
	if cfg.Store.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Store.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func providePolicyRepository(pool *pgxpool.Pool, logger *slog.Logger) itinerary.PolicyRepository {
	if pool == nil {
		return policyrepo.NewMemoryRepository()
	}
	logger.Info("postgres policy repository enabled")
	return policyrepo.NewPostgresRepository(pool)
}

// provideChatPolicyRepository shares the one policy store with the builder.
func provideChatPolicyRepository(repo itinerary.PolicyRepository) chatbuilder.PolicyRepository {
	return repo
}

func provideProfileRepository(pool *pgxpool.Pool, logger *slog.Logger) chatbuilder.ProfileRepository {
	if pool == nil {
		return profilerepo.NewMemoryRepository()
	}
	logger.Info("postgres profile repository enabled")
	return profilerepo.NewPostgresRepository(pool)
}

func provideResponseCache(cfg *config.Config, logger *slog.Logger) itinerary.ResponseCache {
	if cfg.Store.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return aicache.NewMemoryStore(cfg.Planner.CacheTTL)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return aicache.NewMemoryStore(cfg.Planner.CacheTTL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("valkey response cache enabled", "addr", cfg.Store.Valkey.Addr)
			return aicache.NewValkeyStore(client, "aicache")
		}
	}
	return aicache.NewMemoryStore(cfg.Planner.CacheTTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Store.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Store.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Store.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

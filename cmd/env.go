package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-review/internal/chunker"
	"github.com/sells-group/contract-review/internal/extractor"
	"github.com/sells-group/contract-review/internal/provider"
	"github.com/sells-group/contract-review/internal/resilience"
	"github.com/sells-group/contract-review/internal/review"
	"github.com/sells-group/contract-review/internal/store"
	anthropicpkg "github.com/sells-group/contract-review/pkg/anthropic"
)

// reviewEnv holds the initialized store and service used by every
// subcommand.
type reviewEnv struct {
	Store   store.Store
	Service *review.Service
}

// Close releases resources held by the environment.
func (e *reviewEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, providers, and review service. Callers should
// defer env.Close().
func initEnv(ctx context.Context) (*reviewEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	cacheTTL := time.Duration(cfg.Extract.CacheTTLHours) * time.Hour
	retryCfg := resilience.FromRetryConfig(
		cfg.Retry.MaxAttempts,
		cfg.Retry.InitialBackoffMs,
		cfg.Retry.MaxBackoffMs,
		cfg.Retry.Multiplier,
		cfg.Retry.JitterFraction,
	)
	var providers []provider.Provider
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		for _, tier := range []struct{ name, model string }{
			{"claude_haiku", cfg.Anthropic.HaikuModel},
			{"claude_sonnet", cfg.Anthropic.SonnetModel},
			{"claude_opus", cfg.Anthropic.OpusModel},
		} {
			providers = append(providers,
				provider.NewCached(provider.NewAnthropic(client, tier.name, tier.model, retryCfg), cacheTTL))
		}
	} else {
		zap.L().Warn("REVIEW_ANTHROPIC_KEY not set, claude tiers disabled")
	}
	if cfg.OpenAI.Key != "" {
		providers = append(providers,
			provider.NewCached(provider.NewOpenAI("openai", provider.OpenAIOptions{
				APIKey:  cfg.OpenAI.Key,
				BaseURL: cfg.OpenAI.BaseURL,
				Model:   cfg.OpenAI.Model,
			}), cacheTTL))
	}
	if len(providers) == 0 {
		zap.L().Warn("no model providers configured, extraction will rely on heuristics only")
	}

	ex := extractor.New(providers, extractor.Options{
		Concurrency:   cfg.Extract.Concurrency,
		CallTimeout:   time.Duration(cfg.Extract.TimeoutSecs) * time.Second,
		RatePerSecond: cfg.Extract.RatePerSecond,
		TopK:          cfg.Extract.TopKCitations,
	})
	ch := chunker.New(cfg.Chunk.MaxWords, cfg.Chunk.OverlapWords)

	return &reviewEnv{
		Store:   st,
		Service: review.NewService(st, ch, ex),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

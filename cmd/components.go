package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/ai/openai"
	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/headhunter"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/notify"
	"github.com/spigell/job-matcher/internal/orchestrator"
	"github.com/spigell/job-matcher/internal/profile"
	"github.com/spigell/job-matcher/internal/report"
	"github.com/spigell/job-matcher/internal/search"
	"github.com/spigell/job-matcher/internal/secrets"
	"github.com/spigell/job-matcher/internal/store"
)

// components holds everything a command needs, built once from the config.
type components struct {
	config  *Config
	logger  *zap.Logger
	secrets *secrets.Provider
	store   store.Store
	redis   *redis.Client
}

func newSecrets(config *Config) *secrets.Provider {
	var openAIKey, openAIFile, geminiKey, geminiFile string
	if config.AI.OpenAI != nil {
		openAIKey, openAIFile = config.AI.OpenAI.APIKey, config.AI.OpenAI.APIKeyFile
	}
	if config.AI.Gemini != nil {
		geminiKey, geminiFile = config.AI.Gemini.APIKey, config.AI.Gemini.APIKeyFile
	}

	return secrets.NewProvider(map[string]secrets.Source{
		secrets.OpenAIKey:    {Name: "openai api key", Value: openAIKey, File: openAIFile, Env: "OPENAI_API_KEY"},
		secrets.GeminiKey:    {Name: "gemini api key", Value: geminiKey, File: geminiFile, Env: "GEMINI_API_KEY"},
		secrets.AdzunaAppID:  {Name: "adzuna app id", Value: config.Search.Adzuna.AppID, Env: "ADZUNA_APP_ID"},
		secrets.AdzunaAppKey: {Name: "adzuna app key", Value: config.Search.Adzuna.AppKey, Env: "ADZUNA_APP_KEY"},
		secrets.HHToken:      {Name: "headhunter token", File: config.Search.HH.TokenFile, Env: "HH_TOKEN"},
		secrets.SlackWebhook: {Name: "slack webhook", Value: config.Notify.SlackWebhook, Env: "SLACK_WEBHOOK_URL"},
		secrets.RedisURL:     {Name: "redis url", Value: config.Notify.RedisURL, Env: "REDIS_URL"},
		secrets.DatabaseURL:  {Name: "database url", Value: config.Database.URL, Env: "DATABASE_URL"},
	})
}

func newComponents(ctx context.Context, config *Config, log *zap.Logger) (*components, error) {
	c := &components{config: config, logger: log, secrets: newSecrets(config)}

	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c.store = st

	if url := c.secrets.Lookup(secrets.RedisURL); url != "" {
		client, err := notify.NewRedisClient(ctx, url)
		if err != nil {
			log.Warn("redis is unavailable, match events are disabled", zap.Error(err))
		} else {
			c.redis = client
		}
	}

	return c, nil
}

// openStore uses Postgres when a database url is configured and memory otherwise.
func (c *components) openStore(ctx context.Context) (store.Store, error) {
	url := c.secrets.Lookup(secrets.DatabaseURL)
	if url == "" {
		c.logger.Warn("database url is not configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}

	db, err := store.Connect(ctx, url, c.config.Database.Options)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store.NewSQLStore(db), nil
}

func (c *components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("closing store", zap.Error(err))
		}
	}
}

// generator returns the configured AI backend or nil when no key is available.
func (c *components) generator(ctx context.Context) (ai.Generator, error) {
	cfg := c.config.AI
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", "openai":
		key := c.secrets.Lookup(secrets.OpenAIKey)
		if key == "" {
			return nil, nil
		}
		opts := openai.Options{APIKey: key}
		if cfg.OpenAI != nil {
			opts.Model = cfg.OpenAI.Model
			opts.Temperature = cfg.OpenAI.Temperature
			opts.MaxTokens = cfg.OpenAI.MaxTokens
		}
		return openai.NewGenerator(opts, c.logger.With(zap.String("provider", "openai")))
	case "gemini":
		key := c.secrets.Lookup(secrets.GeminiKey)
		if key == "" {
			return nil, nil
		}
		opts := gemini.Options{APIKey: key}
		if cfg.Gemini != nil {
			opts.Model = cfg.Gemini.Model
			opts.Temperature = cfg.Gemini.Temperature
			opts.MaxRetries = cfg.Gemini.MaxRetries
			opts.Timeout = cfg.Gemini.Timeout
		}
		return gemini.NewGenerator(ctx, opts, c.logger.With(zap.String("provider", "gemini")))
	case "none", "heuristic":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// scorer builds Gate(Fallback(AI, Heuristic)), or Gate(Heuristic) without an AI backend.
func (c *components) scorer(ctx context.Context) (matching.Scorer, error) {
	heuristic, err := matching.NewHeuristicScorer(matching.DefaultWeights())
	if err != nil {
		return nil, err
	}

	generator, err := c.generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("building ai generator: %w", err)
	}

	var inner matching.Scorer = heuristic
	if generator != nil {
		aiScorer := ai.NewScorer(generator, c.logger, ai.ScorerOptions{
			Provider:       c.config.AI.Provider,
			Considerations: c.config.AI.Considerations,
			MaxLogLength:   c.config.AI.MaxLogLength,
		})
		inner = matching.NewFallback(aiScorer, heuristic, c.logger)
	} else {
		c.logger.Info("no ai credential configured, scoring with heuristics only")
	}

	return matching.NewGate(inner, c.config.Matching.QuickFloor, c.config.Matching.HomeRegion, c.logger), nil
}

func (c *components) matchObserver() matching.MatchObserver {
	if c.redis == nil {
		return nil
	}
	return c.redisPublisher()
}

func (c *components) redisPublisher() *notify.RedisPublisher {
	return notify.NewRedisPublisher(c.redis, c.config.Notify.MatchChannel, c.config.Notify.ReportChannel)
}

func (c *components) aggregator(ctx context.Context) (*matching.Aggregator, error) {
	scorer, err := c.scorer(ctx)
	if err != nil {
		return nil, err
	}

	return matching.NewAggregator(c.store, scorer, c.logger, matching.AggregatorOptions{
		BatchSize: c.config.Matching.BatchSize,
		MinScore:  c.config.Matching.MinScore,
		Observer:  c.matchObserver(),
	}), nil
}

func (c *components) scrapers() []search.Scraper {
	cfg := c.config.Search
	var out []search.Scraper

	if cfg.Adzuna.Enabled {
		out = append(out, search.NewAdzuna(
			c.secrets.Lookup(secrets.AdzunaAppID),
			c.secrets.Lookup(secrets.AdzunaAppKey),
			cfg.Adzuna.Country,
			c.logger,
		))
	}
	if cfg.RemoteOK.Enabled {
		out = append(out, search.NewRemoteOK(c.logger))
	}
	if cfg.HH.Enabled {
		client := headhunter.New(c.logger, c.secrets.Lookup(secrets.HHToken))
		if cfg.HH.UserAgent != "" {
			client.UserAgent = cfg.HH.UserAgent
		}
		if cfg.HH.MaxPages > 0 {
			client.MaxPages = cfg.HH.MaxPages
		}
		out = append(out, headhunter.NewScraper(client, cfg.HH.Params))
	}

	return out
}

func (c *components) searcher() *search.Searcher {
	filters := filtering.Default(filtering.Config{
		RedFlags:          c.config.Filters.RedFlags,
		ExcludedCompanies: c.config.Filters.ExcludedCompanies,
		RemoteOnly:        c.config.Filters.RemoteOnly || c.config.Search.RemoteOnly,
	})
	return search.NewSearcher(c.store, c.logger, c.config.Search.Options, filters, c.scrapers()...)
}

func (c *components) notifier() *notify.Dispatcher {
	var notifiers []notify.Notifier

	if webhook := c.secrets.Lookup(secrets.SlackWebhook); webhook != "" {
		slack, err := notify.NewSlack(webhook)
		if err != nil {
			c.logger.Warn("skipping slack notifications", zap.Error(err))
		} else {
			notifiers = append(notifiers, slack)
		}
	}
	if c.redis != nil {
		notifiers = append(notifiers, c.redisPublisher())
	}

	return notify.NewDispatcher(c.store, c.logger, notifiers...)
}

func (c *components) orchestrator(ctx context.Context, opts orchestrator.Options) (*orchestrator.Orchestrator, error) {
	agg, err := c.aggregator(ctx)
	if err != nil {
		return nil, err
	}

	opts.Profile = c.config.Profile
	if opts.MaxJobs == 0 {
		opts.MaxJobs = c.config.Matching.MaxJobs
	}

	deps := orchestrator.Deps{
		Profiles: profile.NewBuilder(c.store, c.logger),
		Lookup:   c.store,
		Searcher: c.searcher(),
		Matcher:  agg,
		Reporter: report.NewBuilder(c.store, c.logger, c.config.Report),
		Notifier: c.notifier(),
	}
	return orchestrator.New(deps, opts, c.logger), nil
}

package cmd

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/headhunter"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/profile"
	"github.com/spigell/job-matcher/internal/report"
	"github.com/spigell/job-matcher/internal/scheduler"
	"github.com/spigell/job-matcher/internal/search"
	"github.com/spigell/job-matcher/internal/store"
)

const (
	app = "job-matcher"
)

type Config struct {
	Profile  profile.Config    `mapstructure:"profile"`
	Search   SearchConfig      `mapstructure:"search"`
	Filters  filtering.Config  `mapstructure:"filters"`
	Matching MatchingConfig    `mapstructure:"matching"`
	AI       AIConfig          `mapstructure:"ai"`
	Report   report.Options    `mapstructure:"report"`
	Notify   NotifyConfig      `mapstructure:"notify"`
	Schedule scheduler.Options `mapstructure:"schedule"`
	Database DatabaseConfig    `mapstructure:"database"`
	Server   ServerConfig      `mapstructure:"server"`
}

type SearchConfig struct {
	search.Options `mapstructure:",squash"`
	Adzuna         AdzunaConfig `mapstructure:"adzuna"`
	RemoteOK       SourceToggle `mapstructure:"remoteok"`
	HH             HHConfig     `mapstructure:"hh"`
}

type SourceToggle struct {
	Enabled bool `mapstructure:"enabled"`
}

type AdzunaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AppID   string `mapstructure:"app_id"`
	AppKey  string `mapstructure:"app_key"`
	Country string `mapstructure:"country"`
}

type HHConfig struct {
	Enabled   bool                    `mapstructure:"enabled"`
	TokenFile string                  `mapstructure:"token_file"`
	UserAgent string                  `mapstructure:"user_agent"`
	MaxPages  int                     `mapstructure:"max_pages"`
	Params    headhunter.SearchParams `mapstructure:"params"`
}

type MatchingConfig struct {
	BatchSize  int     `mapstructure:"batch_size"`
	MaxJobs    int     `mapstructure:"max_jobs_total"`
	MinScore   float64 `mapstructure:"min_score"`
	QuickFloor float64 `mapstructure:"quick_floor"`
	HomeRegion string  `mapstructure:"home_region"`
}

type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	Considerations []string      `mapstructure:"considerations"`
	MaxLogLength   int           `mapstructure:"max_log_length"`
	OpenAI         *OpenAIConfig `mapstructure:"openai"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey      string   `mapstructure:"api_key"`
	APIKeyFile  string   `mapstructure:"api_key_file"`
	Model       string   `mapstructure:"model"`
	Temperature *float32 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	APIKeyFile  string        `mapstructure:"api_key_file"`
	Model       string        `mapstructure:"model"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Temperature *float32      `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type NotifyConfig struct {
	SlackWebhook  string `mapstructure:"slack_webhook"`
	RedisURL      string `mapstructure:"redis_url"`
	MatchChannel  string `mapstructure:"match_channel"`
	ReportChannel string `mapstructure:"report_channel"`
}

type DatabaseConfig struct {
	URL           string        `mapstructure:"url"`
	store.Options `mapstructure:",squash"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	ProfileID int64  `mapstructure:"profile_id"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher searches job boards, scores listings against a candidate profile and reports the best matches",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().SetNormalizeFunc(aliasFlags)

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}
}

var flagAliases = map[string]string{
	"verbose":       "debug",
	"skip-matching": "skip-match",
}

// aliasFlags maps legacy flag names onto their current ones.
func aliasFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.location", search.DefaultLocation)
	v.SetDefault("search.max_queries", search.DefaultMaxQueries)
	v.SetDefault("search.max_per_source", search.DefaultMaxPerSource)
	v.SetDefault("search.adzuna.enabled", true)
	v.SetDefault("search.adzuna.country", "us")
	v.SetDefault("search.remoteok.enabled", true)
	v.SetDefault("search.hh.enabled", false)

	v.SetDefault("matching.batch_size", matching.DefaultBatchSize)
	v.SetDefault("matching.max_jobs_total", 100)
	v.SetDefault("matching.min_score", matching.DefaultMinScore)
	v.SetDefault("matching.quick_floor", matching.DefaultQuickFloor)
	v.SetDefault("matching.home_region", matching.DefaultHomeRegion)

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.model", "gpt-4")
	v.SetDefault("ai.openai.temperature", 0.3)
	v.SetDefault("ai.openai.max_tokens", 1000)

	v.SetDefault("report.dir", report.DefaultDir)
	v.SetDefault("report.min_score", report.DefaultMinScore)
	v.SetDefault("report.max_matches", report.DefaultMaxMatches)
	v.SetDefault("report.top_count", report.DefaultTopCount)
	v.SetDefault("report.min_per_source", report.DefaultMinPerSource)

	v.SetDefault("schedule.cron", scheduler.DefaultSpec)
	v.SetDefault("schedule.retry_attempts", scheduler.DefaultRetryAttempts)
	v.SetDefault("schedule.retry_delay", scheduler.DefaultRetryDelay)

	v.SetDefault("server.addr", ":8080")
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"search.location":      "JOB_SEARCH_LOCATION",
		"search.remote_only":   "JOB_SEARCH_REMOTE_ONLY",
		"matching.min_score":   "JOB_SEARCH_MIN_SCORE",
		"log_level":            "JOB_SEARCH_LOG_LEVEL",
		"database.url":         "DATABASE_URL",
		"search.hh.token_file": "HH_TOKEN_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

func initConfig() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults and environment are enough when no config file is found,
	// but we can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func newLogger() *zap.Logger {
	level := viper.GetString("log_level")
	if viper.GetBool("debug") {
		level = "debug"
	}

	l, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Level: level})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

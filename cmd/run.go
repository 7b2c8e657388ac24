package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/orchestrator"
)

// errExit asks the caller to exit with a non-zero code without logging again.
var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: profile, search, match and report",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := run(cmd); err != nil {
			if !errors.Is(err, errExit) {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("skip-profile", false, "skip the profile phase")
	runCmd.Flags().Bool("skip-search", false, "skip the search phase")
	runCmd.Flags().Bool("skip-match", false, "skip the match phase")
	runCmd.Flags().Bool("skip-report", false, "skip the report phase")
	runCmd.Flags().Bool("search-only", false, "only run the search phase")
	runCmd.Flags().Bool("match-only", false, "only run the match phase")
	runCmd.Flags().Bool("report-only", false, "only run the report phase")
	runCmd.Flags().Int64("profile-id", 0, "use an existing profile instead of the configured one")
	runCmd.Flags().SetNormalizeFunc(aliasFlags)
}

type phaseFlags struct {
	skipProfile, skipSearch, skipMatch, skipReport bool
	searchOnly, matchOnly, reportOnly              bool
}

// phases turns the skip and only flags into orchestrator options.
func phases(f phaseFlags, profileID int64) (orchestrator.Options, error) {
	only := 0
	for _, set := range []bool{f.searchOnly, f.matchOnly, f.reportOnly} {
		if set {
			only++
		}
	}
	if only > 1 {
		return orchestrator.Options{}, errors.New("--search-only, --match-only and --report-only are mutually exclusive")
	}

	return orchestrator.Options{
		ProfileID:   profileID,
		SkipProfile: f.skipProfile || f.searchOnly || f.matchOnly || f.reportOnly,
		SkipSearch:  f.skipSearch || f.matchOnly || f.reportOnly,
		SkipMatch:   f.skipMatch || f.searchOnly || f.reportOnly,
		SkipReport:  f.skipReport || f.searchOnly || f.matchOnly,
	}, nil
}

func phaseFlagsFrom(cmd *cobra.Command) phaseFlags {
	get := func(name string) bool {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return phaseFlags{
		skipProfile: get("skip-profile"),
		skipSearch:  get("skip-search"),
		skipMatch:   get("skip-match"),
		skipReport:  get("skip-report"),
		searchOnly:  get("search-only"),
		matchOnly:   get("match-only"),
		reportOnly:  get("report-only"),
	}
}

// run is the main command for the cli.
func run(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Error("getting a config", zap.Error(err))
		return errExit
	}

	logger.Info("starting the job-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	profileID, _ := cmd.Flags().GetInt64("profile-id")
	opts, err := phases(phaseFlagsFrom(cmd), profileID)
	if err != nil {
		return err
	}

	c, err := newComponents(ctx, config, logger)
	if err != nil {
		logger.Error("initializing", zap.Error(err))
		return errExit
	}
	defer c.Close()

	result, err := pipeline(ctx, c, opts)
	if err != nil {
		logger.Error("building the pipeline", zap.Error(err))
		return errExit
	}

	logRunSummary(logger, result)

	if result.HasErrors() {
		return errExit
	}
	return nil
}

func pipeline(ctx context.Context, c *components, opts orchestrator.Options) (*orchestrator.Result, error) {
	o, err := c.orchestrator(ctx, opts)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx), nil
}

func logRunSummary(logger *zap.Logger, result *orchestrator.Result) {
	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.Int64("profile_id", result.ProfileID),
		zap.Int("matches", len(result.Matches)),
		zap.Duration("duration", result.Duration),
	}
	if result.Search != nil {
		fields = append(fields, zap.Int("jobs_found", result.Search.Found), zap.Int("jobs_new", result.Search.New))
	}
	if result.Report != nil {
		fields = append(fields, zap.String("report", result.Report.MarkdownPath))
	}
	for _, e := range result.Errors {
		logger.Error("phase failed", zap.String("phase", string(e.Phase)), zap.Error(e.Err))
	}

	fields = append(fields,
		zap.Int("strong", result.Summary.Strong),
		zap.Int("good", result.Summary.Good),
		zap.Float64("average_score", result.Summary.AverageScore),
	)
	logger.Info("run summary", fields...)
}

// redacted returns a copy of config safe to print.
func redacted(config *Config) Config {
	out := *config
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}

	out.Search.Adzuna.AppID = mask(out.Search.Adzuna.AppID)
	out.Search.Adzuna.AppKey = mask(out.Search.Adzuna.AppKey)
	out.Notify.SlackWebhook = mask(out.Notify.SlackWebhook)
	out.Notify.RedisURL = mask(out.Notify.RedisURL)
	out.Database.URL = mask(out.Database.URL)
	if out.AI.OpenAI != nil {
		openAI := *out.AI.OpenAI
		openAI.APIKey = mask(openAI.APIKey)
		out.AI.OpenAI = &openAI
	}
	if out.AI.Gemini != nil {
		gemini := *out.AI.Gemini
		gemini.APIKey = mask(gemini.APIKey)
		out.AI.Gemini = &gemini
	}
	return out
}

package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/secrets"
	"github.com/spigell/job-matcher/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var resetPrompt = promptui.Select{
	Label: "Drop every table and recreate the schema?",
	Items: []string{PromptNo, PromptYes},
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return initDB(cmd)
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)

	initDBCmd.Flags().Bool("reset", false, "drop all tables before migrating")
	initDBCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation on reset")
}

func initDB(cmd *cobra.Command) error {
	ctx := context.Background()
	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	url, err := newSecrets(config).Get(secrets.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%w (set DATABASE_URL or database.url)", err)
	}

	db, err := store.Connect(ctx, url, config.Database.Options)
	if err != nil {
		return err
	}
	defer db.Close()

	reset, _ := cmd.Flags().GetBool("reset")
	yes, _ := cmd.Flags().GetBool("yes")

	if reset {
		if !yes {
			_, answer, err := resetPrompt.Run()
			if err != nil {
				return err
			}
			if answer != PromptYes {
				logger.Info("exiting", zap.String("reason", "reset not confirmed"))
				return nil
			}
		}
		if err := store.Reset(ctx, db); err != nil {
			return fmt.Errorf("resetting database: %w", err)
		}
		logger.Info("database reset")
	} else if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	version, err := store.Version(ctx, db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("database initialized", zap.Int64("schema_version", version))
	return nil
}

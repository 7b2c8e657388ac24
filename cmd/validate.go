package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/job-matcher/internal/secrets"
	"github.com/spigell/job-matcher/internal/store"
)

const (
	statusOK      = "OK"
	statusMissing = "MISSING"
	statusError   = "ERROR"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configured credentials and database reachability",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}
		return validate(cmd.Context(), cmd.OutOrStdout(), newSecrets(config), config.Database.Options)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

var connectDB = store.Connect

func validate(ctx context.Context, out io.Writer, provider *secrets.Provider, dbOpts store.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREDENTIAL\tSTATUS\tDETAIL")

	for _, st := range provider.Statuses() {
		status, detail := statusMissing, ""
		switch {
		case st.Configured:
			status = statusOK
		case st.Err != nil:
			status, detail = statusError, st.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Name, status, detail)
	}

	dbStatus, dbDetail := statusMissing, "in-memory store will be used"
	if url := provider.Lookup(secrets.DatabaseURL); url != "" {
		db, err := connectDB(ctx, url, dbOpts)
		if err != nil {
			dbStatus, dbDetail = statusError, err.Error()
		} else {
			dbStatus, dbDetail = statusOK, "reachable"
			db.Close()
		}
	}
	fmt.Fprintf(w, "database\t%s\t%s\n", dbStatus, dbDetail)

	return w.Flush()
}

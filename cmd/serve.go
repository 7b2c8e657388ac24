package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/api"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored matches and stats over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().Int64("profile-id", 0, "profile served when a request does not name one")
}

func serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	addr := config.Server.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}
	profileID := config.Server.ProfileID
	if v, _ := cmd.Flags().GetInt64("profile-id"); v > 0 {
		profileID = v
	}

	c, err := newComponents(ctx, config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(c.store, profileID, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.Int64("default_profile_id", profileID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

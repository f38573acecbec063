package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/user/release-portal/internal/config"
	"github.com/user/release-portal/internal/database"
	"github.com/user/release-portal/internal/logger"
	"github.com/user/release-portal/internal/portal"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the release portal API server",
		RunE:  run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.SetDebug(cfg.Debug)

	db, err := database.NewSQLiteDB(cfg.Serve.SQLitePath)
	if err != nil {
		return err
	}

	service := portal.NewService(db)
	hub := portal.NewHub()
	notifier := portal.NewNotifier(cfg.Serve.NotifyWebhookURL, cfg.Serve.ReleaseManagerEmail)
	server := portal.NewServer(cfg.Serve.Port, service, hub, notifier)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/api"
	"github.com/susu3304/partybot/internal/bot"
	"github.com/susu3304/partybot/internal/config"
	"github.com/susu3304/partybot/internal/conversation"
	"github.com/susu3304/partybot/internal/db"
	"github.com/susu3304/partybot/internal/filestore"
	"github.com/susu3304/partybot/internal/ledger"
	"github.com/susu3304/partybot/internal/logging"
	"github.com/susu3304/partybot/internal/sessions"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "partybot",
		Short:         "Discord bot that splits party expenses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err = logging.New(logging.ParseEnvironment(cfg.AppEnv), cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		exportCmd(),
		importLegacyCmd(),
		tokenCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the web API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

// openStore picks Postgres when DATABASE_URL is set and the JSON file
// otherwise, then loads every chat into memory.
func openStore(ctx context.Context) (*ledger.Store, func(), error) {
	var (
		persister ledger.Persister
		closer    = func() {}
	)

	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		persister, closer = database, database.Close
		logger.Info("using postgres storage")
	} else {
		persister = filestore.New(cfg.DataFile)
		logger.Info("using file storage", zap.String("path", cfg.DataFile))
	}

	store := ledger.NewStore(persister)
	if err := store.Load(ctx); err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return store, closer, nil
}

func serve(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	dir := sessions.NewDirectory()
	sweeper := sessions.NewSweeper(dir, cfg.SessionTTL, logger)
	sweeper.Start()
	defer sweeper.Stop()

	machine := conversation.NewMachine(store, dir, logger, conversation.WithDefaultLanguage(cfg.DefaultLanguage))

	discordBot, err := bot.New(cfg.DiscordToken, machine, store, logger)
	if err != nil {
		return err
	}
	if err := discordBot.Start(); err != nil {
		return err
	}
	defer discordBot.Stop()

	apiServer := api.New(cfg, store, logger)
	if !cfg.OAuthEnabled() {
		logger.Warn("discord login disabled; set DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET to enable it")
	}
	apiErr := make(chan error, 1)
	go func() {
		apiErr <- apiServer.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return <-apiErr
	case err := <-apiErr:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/maheshrc27/chanpost/configs"
	"github.com/maheshrc27/chanpost/internal/api"
	"github.com/maheshrc27/chanpost/internal/bot"
	"github.com/maheshrc27/chanpost/internal/database"
	job "github.com/maheshrc27/chanpost/internal/jobs"
	"github.com/maheshrc27/chanpost/internal/repository"
	"github.com/maheshrc27/chanpost/internal/service"
	"github.com/maheshrc27/chanpost/internal/session"
	"github.com/maheshrc27/chanpost/pkg/logger"
)

var (
	envFile   string
	version   = "0.1.0"
	gitCommit = "unknown"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:          "chanpost",
	Short:        "chanpost - scheduled Telegram channel publisher",
	Long:         `chanpost lets a single administrator compose posts in a Telegram chat and publishes them to a channel at the chosen time.`,
	SilenceUsage: true,
	RunE:         runBot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chanpost %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(versionCmd)
}

func runBot(*cobra.Command, []string) error {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", envFile, err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting chanpost",
		zap.String("version", version),
		zap.String("channel", cfg.ChannelID),
		zap.Int64("admin_id", cfg.AdminID),
		zap.String("database", cfg.Database.Driver))

	botDB, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB(appLogger, "bot", botDB)

	schedulerDB, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open scheduler database: %w", err)
	}
	defer closeDB(appLogger, "scheduler", schedulerDB)

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: cfg.SendTimeout})
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	appLogger.Info("Authorized on telegram", zap.String("bot", botAPI.Self.UserName))

	telegramService := service.NewTelegramService(*cfg, botAPI)

	var archiver service.MediaArchiver
	if cfg.R2.Enabled() {
		r2Service, err := service.NewR2Service(context.Background(), cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize media archive: %w", err)
		}
		archiver = service.NewMediaArchiveService(telegramService, r2Service, &http.Client{Timeout: time.Minute}, cfg.R2.PublicURL)
		appLogger.Info("Media archive enabled", zap.String("bucket", cfg.R2.BucketName))
	}

	postRepo := repository.NewPostRepository(botDB, appLogger)
	postService := service.NewPostService(postRepo, archiver, appLogger)

	machine := session.NewMachine(session.NewStore(), postService)
	router := bot.NewRouter(*cfg, botAPI, postService, machine, appLogger)

	// cron jobs
	deliveryJob := job.NewDeliveryJob(repository.NewPostRepository(schedulerDB, appLogger), telegramService, appLogger)

	c := cron.New()
	if err := c.AddFunc(fmt.Sprintf("@every %s", cfg.PollInterval), deliveryJob.DeliverDuePosts); err != nil {
		return fmt.Errorf("failed to schedule delivery job: %w", err)
	}
	go deliveryJob.DeliverDuePosts()
	c.Start()

	app := api.NewApp(appLogger)
	go func() {
		if err := app.Listen(":" + cfg.HealthPort); err != nil {
			appLogger.Error("Health server stopped", zap.Error(err))
		}
	}()
	appLogger.Info("Health endpoint listening", zap.String("port", cfg.HealthPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout(cfg.SendTimeout)
	updates := botAPI.GetUpdatesChan(u)

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.Run(ctx, updates)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		appLogger.Info("Shutting down...")
	case <-done:
		appLogger.Warn("Update stream closed")
	}

	c.Stop()
	botAPI.StopReceivingUpdates()
	cancel()
	<-done

	if err := app.Shutdown(); err != nil {
		appLogger.Error("Failed to shut down health server", zap.Error(err))
	}

	postService.Wait()

	appLogger.Info("Shutdown complete")
	return nil
}

// pollTimeout keeps the long-poll wait below the HTTP client timeout.
func pollTimeout(clientTimeout time.Duration) int {
	seconds := int((clientTimeout / 2).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

func closeDB(log *zap.Logger, name string, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Error("Failed to close database", zap.String("handle", name), zap.Error(err))
		return
	}
	log.Info("Database closed", zap.String("handle", name))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrutov/stockpulse/internal/config"
	"github.com/mkrutov/stockpulse/internal/finnhub"
	"github.com/mkrutov/stockpulse/internal/journal"
	"github.com/mkrutov/stockpulse/internal/logger"
	"github.com/mkrutov/stockpulse/internal/telegram"
	"github.com/mkrutov/stockpulse/internal/tracker"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to load reference timezone: %v", err)
	}

	jnl, err := journal.New(
		cfg.Journal.MaxAlerts,
		cfg.Journal.DBPath,
	)
	if err != nil {
		logger.Fatal("Failed to initialize alert journal: %v", err)
	}
	defer func() {
		if err := jnl.Close(); err != nil {
			logger.Error("Failed to close alert journal: %v", err)
		}
	}()

	finnhubClient := finnhub.NewClient(
		cfg.Finnhub.APIURL,
		cfg.Finnhub.APIKey,
		cfg.Finnhub.Timeout,
		finnhub.ClientConfig{
			MaxRetries:          cfg.Finnhub.MaxRetries,
			RetryDelayBase:      cfg.Finnhub.RetryDelayBase,
			MaxIdleConns:        cfg.Finnhub.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.Finnhub.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.Finnhub.IdleConnTimeout,
		},
	)

	var telegramClient *telegram.Client
	var notifier tracker.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, loc, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	trackerConfig := tracker.Config{
		NewsLimit:       cfg.Finnhub.NewsLimit,
		StalenessWindow: cfg.Tracker.StalenessWindow,
		PumpThreshold:   cfg.Tracker.PumpThreshold,
		LongThreshold:   cfg.Tracker.LongThreshold,
		VolumeFloor:     cfg.Tracker.VolumeFloor,
		PriceCap:        cfg.Tracker.PriceCap,
		Exchanges:       cfg.Tracker.Exchanges,
		MaxWatchAge:     cfg.Tracker.MaxWatchAge,
	}
	trk := tracker.New(finnhubClient, notifier, trackerConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	logger.Info("Starting signal tracking service (interval: %v, staleness: %v, pump: %.1f%%, long: %.1f%%, cap: %.2f)",
		cfg.Finnhub.PollInterval,
		cfg.Tracker.StalenessWindow,
		cfg.Tracker.PumpThreshold,
		cfg.Tracker.LongThreshold,
		cfg.Tracker.PriceCap,
	)

	ticker := time.NewTicker(cfg.Finnhub.PollInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Tracking cycle failed: %v", err)
			if consecutiveFailures == 1 && cfg.Telegram.Enabled && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && cfg.Telegram.Enabled && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial tracking cycle")
	handleCycleResult(runTrackingCycle(ctx, finnhubClient, trk, jnl, loc, cfg))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled tracking cycle")
			handleCycleResult(runTrackingCycle(ctx, finnhubClient, trk, jnl, loc, cfg))
			if err := jnl.Rotate(); err != nil {
				logger.Warn("Failed to rotate alert journal: %v", err)
			}
		}
	}
}

// withinTradingHours gates polling to the configured window in the reference
// timezone (pre-market open through the close by default).
func withinTradingHours(now time.Time, cfg *config.Config) bool {
	hour := now.Hour()
	return hour >= cfg.Tracker.TradingStartHour && hour < cfg.Tracker.TradingEndHour
}

func runTrackingCycle(
	ctx context.Context,
	client *finnhub.Client,
	trk *tracker.Tracker,
	jnl *journal.Journal,
	loc *time.Location,
	cfg *config.Config,
) error {
	startTime := time.Now()
	now := startTime.In(loc)

	if !withinTradingHours(now, cfg) {
		logger.Debug("Outside trading hours (%s), skipping cycle", now.Format("15:04 MST"))
		return nil
	}

	logger.Info("Starting tracking cycle")

	logger.Debug("Fetching news from Finnhub (limit: %d)", cfg.Finnhub.NewsLimit)
	news, err := client.FetchNews(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch news: %w", err)
	}
	logger.Info("Fetched %d news items", len(news))

	added := trk.Extract(ctx, news, now)
	logger.Info("Extraction complete: %d new candidates, %d watched", len(added), trk.WatchCount())

	summary := trk.Evaluate(ctx, now)
	logger.Info("Evaluation complete: %d alerts, %d expired, %d skipped, %d held",
		len(summary.Alerts), len(summary.Expired), summary.Skipped, summary.Held)

	for i := range summary.Alerts {
		if err := jnl.Record(&summary.Alerts[i]); err != nil {
			logger.Warn("Failed to journal alert for %s: %v", summary.Alerts[i].Symbol, err)
		}
	}

	duration := time.Since(startTime)
	logger.Info("Tracking cycle completed in %v", duration)

	return nil
}

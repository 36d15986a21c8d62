package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trading-bot-go/internal/botapi"
	"paper-trading-bot-go/internal/config"
	"paper-trading-bot-go/internal/database"
	"paper-trading-bot-go/internal/ledger"
	"paper-trading-bot-go/internal/logger"
	"paper-trading-bot-go/internal/market"
	"paper-trading-bot-go/internal/session"
	"paper-trading-bot-go/internal/store"
	"paper-trading-bot-go/internal/trader"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize the snapshot store
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	snapshots := store.NewSnapshotStore(db, log)
	log.Info("Database connection successful and schema migrated.")

	// Session tracker and trade ledger
	tracker := session.NewTracker(log)
	book := ledger.New(tracker, log)

	// Re-seed from the newest snapshot, or start fresh.
	if prev, ok, err := snapshots.LoadLatestSession(); err != nil {
		log.Warn("Could not load previous session, starting fresh", zap.Error(err))
		book.Initialize(cfg.Trading.StartingEquity)
	} else if ok {
		tracker.Seed(prev)
		log.Info("Re-seeded session from snapshot", zap.String("session_id", prev.ID))
	} else {
		book.Initialize(cfg.Trading.StartingEquity)
	}

	// Check connectivity to the external bot-status API. Paper trading
	// works offline, so a failed ping is surfaced but not fatal.
	if cfg.Exchange.StatusURL != "" {
		statusClient := botapi.NewRestClient(&cfg.Exchange, log)
		if err := statusClient.Ping(); err != nil {
			log.Warn("Bot-status API unreachable", zap.Error(err))
			tracker.AddAlert(session.AlertWarning, "Bot-status API unreachable")
		} else {
			log.Info("Successfully connected to bot-status API.")
		}
	}

	// Simulated price feed over the configured pairs.
	basePrices := make(map[string]float64, len(cfg.Trading.TradePairs))
	for i, pair := range cfg.Trading.TradePairs {
		basePrices[pair] = 100 * float64(i+1)
	}
	feed := market.NewRandomWalkFeed(time.Now().UnixNano(), cfg.Trading.HistorySize, basePrices)

	// Optionally pre-populate the ledger with demo trades.
	if cfg.Trading.SeedSamples > 0 {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		if err := ledger.SeedSampleTrades(book, r, cfg.Trading.TradePairs, cfg.Trading.SeedSamples); err != nil {
			log.Warn("Failed to seed sample trades", zap.Error(err))
		}
	}

	tracker.StartTrading()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the trading engine with its API server
	engine := trader.NewEngine(log, &cfg, feed, book, tracker, snapshots, trader.NewSignalStrategy())
	api := trader.NewAPIServer(engine, cfg.Trading.ApiPort, log)
	api.Start()

	engine.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := api.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server", zap.Error(err))
	}

	log.Info("Bot has been shut down.")
}

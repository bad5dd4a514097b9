package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/elasticity/internal/bot"
	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/config"
	"github.com/rewired-gh/elasticity/internal/game"
	"github.com/rewired-gh/elasticity/internal/logger"
	"github.com/rewired-gh/elasticity/internal/simulator"
	"github.com/rewired-gh/elasticity/internal/storage"
	"github.com/rewired-gh/elasticity/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.Telegram.Enabled {
		log.Fatalf("telegram.enabled must be true to run the bot")
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	cat, err := catalog.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog: %v", err)
	}
	logger.Info("Catalog ready: %d products, %d scenarios", cat.NumProducts(), cat.NumScenarios())

	sim, err := simulator.New(cat, cfg.Domain())
	if err != nil {
		logger.Fatal("Failed to initialize simulator: %v", err)
	}
	engine, err := game.New(cat, cfg.GameSettings())
	if err != nil {
		logger.Fatal("Failed to initialize game engine: %v", err)
	}

	// Initialize round archive
	archive, err := storage.OpenArchive(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sessions := storage.NewSessions()
	b, err := bot.New(sim, engine, sessions, archive, rand.New(rand.NewSource(seed)))
	if err != nil {
		logger.Fatal("Failed to initialize bot: %v", err)
	}

	// Initialize Telegram client
	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase, cfg.Telegram.PollTimeout)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram client: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	d := cfg.Domain()
	logger.Info("Bot listening (price domain %.2f..%.2f step %.2f, max attempts %d)",
		d.Min, d.Max, d.Step, cfg.Game.MaxAttempts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The heartbeat has nothing to report once polling ends.
		defer cancel()
		return client.Listen(gctx, b)
	})
	g.Go(func() error {
		reportSessions(gctx, sessions, heartbeatInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Service stopped with error: %v", err)
		return
	}
	logger.Info("Service stopped")
}

const heartbeatInterval = 10 * time.Minute

// reportSessions logs the number of rounds in progress until ctx is done.
func reportSessions(ctx context.Context, sessions *storage.Sessions, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("Rounds in progress: %d", sessions.Active())
		}
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dicehouse/dicehouse-server/internal/chain"
	"github.com/dicehouse/dicehouse-server/internal/config"
	"github.com/dicehouse/dicehouse-server/internal/engine"
	"github.com/dicehouse/dicehouse-server/internal/events"
	"github.com/dicehouse/dicehouse-server/internal/server"
	"github.com/dicehouse/dicehouse-server/internal/token"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting dicehouse server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ledger, cleanup, err := initLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		logger.Fatal("failed to initialize ledger", zap.Error(err))
	}
	defer cleanup()

	bus := events.NewBus(logger)

	eng, err := engine.New(engine.Params{
		Treasury:     chain.Address(cfg.Game.TreasuryAddress),
		Owner:        chain.Address(cfg.Game.Owner),
		PrizeAmount:  cfg.Game.PrizeAmount,
		Cooldown:     cfg.Game.Cooldown(),
		MaxPrizePool: cfg.Game.MaxPrizePool,
		MaxNumber:    cfg.Game.MaxNumber,
	}, ledger, bus, logger)
	if err != nil {
		logger.Fatal("failed to initialize engine", zap.Error(err))
	}
	logger.Info("engine initialized",
		zap.String("treasury", cfg.Game.TreasuryAddress),
		zap.String("owner", cfg.Game.Owner),
		zap.Int64("prize_amount", cfg.Game.PrizeAmount),
		zap.Int64("max_prize_pool", cfg.Game.MaxPrizePool),
		zap.Duration("cooldown", cfg.Game.Cooldown()),
	)

	host := chain.NewHost(cfg.Chain.ID, logger)

	hub := server.NewHub(logger)
	feed, cancelFeed := bus.Subscribe(256)
	defer cancelFeed()
	go hub.Run(ctx, feed)

	srv := server.New(cfg.Server.Address, host, eng, hub, logger)
	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(serveErr))
		}
	}()

	logger.Info("dicehouse server initialized",
		zap.String("address", cfg.Server.Address),
		zap.Uint64("chain_id", cfg.Chain.ID),
		zap.String("ledger_backend", cfg.Ledger.Backend),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	cancel()

	logger.Info("dicehouse server stopped")
}

// initLedger constructs the configured token ledger backend and applies the
// genesis grants. The returned cleanup releases backend resources.
func initLedger(ctx context.Context, cfg config.LedgerConfig, logger *zap.Logger) (token.Ledger, func(), error) {
	switch cfg.Backend {
	case config.LedgerBackendMemory:
		ledger := token.NewMemoryLedger()
		for _, grant := range cfg.Genesis {
			ledger.Mint(chain.Address(grant.Address), grant.Amount)
		}
		logger.Info("memory ledger initialized", zap.Int("genesis_grants", len(cfg.Genesis)))
		return ledger, func() {}, nil

	case config.LedgerBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		ledger := token.NewPostgresLedger(pool)
		if err := ledger.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		for _, grant := range cfg.Genesis {
			if err := ledger.Mint(ctx, chain.Address(grant.Address), grant.Amount); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("apply genesis grant to %s: %w", grant.Address, err)
			}
		}
		logger.Info("postgres ledger initialized", zap.Int("genesis_grants", len(cfg.Genesis)))
		return ledger, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// Package main is the entry point for the Discord premium bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"discord-premium-bot/internal/bot"
	"discord-premium-bot/internal/config"
	"discord-premium-bot/internal/notify"
	"discord-premium-bot/internal/pkg/db"
	"discord-premium-bot/internal/pkg/lock"
	"discord-premium-bot/internal/premium"
	"discord-premium-bot/internal/repository"
	"discord-premium-bot/internal/service"
	"discord-premium-bot/internal/sweeper"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Bot.Token == "" {
		log.Fatal().Msg("Bot token is not configured (set BOT_TOKEN or bot.token)")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	entitlementRepo := repository.NewEntitlementRepository(dbPool.Pool)
	couponRepo := repository.NewCouponRepository(dbPool.Pool)
	purchaseRepo := repository.NewPurchaseRepository(dbPool.Pool)
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)

	// Initialize tier catalog
	catalog, err := premium.NewCatalog(cfg.Tiers)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid tier configuration")
	}

	// Initialize user lock
	userLock := lock.NewUserLock()

	// Initialize Discord session
	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create discord session")
	}

	// Role grants need a guild; without one, benefit delivery is a no-op.
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Bot.GuildID != "" {
		notifier = notify.NewDiscordNotifier(session, cfg.Bot.GuildID, catalog)
	} else {
		log.Warn().Msg("No guild configured, premium role delivery disabled")
	}

	// Initialize services
	ledgerService := service.NewLedgerService(accountRepo, ledgerRepo, userLock)
	entitlementService := service.NewEntitlementService(entitlementRepo, notifier, userLock)
	couponService := service.NewCouponService(couponRepo)
	shopService := service.NewShopService(
		catalog,
		ledgerService,
		entitlementService,
		couponService,
		purchaseRepo,
		userLock,
		cfg.Payment.RupeeRate,
		cfg.Payment.CoinsPerRate,
	)

	// Start the expiry sweeper
	sw := sweeper.New(entitlementService, cfg.Sweep.Interval)
	go sw.Run(ctx)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:             cfg,
		Session:            session,
		LedgerService:      ledgerService,
		EntitlementService: entitlementService,
		CouponService:      couponService,
		ShopService:        shopService,
	}

	// Initialize bot
	discordBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("Bot is starting...")
	if err := discordBot.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start bot")
	}

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	cancel()
	discordBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create accounts table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			user_id BIGINT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: accounts table created")

	// Migration 2: Create entitlements table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entitlements (
			user_id BIGINT PRIMARY KEY,
			tier VARCHAR(20) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_entitlements_expires ON entitlements(expires_at);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: entitlements table created")

	// Migration 3: Create coupons table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS coupons (
			code VARCHAR(64) PRIMARY KEY,
			kind VARCHAR(10) NOT NULL,
			value BIGINT NOT NULL,
			max_uses INT NOT NULL,
			used_count INT NOT NULL DEFAULT 0,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: coupons table created")

	// Migration 4: Create purchases table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS purchases (
			invoice_id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount_charged BIGINT NOT NULL,
			benefit VARCHAR(100) NOT NULL,
			coupon_code VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_purchases_user_time ON purchases(user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: purchases table created")

	// Migration 5: Create ledger entries table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_time ON ledger_entries(user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: ledger_entries table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}

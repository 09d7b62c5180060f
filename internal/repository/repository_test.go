// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"discord-premium-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Run migrations
	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	// Return cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			user_id BIGINT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entitlements (
			user_id BIGINT PRIMARY KEY,
			tier VARCHAR(20) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS coupons (
			code VARCHAR(64) PRIMARY KEY,
			kind VARCHAR(10) NOT NULL,
			value BIGINT NOT NULL,
			max_uses INT NOT NULL,
			used_count INT NOT NULL DEFAULT 0,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS purchases (
			invoice_id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount_charged BIGINT NOT NULL,
			benefit VARCHAR(100) NOT NULL,
			coupon_code VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// ============================================================================
// AccountRepository Tests
// ============================================================================

func TestAccountRepository_CreditCreatesAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	// Credit with no prior account creates it at the credited amount
	balance, err := repo.Credit(ctx, 12345, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	// Second credit accumulates
	balance, err = repo.Credit(ctx, 12345, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	acc, err := repo.Get(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(150), acc.Balance)
}

func TestAccountRepository_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Get(ctx, 99999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_Debit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Credit(ctx, 12345, 100)
	require.NoError(t, err)

	// Sufficient balance
	balance, err := repo.Debit(ctx, 12345, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	// Insufficient balance leaves the account untouched
	_, err = repo.Debit(ctx, 12345, 60)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	acc, err := repo.Get(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(40), acc.Balance)
}

func TestAccountRepository_DebitMissingAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	// Debiting an absent account fails and lazily creates it at 0
	_, err := repo.Debit(ctx, 777, 10)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	acc, err := repo.Get(ctx, 777)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)
}

func TestAccountRepository_DebitConcurrent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Credit(ctx, 12345, 100)
	require.NoError(t, err)

	// 10 concurrent debits of 30 against a balance of 100: exactly 3 can win
	var wg sync.WaitGroup
	successes := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Debit(ctx, 12345, 30); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Len(t, successes, 3)

	acc, err := repo.Get(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(10), acc.Balance)
}

func TestAccountRepository_RemoveUpTo(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Credit(ctx, 12345, 50)
	require.NoError(t, err)

	// Removing more than the balance floors at zero
	balance, removed, err := repo.RemoveUpTo(ctx, 12345, 80)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
	assert.Equal(t, int64(50), removed)

	// Removing from a missing account reports not found
	_, _, err = repo.RemoveUpTo(ctx, 99999, 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_Transfer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Credit(ctx, 1, 100)
	require.NoError(t, err)

	// Receiver account does not exist yet; the transfer creates it
	fromBal, toBal, err := repo.Transfer(ctx, 1, 2, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), fromBal)
	assert.Equal(t, int64(40), toBal)

	// Insufficient sender balance moves nothing
	_, _, err = repo.Transfer(ctx, 1, 2, 100)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	fromAcc, _ := repo.Get(ctx, 1)
	toAcc, _ := repo.Get(ctx, 2)
	assert.Equal(t, int64(60), fromAcc.Balance)
	assert.Equal(t, int64(40), toAcc.Balance)
}

func TestAccountRepository_Top(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, _ = repo.Credit(ctx, 1, 3000)
	_, _ = repo.Credit(ctx, 2, 1000)
	_, _ = repo.Credit(ctx, 3, 5000)

	accounts, err := repo.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	// Verify ordering (descending by balance)
	assert.Equal(t, int64(3), accounts[0].UserID)
	assert.Equal(t, int64(1), accounts[1].UserID)
	assert.Equal(t, int64(2), accounts[2].UserID)
}

// ============================================================================
// EntitlementRepository Tests
// ============================================================================

func TestEntitlementRepository_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntitlementRepository(pool)
	ctx := context.Background()

	expiry := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Microsecond)
	ent, err := repo.Upsert(ctx, 12345, model.TierBronze, expiry)
	require.NoError(t, err)
	assert.Equal(t, model.TierBronze, ent.Tier)
	assert.True(t, ent.ExpiresAt.Equal(expiry))

	// Upsert replaces tier and expiry in place
	later := expiry.Add(48 * time.Hour)
	ent, err = repo.Upsert(ctx, 12345, model.TierGold, later)
	require.NoError(t, err)
	assert.Equal(t, model.TierGold, ent.Tier)
	assert.True(t, ent.ExpiresAt.Equal(later))

	got, err := repo.Get(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, model.TierGold, got.Tier)

	_, err = repo.Get(ctx, 99999)
	assert.ErrorIs(t, err, ErrEntitlementNotFound)
}

func TestEntitlementRepository_ListExpired(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntitlementRepository(pool)
	ctx := context.Background()

	now := time.Now()
	_, _ = repo.Upsert(ctx, 1, model.TierBronze, now.Add(-time.Hour))
	_, _ = repo.Upsert(ctx, 2, model.TierSilver, now.Add(-time.Minute))
	_, _ = repo.Upsert(ctx, 3, model.TierGold, now.Add(time.Hour))

	expired, err := repo.ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, int64(1), expired[0].UserID)
	assert.Equal(t, int64(2), expired[1].UserID)
}

func TestEntitlementRepository_DeleteIfExpired(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntitlementRepository(pool)
	ctx := context.Background()

	now := time.Now()
	_, _ = repo.Upsert(ctx, 1, model.TierBronze, now.Add(-time.Hour))

	// Expired row is deleted
	deleted, err := repo.DeleteIfExpired(ctx, 1, now)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrEntitlementNotFound)

	// A renewal between scan and delete keeps the row
	_, _ = repo.Upsert(ctx, 2, model.TierGold, now.Add(time.Hour))
	deleted, err = repo.DeleteIfExpired(ctx, 2, now)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Get(ctx, 2)
	require.NoError(t, err)
}

func TestEntitlementRepository_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntitlementRepository(pool)
	ctx := context.Background()

	_, _ = repo.Upsert(ctx, 1, model.TierSilver, time.Now().Add(time.Hour))

	deleted, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting again reports no row
	deleted, err = repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

// ============================================================================
// CouponRepository Tests
// ============================================================================

func TestCouponRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCouponRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Coupon{
		Code:    "save50",
		Kind:    model.CouponFlat,
		Value:   50,
		MaxUses: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "SAVE50", created.Code)
	assert.Equal(t, 0, created.UsedCount)
	assert.Nil(t, created.ExpiresAt)

	// Lookup is case-insensitive
	got, err := repo.Get(ctx, "Save50")
	require.NoError(t, err)
	assert.Equal(t, "SAVE50", got.Code)
	assert.Equal(t, int64(50), got.Value)

	_, err = repo.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrCouponNotFound)

	// Duplicate code is rejected regardless of case
	_, err = repo.Create(ctx, &model.Coupon{Code: "SAVE50", Kind: model.CouponFlat, Value: 10, MaxUses: 1})
	assert.ErrorIs(t, err, ErrCouponExists)
}

func TestCouponRepository_IncrementUsage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCouponRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.Coupon{Code: "ONCE", Kind: model.CouponFlat, Value: 10, MaxUses: 1})
	require.NoError(t, err)

	ok, err := repo.IncrementUsage(ctx, "once")
	require.NoError(t, err)
	assert.True(t, ok)

	// Cap reached
	ok, err = repo.IncrementUsage(ctx, "ONCE")
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown code
	ok, err = repo.IncrementUsage(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCouponRepository_IncrementUsageConcurrent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCouponRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.Coupon{Code: "RACE", Kind: model.CouponPercent, Value: 10, MaxUses: 3})
	require.NoError(t, err)

	// 10 concurrent redemptions against 3 remaining uses: exactly 3 succeed
	var wg sync.WaitGroup
	successes := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementUsage(ctx, "RACE")
			if err == nil && ok {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Len(t, successes, 3)

	c, err := repo.Get(ctx, "RACE")
	require.NoError(t, err)
	assert.Equal(t, 3, c.UsedCount)
}

func TestCouponRepository_DeleteAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCouponRepository(pool)
	ctx := context.Background()

	_, _ = repo.Create(ctx, &model.Coupon{Code: "A", Kind: model.CouponFlat, Value: 1, MaxUses: 1})
	_, _ = repo.Create(ctx, &model.Coupon{Code: "B", Kind: model.CouponPercent, Value: 2, MaxUses: 2})

	coupons, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, coupons, 2)

	deleted, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)

	coupons, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, coupons, 1)
	assert.Equal(t, "B", coupons[0].Code)
}

// ============================================================================
// PurchaseRepository Tests
// ============================================================================

func TestPurchaseRepository_InsertAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPurchaseRepository(pool)
	ctx := context.Background()

	coupon := "SAVE50"
	first, err := repo.Insert(ctx, &model.Purchase{
		InvoiceID:     uuid.NewString(),
		UserID:        12345,
		AmountCharged: 250,
		Benefit:       "premium gold",
		CouponCode:    &coupon,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), first.AmountCharged)
	require.NotNil(t, first.CouponCode)
	assert.Equal(t, "SAVE50", *first.CouponCode)

	_, err = repo.Insert(ctx, &model.Purchase{
		InvoiceID:     uuid.NewString(),
		UserID:        12345,
		AmountCharged: 100,
		Benefit:       "premium bronze",
	})
	require.NoError(t, err)

	purchases, err := repo.ListByUser(ctx, 12345, 10)
	require.NoError(t, err)
	require.Len(t, purchases, 2)

	// Newest first
	assert.Equal(t, "premium bronze", purchases[0].Benefit)
	assert.Nil(t, purchases[0].CouponCode)

	// Other users see nothing
	purchases, err = repo.ListByUser(ctx, 999, 10)
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

// ============================================================================
// LedgerRepository Tests
// ============================================================================

func TestLedgerRepository_CreateAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	desc := "premium gold"
	entry, err := repo.Create(ctx, 12345, -300, model.EntryTypePurchase, &desc)
	require.NoError(t, err)
	assert.Equal(t, int64(-300), entry.Amount)
	assert.Equal(t, model.EntryTypePurchase, entry.Type)
	require.NotNil(t, entry.Description)
	assert.Equal(t, "premium gold", *entry.Description)

	_, err = repo.Create(ctx, 12345, 600, model.EntryTypePayment, nil)
	require.NoError(t, err)

	entries, err := repo.ListByUser(ctx, 12345, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, int64(600), entries[0].Amount)
	assert.Nil(t, entries[0].Description)
}

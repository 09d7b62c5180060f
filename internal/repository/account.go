// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"discord-premium-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// AccountRepository handles coin balance persistence.
// Balances never go negative: every deduction is guarded at the SQL level
// so concurrent debits cannot both pass a stale sufficiency check.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Get retrieves an account by user ID.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) Get(ctx context.Context, userID int64) (*model.Account, error) {
	const query = `
		SELECT user_id, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`

	var acc model.Account
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&acc.UserID,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// Ensure creates the account at balance 0 if it does not exist yet.
func (r *AccountRepository) Ensure(ctx context.Context, userID int64) error {
	const query = `
		INSERT INTO accounts (user_id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

// Credit adds amount to a user's balance, creating the account at 0 first
// if it is absent. Returns the new balance.
func (r *AccountRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	const query = `
		INSERT INTO accounts (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`

	var balance int64
	if err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to credit account: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount from a user's balance. The deduction only applies
// when the balance covers it; otherwise ErrInsufficientBalance is returned
// and nothing changes. An absent account counts as balance 0 and is created.
func (r *AccountRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	const query = `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit account: %w", err)
	}

	// Either the account is missing or the balance is short.
	if err := r.Ensure(ctx, userID); err != nil {
		return 0, err
	}
	return 0, ErrInsufficientBalance
}

// RemoveUpTo subtracts up to amount from a user's balance, flooring at zero.
// Returns the new balance and how much was actually removed.
func (r *AccountRepository) RemoveUpTo(ctx context.Context, userID int64, amount int64) (int64, int64, error) {
	// The old balance is locked first so the removed amount can be reported.
	const query = `
		WITH old AS (
			SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE
		)
		UPDATE accounts
		SET balance = GREATEST(accounts.balance - $2, 0), updated_at = NOW()
		FROM old
		WHERE accounts.user_id = $1
		RETURNING accounts.balance, old.balance - accounts.balance
	`

	var balance, removed int64
	err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&balance, &removed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrAccountNotFound
		}
		return 0, 0, fmt.Errorf("failed to remove from account: %w", err)
	}
	return balance, removed, nil
}

// Transfer moves amount between two accounts atomically: the debit and the
// credit either both commit or neither does. The sender-side deduction carries
// the same balance guard as Debit. Returns both new balances.
func (r *AccountRepository) Transfer(ctx context.Context, fromID, toID int64, amount int64) (int64, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	const debitQuery = `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`

	var fromBalance int64
	if err := tx.QueryRow(ctx, debitQuery, fromID, amount).Scan(&fromBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrInsufficientBalance
		}
		return 0, 0, fmt.Errorf("failed to debit sender: %w", err)
	}

	const creditQuery = `
		INSERT INTO accounts (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`

	var toBalance int64
	if err := tx.QueryRow(ctx, creditQuery, toID, amount).Scan(&toBalance); err != nil {
		return 0, 0, fmt.Errorf("failed to credit receiver: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transfer: %w", err)
	}

	return fromBalance, toBalance, nil
}

// Top retrieves the top N accounts by balance.
func (r *AccountRepository) Top(ctx context.Context, limit int) ([]*model.Account, error) {
	const query = `
		SELECT user_id, balance, created_at, updated_at
		FROM accounts
		ORDER BY balance DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		err := rows.Scan(&acc.UserID, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

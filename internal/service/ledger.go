package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/pkg/lock"
	"discord-premium-bot/internal/repository"
)

// Ledger-related errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount: must be positive")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
	ErrNotFound          = errors.New("not found")
)

// LedgerService owns atomic coin balance mutations.
// Per-user mutations are serialized through the user lock; the store applies
// a balance guard underneath, so two concurrent debits can never both pass a
// stale sufficiency check.
type LedgerService struct {
	accounts AccountStore
	entries  EntryStore
	locks    *lock.UserLock
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(accounts AccountStore, entries EntryStore, locks *lock.UserLock) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		entries:  entries,
		locks:    locks,
	}
}

// Balance retrieves a user's current balance.
// An account that was never touched reads as 0.
func (s *LedgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	acc, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return acc.Balance, nil
}

// Credit adds amount to a user's balance, creating the account if absent.
// Returns the new balance.
func (s *LedgerService) Credit(ctx context.Context, userID int64, amount int64, entryType string, description *string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	return s.credit(ctx, userID, amount, entryType, description)
}

// credit is Credit without the user lock, for callers that already hold it.
func (s *LedgerService) credit(ctx context.Context, userID int64, amount int64, entryType string, description *string) (int64, error) {
	balance, err := s.accounts.Credit(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit: %w", err)
	}

	// History is best-effort; the balance is already committed, so a failed
	// entry is logged for operator follow-up rather than returned.
	s.record(ctx, userID, amount, entryType, description)

	return balance, nil
}

// record writes a history entry, logging instead of failing when the store
// rejects it.
func (s *LedgerService) record(ctx context.Context, userID int64, amount int64, entryType string, description *string) {
	if _, err := s.entries.Create(ctx, userID, amount, entryType, description); err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Int64("amount", amount).
			Str("type", entryType).
			Msg("Failed to record ledger entry")
	}
}

// Debit subtracts amount from a user's balance. Fails with
// ErrInsufficientFunds and no effect if the balance is short.
func (s *LedgerService) Debit(ctx context.Context, userID int64, amount int64, entryType string, description *string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	return s.debit(ctx, userID, amount, entryType, description)
}

// debit is Debit without the user lock, for callers that already hold it.
func (s *LedgerService) debit(ctx context.Context, userID int64, amount int64, entryType string, description *string) (int64, error) {
	balance, err := s.accounts.Debit(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("failed to debit: %w", err)
	}

	s.record(ctx, userID, -amount, entryType, description)

	return balance, nil
}

// Transfer moves coins from one user to another. Both sides update or neither
// does. Locks are taken in ascending user-id order to avoid deadlock between
// opposite-direction transfers.
func (s *LedgerService) Transfer(ctx context.Context, fromID, toID int64, amount int64) (int64, int64, error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if fromID == toID {
		return 0, 0, ErrSelfTransfer
	}

	s.locks.LockPair(fromID, toID)
	defer s.locks.UnlockPair(fromID, toID)

	fromBalance, toBalance, err := s.accounts.Transfer(ctx, fromID, toID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return 0, 0, ErrInsufficientFunds
		}
		return 0, 0, fmt.Errorf("failed to transfer: %w", err)
	}

	senderDesc := fmt.Sprintf("transfer to user %d", toID)
	receiverDesc := fmt.Sprintf("transfer from user %d", fromID)
	s.record(ctx, fromID, -amount, model.EntryTypeTransfer, &senderDesc)
	s.record(ctx, toID, amount, model.EntryTypeTransfer, &receiverDesc)

	return fromBalance, toBalance, nil
}

// AdminAdd credits coins on behalf of an administrator.
func (s *LedgerService) AdminAdd(ctx context.Context, userID int64, amount int64) (int64, error) {
	desc := "added by admin"
	return s.Credit(ctx, userID, amount, model.EntryTypeAdminAdd, &desc)
}

// AdminRemove removes up to amount coins, flooring the balance at zero.
// Returns the new balance.
func (s *LedgerService) AdminRemove(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	balance, removed, err := s.accounts.RemoveUpTo(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to remove coins: %w", err)
	}

	if removed > 0 {
		desc := "removed by admin"
		s.record(ctx, userID, -removed, model.EntryTypeAdminSub, &desc)
	}

	return balance, nil
}

// Leaderboard retrieves the top accounts by balance.
func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]*model.Account, error) {
	return s.accounts.Top(ctx, limit)
}

// History retrieves a user's recent balance changes.
func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error) {
	return s.entries.ListByUser(ctx, userID, limit)
}

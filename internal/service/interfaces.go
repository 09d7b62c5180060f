// Package service provides business logic implementations.
package service

import (
	"context"
	"time"

	"discord-premium-bot/internal/model"
)

// The services consume narrow store interfaces so any durable store with the
// right atomicity guarantees can back them. The pgx repositories satisfy these;
// tests use an in-process store.

// AccountStore persists coin balances.
// Debit and Transfer must be atomic: a deduction only applies when the balance
// covers it, with no partial effect otherwise.
type AccountStore interface {
	Get(ctx context.Context, userID int64) (*model.Account, error)
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)
	Debit(ctx context.Context, userID int64, amount int64) (int64, error)
	RemoveUpTo(ctx context.Context, userID int64, amount int64) (newBalance, removed int64, err error)
	Transfer(ctx context.Context, fromID, toID int64, amount int64) (fromBalance, toBalance int64, err error)
	Top(ctx context.Context, limit int) ([]*model.Account, error)
}

// EntitlementStore persists premium entitlements, one row per user.
type EntitlementStore interface {
	Get(ctx context.Context, userID int64) (*model.Entitlement, error)
	Upsert(ctx context.Context, userID int64, tier model.Tier, expiresAt time.Time) (*model.Entitlement, error)
	ListExpired(ctx context.Context, now time.Time) ([]*model.Entitlement, error)
	DeleteIfExpired(ctx context.Context, userID int64, now time.Time) (bool, error)
	Delete(ctx context.Context, userID int64) (bool, error)
}

// CouponStore persists discount codes. IncrementUsage must enforce the usage
// cap atomically with respect to concurrent redemptions.
type CouponStore interface {
	Create(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error)
	Get(ctx context.Context, code string) (*model.Coupon, error)
	IncrementUsage(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]*model.Coupon, error)
}

// PurchaseStore persists the append-only purchase audit trail.
type PurchaseStore interface {
	Insert(ctx context.Context, p *model.Purchase) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Purchase, error)
}

// EntryStore persists balance change history.
type EntryStore interface {
	Create(ctx context.Context, userID int64, amount int64, entryType string, description *string) (*model.LedgerEntry, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error)
}

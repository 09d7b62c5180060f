// Package model defines the data models for the Discord premium bot.
package model

import "time"

// Tier is a named premium level granting a time-boxed benefit.
type Tier string

// Premium tiers, ordered lowest to highest.
const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Valid reports whether t is a known premium tier.
func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold:
		return true
	}
	return false
}

// Account represents a user's coin balance.
// Accounts are created lazily on first credit or debit and never go negative.
type Account struct {
	UserID    int64     `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Entitlement represents a user's active premium tier.
// At most one row exists per user; the row is deleted on expiry or revoke.
type Entitlement struct {
	UserID    int64     `db:"user_id"`
	Tier      Tier      `db:"tier"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CouponKind distinguishes flat (fixed amount off) from percent discounts.
type CouponKind string

const (
	CouponFlat    CouponKind = "flat"
	CouponPercent CouponKind = "percent"
)

// Valid reports whether k is a known coupon kind.
func (k CouponKind) Valid() bool {
	return k == CouponFlat || k == CouponPercent
}

// Coupon represents a limited-use discount code.
// Codes are stored upper-cased; lookups are case-insensitive.
type Coupon struct {
	Code      string     `db:"code"`
	Kind      CouponKind `db:"kind"`
	Value     int64      `db:"value"`
	MaxUses   int        `db:"max_uses"`
	UsedCount int        `db:"used_count"`
	ExpiresAt *time.Time `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Purchase is a write-once audit record of a completed purchase.
type Purchase struct {
	InvoiceID     string    `db:"invoice_id"`
	UserID        int64     `db:"user_id"`
	AmountCharged int64     `db:"amount_charged"`
	Benefit       string    `db:"benefit"`
	CouponCode    *string   `db:"coupon_code"`
	CreatedAt     time.Time `db:"created_at"`
}

// LedgerEntry represents a single balance change record.
type LedgerEntry struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Ledger entry types for categorizing balance changes.
const (
	EntryTypeCredit   = "credit"    // Generic credit (coupon rewards, corrections)
	EntryTypeTransfer = "transfer"  // User-to-user transfer
	EntryTypeAdminAdd = "admin_add" // Admin added coins
	EntryTypeAdminSub = "admin_sub" // Admin removed coins
	EntryTypePurchase = "purchase"  // Premium tier purchase
	EntryTypePayment  = "payment"   // Confirmed external payment
	EntryTypeRefund   = "refund"    // Compensating credit after a failed purchase step
)

// Package notify delivers tier benefits (Discord roles) for entitlement changes.
// Delivery is fire-and-forget with respect to ledger and entitlement state:
// a failure is reported so it can be logged, but callers never roll back.
package notify

import (
	"context"
	"errors"

	"discord-premium-bot/internal/model"
)

// ErrBenefitDelivery marks a benefit grant or revoke that could not be applied.
// The entitlement change it belongs to has already committed; the error exists
// for operator follow-up, not for rollback.
var ErrBenefitDelivery = errors.New("benefit delivery failed")

// Notifier applies the externally visible effect of holding a tier.
type Notifier interface {
	GrantBenefit(ctx context.Context, userID int64, tier model.Tier) error
	RevokeBenefit(ctx context.Context, userID int64, tier model.Tier) error
}

// Nop is a Notifier that does nothing. Useful when no guild is configured.
type Nop struct{}

// GrantBenefit implements Notifier.
func (Nop) GrantBenefit(ctx context.Context, userID int64, tier model.Tier) error { return nil }

// RevokeBenefit implements Notifier.
func (Nop) RevokeBenefit(ctx context.Context, userID int64, tier model.Tier) error { return nil }

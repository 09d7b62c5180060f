package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/pkg/lock"
	"discord-premium-bot/internal/premium"
)

// ErrInvalidPayment is returned when a payment confirmation carries a
// non-positive amount.
var ErrInvalidPayment = errors.New("invalid payment amount")

// ShopService orchestrates premium purchases: coupon validation, the coin
// debit, the entitlement grant and the invoice record. Validation failures
// happen before any write; the only compensating action is a refund credit
// when a coupon is exhausted between validate and commit.
type ShopService struct {
	catalog      *premium.Catalog
	ledger       *LedgerService
	entitlements *EntitlementService
	coupons      *CouponService
	purchases    PurchaseStore
	locks        *lock.UserLock

	rupeeRate    int64
	coinsPerRate int64
}

// NewShopService creates a new ShopService instance.
func NewShopService(
	catalog *premium.Catalog,
	ledger *LedgerService,
	entitlements *EntitlementService,
	coupons *CouponService,
	purchases PurchaseStore,
	locks *lock.UserLock,
	rupeeRate, coinsPerRate int64,
) *ShopService {
	return &ShopService{
		catalog:      catalog,
		ledger:       ledger,
		entitlements: entitlements,
		coupons:      coupons,
		purchases:    purchases,
		locks:        locks,
		rupeeRate:    rupeeRate,
		coinsPerRate: coinsPerRate,
	}
}

// Buy purchases a premium tier with coins, applying an optional coupon code.
// The flow is: validate coupon, debit the discounted price, grant or extend
// the entitlement, burn the coupon use, record the invoice. The coupon use is
// burned only after the debit succeeded; if the cap was exhausted in between,
// the debit is refunded and the purchase fails with ErrCouponExhausted.
func (s *ShopService) Buy(ctx context.Context, userID int64, tier model.Tier, couponCode string) (*model.Purchase, error) {
	info, ok := s.catalog.Get(tier)
	if !ok {
		return nil, ErrInvalidTier
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	var discount int64
	if couponCode != "" {
		var err error
		discount, err = s.coupons.Validate(ctx, couponCode, info.Price)
		if err != nil {
			return nil, err
		}
	}

	charge := info.Price - discount
	if charge > 0 {
		desc := fmt.Sprintf("premium %s", tier)
		if _, err := s.ledger.debit(ctx, userID, charge, model.EntryTypePurchase, &desc); err != nil {
			return nil, err
		}
	}

	if couponCode != "" {
		if err := s.coupons.Commit(ctx, couponCode); err != nil {
			// The cap was used up between validate and commit. Undo the
			// debit so the caller sees one clean failure, not a partial
			// purchase.
			if charge > 0 {
				desc := fmt.Sprintf("refund premium %s", tier)
				if _, rerr := s.ledger.credit(ctx, userID, charge, model.EntryTypeRefund, &desc); rerr != nil {
					log.Error().Err(rerr).
						Int64("user_id", userID).
						Int64("amount", charge).
						Msg("Failed to refund after coupon commit failure")
				}
			}
			return nil, err
		}
	}

	expiresAt, err := s.entitlements.grantOrExtend(ctx, userID, tier, info.Duration)
	if err != nil {
		return nil, err
	}

	purchase := &model.Purchase{
		InvoiceID:     uuid.NewString(),
		UserID:        userID,
		AmountCharged: charge,
		Benefit:       string(tier),
	}
	if couponCode != "" {
		purchase.CouponCode = &couponCode
	}

	out, err := s.purchases.Insert(ctx, purchase)
	if err != nil {
		// The entitlement is live and the coins are spent; a missing audit
		// row is an operator problem, not a reason to unwind the purchase.
		log.Error().Err(err).
			Int64("user_id", userID).
			Str("tier", string(tier)).
			Msg("Failed to record purchase invoice")
		purchase.CreatedAt = time.Now()
		return purchase, nil
	}

	log.Info().
		Int64("user_id", userID).
		Str("tier", string(tier)).
		Int64("charged", charge).
		Time("expires_at", expiresAt).
		Str("invoice_id", out.InvoiceID).
		Msg("Premium purchased")

	return out, nil
}

// CoinsFor converts a confirmed rupee payment to coins at the configured rate.
func (s *ShopService) CoinsFor(rupees int64) int64 {
	if s.rupeeRate <= 0 {
		return 0
	}
	return rupees / s.rupeeRate * s.coinsPerRate
}

// ConfirmPayment credits coins for a manually confirmed external payment and
// records an invoice. Returns the invoice and the coins credited.
func (s *ShopService) ConfirmPayment(ctx context.Context, userID int64, rupees int64) (*model.Purchase, int64, error) {
	if rupees <= 0 {
		return nil, 0, ErrInvalidPayment
	}

	coins := s.CoinsFor(rupees)
	if coins <= 0 {
		return nil, 0, ErrInvalidPayment
	}

	desc := fmt.Sprintf("payment of %d rupees", rupees)
	if _, err := s.ledger.Credit(ctx, userID, coins, model.EntryTypePayment, &desc); err != nil {
		return nil, 0, err
	}

	purchase := &model.Purchase{
		InvoiceID:     uuid.NewString(),
		UserID:        userID,
		AmountCharged: rupees,
		Benefit:       fmt.Sprintf("%d coins", coins),
	}

	out, err := s.purchases.Insert(ctx, purchase)
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Int64("rupees", rupees).
			Msg("Failed to record payment invoice")
		purchase.CreatedAt = time.Now()
		return purchase, coins, nil
	}

	return out, coins, nil
}

// History retrieves a user's purchase records, newest first.
func (s *ShopService) History(ctx context.Context, userID int64, limit int) ([]*model.Purchase, error) {
	return s.purchases.ListByUser(ctx, userID, limit)
}

// Catalog returns the tier catalog for display.
func (s *ShopService) Catalog() []premium.TierInfo {
	return s.catalog.All()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/repository"
)

// Coupon-related errors.
var (
	ErrInvalidCoupon   = errors.New("invalid coupon code")
	ErrCouponExpired   = errors.New("coupon expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	ErrCouponExists    = errors.New("coupon code already exists")
)

// CouponService validates and applies limited-use discount codes.
// Validation never mutates; Commit burns one use and is guarded by the store
// so the cap holds under concurrent redemptions.
type CouponService struct {
	store CouponStore
	now   func() time.Time
}

// NewCouponService creates a new CouponService instance.
func NewCouponService(store CouponStore) *CouponService {
	return &CouponService{
		store: store,
		now:   time.Now,
	}
}

// Validate checks a code against a base price and returns the discount it
// grants. Checks run in order: existence, expiry, usage cap. The discount is
// clamped so the final charge never drops below zero.
func (s *CouponService) Validate(ctx context.Context, code string, basePrice int64) (int64, error) {
	coupon, err := s.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return 0, ErrInvalidCoupon
		}
		return 0, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(s.now()) {
		return 0, ErrCouponExpired
	}
	if coupon.UsedCount >= coupon.MaxUses {
		return 0, ErrCouponExhausted
	}

	return Discount(coupon.Kind, coupon.Value, basePrice), nil
}

// Discount computes the discount a coupon grants on a base price.
// Percent discounts floor the fractional part; the result never exceeds the
// base price, so a charge is never negative.
func Discount(kind model.CouponKind, value, basePrice int64) int64 {
	var discount int64
	switch kind {
	case model.CouponPercent:
		discount = basePrice * value / 100
	default:
		discount = value
	}
	if discount > basePrice {
		discount = basePrice
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Commit burns one use of a coupon. It must only be called after the
// associated purchase's debit has succeeded. Returns ErrCouponExhausted if
// concurrent redemptions used up the cap since validation.
func (s *CouponService) Commit(ctx context.Context, code string) error {
	ok, err := s.store.IncrementUsage(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to commit coupon use: %w", err)
	}
	if !ok {
		return ErrCouponExhausted
	}
	return nil
}

// Create adds a new coupon. Codes are upper-cased; a zero validFor means the
// coupon never expires. Percent values above 100 are accepted: the discount
// clamp floors the charge at zero instead.
func (s *CouponService) Create(ctx context.Context, code string, kind model.CouponKind, value int64, maxUses int, validFor time.Duration) (*model.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidCoupon, kind)
	}
	if value <= 0 || maxUses <= 0 {
		return nil, fmt.Errorf("%w: value and max uses must be positive", ErrInvalidCoupon)
	}

	var expiresAt *time.Time
	if validFor > 0 {
		t := s.now().Add(validFor)
		expiresAt = &t
	}

	coupon, err := s.store.Create(ctx, &model.Coupon{
		Code:      code,
		Kind:      kind,
		Value:     value,
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCouponExists) {
			return nil, ErrCouponExists
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return coupon, nil
}

// Delete removes a coupon by code.
func (s *CouponService) Delete(ctx context.Context, code string) error {
	deleted, err := s.store.Delete(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if !deleted {
		return ErrInvalidCoupon
	}
	return nil
}

// List retrieves all coupons for admin review.
func (s *CouponService) List(ctx context.Context) ([]*model.Coupon, error) {
	return s.store.List(ctx)
}

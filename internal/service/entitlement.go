package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/notify"
	"discord-premium-bot/internal/pkg/lock"
	"discord-premium-bot/internal/repository"
)

// Entitlement-related errors.
var (
	ErrInvalidTier     = errors.New("invalid tier")
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	ErrNoEntitlement   = errors.New("no active entitlement")
)

// PremiumStatus is the caller-facing view of an active entitlement.
type PremiumStatus struct {
	Tier      model.Tier
	ExpiresAt time.Time
	Remaining time.Duration
}

// EntitlementService owns the premium tier state machine: grant, renew,
// query, expire and revoke. A user is either unentitled or holds exactly one
// active tier; renewals extend from whichever is later, now or the current
// expiry, so already-paid time is never lost.
type EntitlementService struct {
	store    EntitlementStore
	notifier notify.Notifier
	locks    *lock.UserLock
	now      func() time.Time
}

// NewEntitlementService creates a new EntitlementService instance.
func NewEntitlementService(store EntitlementStore, notifier notify.Notifier, locks *lock.UserLock) *EntitlementService {
	return &EntitlementService{
		store:    store,
		notifier: notifier,
		locks:    locks,
		now:      time.Now,
	}
}

// GrantOrExtend grants a tier or extends an active entitlement by duration.
// The new expiry is computed from max(now, current expiry). Switching tiers
// keeps the remaining time and applies the newly purchased tier.
// The benefit role is delivered after the state commits; a delivery failure
// is logged and does not roll the grant back.
func (s *EntitlementService) GrantOrExtend(ctx context.Context, userID int64, tier model.Tier, duration time.Duration) (time.Time, error) {
	if !tier.Valid() {
		return time.Time{}, ErrInvalidTier
	}
	if duration <= 0 {
		return time.Time{}, ErrInvalidDuration
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	return s.grantOrExtend(ctx, userID, tier, duration)
}

// grantOrExtend is GrantOrExtend without the user lock, for callers that
// already hold it.
func (s *EntitlementService) grantOrExtend(ctx context.Context, userID int64, tier model.Tier, duration time.Duration) (time.Time, error) {
	base := s.now()
	current, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrEntitlementNotFound) {
		return time.Time{}, fmt.Errorf("failed to get entitlement: %w", err)
	}
	if current != nil && current.ExpiresAt.After(base) {
		base = current.ExpiresAt
	}

	expiresAt := base.Add(duration)
	if _, err := s.store.Upsert(ctx, userID, tier, expiresAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to store entitlement: %w", err)
	}

	if err := s.notifier.GrantBenefit(ctx, userID, tier); err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Str("tier", string(tier)).
			Msg("Benefit delivery failed after grant")
	}

	return expiresAt, nil
}

// Status retrieves a user's premium status.
// Returns ErrNoEntitlement if the user holds none.
func (s *EntitlementService) Status(ctx context.Context, userID int64) (*PremiumStatus, error) {
	ent, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrEntitlementNotFound) {
			return nil, ErrNoEntitlement
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}

	remaining := ent.ExpiresAt.Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}

	return &PremiumStatus{
		Tier:      ent.Tier,
		ExpiresAt: ent.ExpiresAt,
		Remaining: remaining,
	}, nil
}

// Revoke removes a user's entitlement regardless of its natural expiry and
// revokes the benefit role. Returns ErrNoEntitlement if there is nothing to
// revoke.
func (s *EntitlementService) Revoke(ctx context.Context, userID int64) error {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	ent, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrEntitlementNotFound) {
			return ErrNoEntitlement
		}
		return fmt.Errorf("failed to get entitlement: %w", err)
	}

	deleted, err := s.store.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entitlement: %w", err)
	}
	if !deleted {
		return ErrNoEntitlement
	}

	if err := s.notifier.RevokeBenefit(ctx, userID, ent.Tier); err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Str("tier", string(ent.Tier)).
			Msg("Benefit delivery failed after revoke")
	}

	return nil
}

// Sweep finds entitlements expired at now, deletes them and revokes their
// benefit roles. The delete re-checks the expiry at write time, so a renewal
// that lands between the scan and the delete keeps its entitlement. Running
// the sweep twice in a row is a no-op the second time.
func (s *EntitlementService) Sweep(ctx context.Context, now time.Time) ([]int64, error) {
	expired, err := s.store.ListExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired entitlements: %w", err)
	}

	var removed []int64
	for _, ent := range expired {
		s.locks.Lock(ent.UserID)
		deleted, err := s.store.DeleteIfExpired(ctx, ent.UserID, now)
		s.locks.Unlock(ent.UserID)
		if err != nil {
			log.Error().Err(err).
				Int64("user_id", ent.UserID).
				Msg("Failed to delete expired entitlement")
			continue
		}
		if !deleted {
			// Renewed since the scan, or already revoked. Nothing to do.
			continue
		}

		removed = append(removed, ent.UserID)

		if err := s.notifier.RevokeBenefit(ctx, ent.UserID, ent.Tier); err != nil {
			log.Error().Err(err).
				Int64("user_id", ent.UserID).
				Str("tier", string(ent.Tier)).
				Msg("Benefit delivery failed after expiry")
		}
	}

	return removed, nil
}

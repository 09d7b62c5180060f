// Package sweeper runs the periodic entitlement expiry reconciliation.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"discord-premium-bot/internal/service"
)

// Sweeper periodically expires entitlements whose time has run out.
// It is the only background activity in the bot: a fixed wall-clock ticker,
// independent of command traffic, stopped by cancelling its context.
type Sweeper struct {
	entitlements *service.EntitlementService
	interval     time.Duration
}

// New creates a Sweeper with the given tick interval.
func New(entitlements *service.EntitlementService, interval time.Duration) *Sweeper {
	return &Sweeper{
		entitlements: entitlements,
		interval:     interval,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("Expiry sweeper started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.entitlements.Sweep(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Entitlement sweep failed")
		return
	}
	if len(expired) > 0 {
		log.Info().Int("expired", len(expired)).Msg("Expired entitlements revoked")
	}
}

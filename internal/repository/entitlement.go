package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"discord-premium-bot/internal/model"
)

// ErrEntitlementNotFound is returned when a user holds no premium entitlement.
var ErrEntitlementNotFound = errors.New("entitlement not found")

// EntitlementRepository handles premium entitlement persistence.
// One row per user; the row disappears on expiry or revoke, so presence of a
// row is the source of truth for "has premium".
type EntitlementRepository struct {
	pool *pgxpool.Pool
}

// NewEntitlementRepository creates a new EntitlementRepository instance.
func NewEntitlementRepository(pool *pgxpool.Pool) *EntitlementRepository {
	return &EntitlementRepository{pool: pool}
}

// Get retrieves a user's entitlement.
// Returns ErrEntitlementNotFound if the user holds none.
func (r *EntitlementRepository) Get(ctx context.Context, userID int64) (*model.Entitlement, error) {
	const query = `
		SELECT user_id, tier, expires_at, created_at, updated_at
		FROM entitlements
		WHERE user_id = $1
	`

	var ent model.Entitlement
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&ent.UserID,
		&ent.Tier,
		&ent.ExpiresAt,
		&ent.CreatedAt,
		&ent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}

	return &ent, nil
}

// Upsert creates or replaces a user's entitlement with the given tier and expiry.
func (r *EntitlementRepository) Upsert(ctx context.Context, userID int64, tier model.Tier, expiresAt time.Time) (*model.Entitlement, error) {
	const query = `
		INSERT INTO entitlements (user_id, tier, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET tier = EXCLUDED.tier, expires_at = EXCLUDED.expires_at, updated_at = NOW()
		RETURNING user_id, tier, expires_at, created_at, updated_at
	`

	var ent model.Entitlement
	err := r.pool.QueryRow(ctx, query, userID, tier, expiresAt).Scan(
		&ent.UserID,
		&ent.Tier,
		&ent.ExpiresAt,
		&ent.CreatedAt,
		&ent.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entitlement: %w", err)
	}

	return &ent, nil
}

// ListExpired retrieves all entitlements whose expiry is at or before now.
func (r *EntitlementRepository) ListExpired(ctx context.Context, now time.Time) ([]*model.Entitlement, error) {
	const query = `
		SELECT user_id, tier, expires_at, created_at, updated_at
		FROM entitlements
		WHERE expires_at <= $1
		ORDER BY expires_at
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired entitlements: %w", err)
	}
	defer rows.Close()

	var ents []*model.Entitlement
	for rows.Next() {
		var ent model.Entitlement
		err := rows.Scan(&ent.UserID, &ent.Tier, &ent.ExpiresAt, &ent.CreatedAt, &ent.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entitlement: %w", err)
		}
		ents = append(ents, &ent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entitlements: %w", err)
	}

	return ents, nil
}

// DeleteIfExpired deletes a user's entitlement only if it is still expired
// at delete time. A renewal that landed after the expiry scan keeps the row
// alive; the sweep re-checks here instead of trusting its scan result.
// Returns whether a row was deleted.
func (r *EntitlementRepository) DeleteIfExpired(ctx context.Context, userID int64, now time.Time) (bool, error) {
	const query = `
		DELETE FROM entitlements
		WHERE user_id = $1 AND expires_at <= $2
	`

	result, err := r.pool.Exec(ctx, query, userID, now)
	if err != nil {
		return false, fmt.Errorf("failed to delete expired entitlement: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes a user's entitlement unconditionally (admin revoke).
// Returns whether a row was deleted.
func (r *EntitlementRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	const query = `DELETE FROM entitlements WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete entitlement: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

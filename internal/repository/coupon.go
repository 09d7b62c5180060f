package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"discord-premium-bot/internal/model"
)

// Coupon repository errors.
var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponExists   = errors.New("coupon already exists")
)

// CouponRepository handles discount code persistence.
// Codes are stored upper-cased so lookups are case-insensitive, and the usage
// cap is enforced in the increment statement itself.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository creates a new CouponRepository instance.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a new coupon. The code is upper-cased before storage.
// Returns ErrCouponExists if the code is already taken.
func (r *CouponRepository) Create(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	const query = `
		INSERT INTO coupons (code, kind, value, max_uses, used_count, expires_at, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, NOW())
		RETURNING code, kind, value, max_uses, used_count, expires_at, created_at
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query,
		strings.ToUpper(coupon.Code),
		coupon.Kind,
		coupon.Value,
		coupon.MaxUses,
		coupon.ExpiresAt,
	).Scan(&c.Code, &c.Kind, &c.Value, &c.MaxUses, &c.UsedCount, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrCouponExists
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return &c, nil
}

// Get retrieves a coupon by code, case-insensitively.
// Returns ErrCouponNotFound if no such code exists.
func (r *CouponRepository) Get(ctx context.Context, code string) (*model.Coupon, error) {
	const query = `
		SELECT code, kind, value, max_uses, used_count, expires_at, created_at
		FROM coupons
		WHERE code = UPPER($1)
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&c.Code, &c.Kind, &c.Value, &c.MaxUses, &c.UsedCount, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return &c, nil
}

// IncrementUsage increments a coupon's used count by exactly 1, but only while
// the count is below the cap. Two concurrent redemptions of a coupon with one
// remaining use therefore cannot both succeed. Returns whether the increment
// was applied; false means the coupon is absent or exhausted.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	const query = `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE code = UPPER($1) AND used_count < max_uses
	`

	result, err := r.pool.Exec(ctx, query, code)
	if err != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes a coupon by code. Returns whether a row was deleted.
func (r *CouponRepository) Delete(ctx context.Context, code string) (bool, error) {
	const query = `DELETE FROM coupons WHERE code = UPPER($1)`

	result, err := r.pool.Exec(ctx, query, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete coupon: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// List retrieves all coupons, newest first. Used by admin listings.
func (r *CouponRepository) List(ctx context.Context) ([]*model.Coupon, error) {
	const query = `
		SELECT code, kind, value, max_uses, used_count, expires_at, created_at
		FROM coupons
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*model.Coupon
	for rows.Next() {
		var c model.Coupon
		err := rows.Scan(&c.Code, &c.Kind, &c.Value, &c.MaxUses, &c.UsedCount, &c.ExpiresAt, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

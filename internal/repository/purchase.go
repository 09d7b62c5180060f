package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"discord-premium-bot/internal/model"
)

// PurchaseRepository handles the append-only purchase audit trail.
// Rows are inserted once and never mutated.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository creates a new PurchaseRepository instance.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Insert records a completed purchase.
func (r *PurchaseRepository) Insert(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	const query = `
		INSERT INTO purchases (invoice_id, user_id, amount_charged, benefit, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING invoice_id, user_id, amount_charged, benefit, coupon_code, created_at
	`

	var out model.Purchase
	err := r.pool.QueryRow(ctx, query,
		p.InvoiceID, p.UserID, p.AmountCharged, p.Benefit, p.CouponCode,
	).Scan(&out.InvoiceID, &out.UserID, &out.AmountCharged, &out.Benefit, &out.CouponCode, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	return &out, nil
}

// ListByUser retrieves a user's purchases, newest first.
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Purchase, error) {
	const query = `
		SELECT invoice_id, user_id, amount_charged, benefit, coupon_code, created_at
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*model.Purchase
	for rows.Next() {
		var p model.Purchase
		err := rows.Scan(&p.InvoiceID, &p.UserID, &p.AmountCharged, &p.Benefit, &p.CouponCode, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return purchases, nil
}

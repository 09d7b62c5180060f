// Package service provides business logic implementations.
// In-memory store implementations backing the service tests. They honor the
// same atomicity contracts as the pgx repositories: guarded debits, guarded
// coupon increments, all-or-nothing transfers.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/repository"
)

// memAccountStore is an in-memory AccountStore.
type memAccountStore struct {
	mu       sync.Mutex
	balances map[int64]int64
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{balances: make(map[int64]int64)}
}

func (s *memAccountStore) Get(_ context.Context, userID int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &model.Account{UserID: userID, Balance: balance}, nil
}

func (s *memAccountStore) Credit(_ context.Context, userID int64, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return s.balances[userID], nil
}

func (s *memAccountStore) Debit(_ context.Context, userID int64, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := s.balances[userID]
	if balance < amount {
		if _, ok := s.balances[userID]; !ok {
			s.balances[userID] = 0
		}
		return 0, repository.ErrInsufficientBalance
	}
	s.balances[userID] = balance - amount
	return s.balances[userID], nil
}

func (s *memAccountStore) RemoveUpTo(_ context.Context, userID int64, amount int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return 0, 0, repository.ErrAccountNotFound
	}
	removed := amount
	if removed > balance {
		removed = balance
	}
	s.balances[userID] = balance - removed
	return s.balances[userID], removed, nil
}

func (s *memAccountStore) Transfer(_ context.Context, fromID, toID int64, amount int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[fromID] < amount {
		return 0, 0, repository.ErrInsufficientBalance
	}
	s.balances[fromID] -= amount
	s.balances[toID] += amount
	return s.balances[fromID], s.balances[toID], nil
}

func (s *memAccountStore) Top(_ context.Context, limit int) ([]*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]*model.Account, 0, len(s.balances))
	for id, balance := range s.balances {
		accounts = append(accounts, &model.Account{UserID: id, Balance: balance})
	}
	// Selection sort is fine at test sizes.
	for i := 0; i < len(accounts); i++ {
		for j := i + 1; j < len(accounts); j++ {
			if accounts[j].Balance > accounts[i].Balance {
				accounts[i], accounts[j] = accounts[j], accounts[i]
			}
		}
	}
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// total sums all balances, for conservation checks.
func (s *memAccountStore) total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, balance := range s.balances {
		sum += balance
	}
	return sum
}

// memEntitlementStore is an in-memory EntitlementStore.
type memEntitlementStore struct {
	mu   sync.Mutex
	ents map[int64]*model.Entitlement
}

func newMemEntitlementStore() *memEntitlementStore {
	return &memEntitlementStore{ents: make(map[int64]*model.Entitlement)}
}

func (s *memEntitlementStore) Get(_ context.Context, userID int64) (*model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.ents[userID]
	if !ok {
		return nil, repository.ErrEntitlementNotFound
	}
	cp := *ent
	return &cp, nil
}

func (s *memEntitlementStore) Upsert(_ context.Context, userID int64, tier model.Tier, expiresAt time.Time) (*model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent := &model.Entitlement{UserID: userID, Tier: tier, ExpiresAt: expiresAt}
	s.ents[userID] = ent
	cp := *ent
	return &cp, nil
}

func (s *memEntitlementStore) ListExpired(_ context.Context, now time.Time) ([]*model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Entitlement
	for _, ent := range s.ents {
		if !ent.ExpiresAt.After(now) {
			cp := *ent
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memEntitlementStore) DeleteIfExpired(_ context.Context, userID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.ents[userID]
	if !ok || ent.ExpiresAt.After(now) {
		return false, nil
	}
	delete(s.ents, userID)
	return true, nil
}

func (s *memEntitlementStore) Delete(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ents[userID]; !ok {
		return false, nil
	}
	delete(s.ents, userID)
	return true, nil
}

// memCouponStore is an in-memory CouponStore.
type memCouponStore struct {
	mu      sync.Mutex
	coupons map[string]*model.Coupon
}

func newMemCouponStore() *memCouponStore {
	return &memCouponStore{coupons: make(map[string]*model.Coupon)}
}

func (s *memCouponStore) Create(_ context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := strings.ToUpper(coupon.Code)
	if _, ok := s.coupons[code]; ok {
		return nil, repository.ErrCouponExists
	}
	cp := *coupon
	cp.Code = code
	cp.UsedCount = 0
	s.coupons[code] = &cp
	out := cp
	return &out, nil
}

func (s *memCouponStore) Get(_ context.Context, code string) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, repository.ErrCouponNotFound
	}
	cp := *coupon
	return &cp, nil
}

func (s *memCouponStore) IncrementUsage(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.coupons[strings.ToUpper(code)]
	if !ok || coupon.UsedCount >= coupon.MaxUses {
		return false, nil
	}
	coupon.UsedCount++
	return true, nil
}

func (s *memCouponStore) Delete(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upper := strings.ToUpper(code)
	if _, ok := s.coupons[upper]; !ok {
		return false, nil
	}
	delete(s.coupons, upper)
	return true, nil
}

func (s *memCouponStore) List(_ context.Context) ([]*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Coupon, 0, len(s.coupons))
	for _, coupon := range s.coupons {
		cp := *coupon
		out = append(out, &cp)
	}
	return out, nil
}

// memPurchaseStore is an in-memory PurchaseStore.
type memPurchaseStore struct {
	mu        sync.Mutex
	purchases []*model.Purchase
}

func newMemPurchaseStore() *memPurchaseStore {
	return &memPurchaseStore{}
}

func (s *memPurchaseStore) Insert(_ context.Context, p *model.Purchase) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.CreatedAt = time.Now()
	s.purchases = append(s.purchases, &cp)
	out := cp
	return &out, nil
}

func (s *memPurchaseStore) ListByUser(_ context.Context, userID int64, limit int) ([]*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Purchase
	// Newest first
	for i := len(s.purchases) - 1; i >= 0 && len(out) < limit; i-- {
		if s.purchases[i].UserID == userID {
			cp := *s.purchases[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memEntryStore is an in-memory EntryStore.
type memEntryStore struct {
	mu      sync.Mutex
	entries []*model.LedgerEntry
	nextID  int64
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{}
}

func (s *memEntryStore) Create(_ context.Context, userID int64, amount int64, entryType string, description *string) (*model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry := &model.LedgerEntry{
		ID:          s.nextID,
		UserID:      userID,
		Amount:      amount,
		Type:        entryType,
		Description: description,
		CreatedAt:   time.Now(),
	}
	s.entries = append(s.entries, entry)
	cp := *entry
	return &cp, nil
}

func (s *memEntryStore) ListByUser(_ context.Context, userID int64, limit int) ([]*model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.LedgerEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].UserID == userID {
			cp := *s.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// recordingNotifier records benefit deliveries and optionally fails them.
type recordingNotifier struct {
	mu      sync.Mutex
	grants  []int64
	revokes []int64
	fail    error
}

func (n *recordingNotifier) GrantBenefit(_ context.Context, userID int64, _ model.Tier) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.grants = append(n.grants, userID)
	return nil
}

func (n *recordingNotifier) RevokeBenefit(_ context.Context, userID int64, _ model.Tier) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.revokes = append(n.revokes, userID)
	return nil
}

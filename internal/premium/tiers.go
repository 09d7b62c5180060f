// Package premium defines the tier catalog: the price, duration and Discord
// role attached to each purchasable premium tier. Variations between tiers are
// configuration data, not separate code paths.
package premium

import (
	"fmt"
	"time"

	"discord-premium-bot/internal/config"
	"discord-premium-bot/internal/model"
)

// TierInfo holds the purchasable attributes of one tier.
type TierInfo struct {
	Tier     model.Tier
	Price    int64
	Duration time.Duration
	RoleID   string
}

// Catalog maps tiers to their purchase attributes.
type Catalog struct {
	tiers map[model.Tier]TierInfo
}

// NewCatalog builds a catalog from configuration.
// Every configured tier name must be a known tier with a positive price and duration.
func NewCatalog(cfg map[string]config.TierConfig) (*Catalog, error) {
	tiers := make(map[model.Tier]TierInfo, len(cfg))
	for name, tc := range cfg {
		tier := model.Tier(name)
		if !tier.Valid() {
			return nil, fmt.Errorf("unknown tier %q in configuration", name)
		}
		if tc.Price <= 0 {
			return nil, fmt.Errorf("tier %q: price must be positive, got %d", name, tc.Price)
		}
		if tc.Days <= 0 {
			return nil, fmt.Errorf("tier %q: days must be positive, got %d", name, tc.Days)
		}
		tiers[tier] = TierInfo{
			Tier:     tier,
			Price:    tc.Price,
			Duration: time.Duration(tc.Days) * 24 * time.Hour,
			RoleID:   tc.RoleID,
		}
	}
	return &Catalog{tiers: tiers}, nil
}

// Get returns the catalog entry for a tier.
func (c *Catalog) Get(tier model.Tier) (TierInfo, bool) {
	info, ok := c.tiers[tier]
	return info, ok
}

// RoleID returns the Discord role attached to a tier, if any.
func (c *Catalog) RoleID(tier model.Tier) string {
	return c.tiers[tier].RoleID
}

// All returns the catalog entries in display order.
func (c *Catalog) All() []TierInfo {
	order := []model.Tier{model.TierBronze, model.TierSilver, model.TierGold}
	infos := make([]TierInfo, 0, len(order))
	for _, tier := range order {
		if info, ok := c.tiers[tier]; ok {
			infos = append(infos, info)
		}
	}
	return infos
}

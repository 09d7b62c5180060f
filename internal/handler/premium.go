package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/service"
)

// PremiumHandler handles premium tier commands.
type PremiumHandler struct {
	shop         *service.ShopService
	entitlements *service.EntitlementService
}

// NewPremiumHandler creates a new PremiumHandler.
func NewPremiumHandler(shop *service.ShopService, entitlements *service.EntitlementService) *PremiumHandler {
	return &PremiumHandler{
		shop:         shop,
		entitlements: entitlements,
	}
}

// HandleBuyPremium handles /buy-premium tier [coupon].
func (h *PremiumHandler) HandleBuyPremium(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	userID, ok := SenderID(i)
	if !ok {
		return
	}

	opts := options(i)
	rawTier, okTier := optString(opts, "tier")
	if !okTier {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}
	tier := model.Tier(strings.ToLower(rawTier))

	coupon, _ := optString(opts, "coupon")

	purchase, err := h.shop.Buy(ctx, userID, tier, coupon)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTier):
			respondEphemeral(s, i, "❌ Tier must be bronze/silver/gold")
		case errors.Is(err, service.ErrInsufficientFunds):
			respondEphemeral(s, i, "❌ Not enough coins — use /balance to check")
		case errors.Is(err, service.ErrInvalidCoupon):
			respondEphemeral(s, i, "❌ Invalid coupon")
		case errors.Is(err, service.ErrCouponExpired):
			respondEphemeral(s, i, "❌ Coupon expired")
		case errors.Is(err, service.ErrCouponExhausted):
			respondEphemeral(s, i, "❌ Coupon limit reached")
		default:
			respondEphemeral(s, i, "❌ Purchase failed, try again later")
		}
		return
	}

	respond(s, i, fmt.Sprintf(
		"✅ %s bought **%s** premium for %d coins\n🧾 Invoice: `%s`",
		mention(userID), strings.ToUpper(string(tier)), purchase.AmountCharged, purchase.InvoiceID,
	))
}

// HandleStatus handles /premium-status.
func (h *PremiumHandler) HandleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	userID, ok := SenderID(i)
	if !ok {
		return
	}

	status, err := h.entitlements.Status(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNoEntitlement) {
			respondEphemeral(s, i, "❌ You have no premium")
			return
		}
		respondEphemeral(s, i, "❌ Could not fetch your status, try again later")
		return
	}

	respond(s, i, fmt.Sprintf(
		"⭐ Tier: %s\n⏳ Time left: %s",
		status.Tier, formatRemaining(status.Remaining),
	))
}

// HandleAdminGrant handles /admin-grant member tier days.
func (h *PremiumHandler) HandleAdminGrant(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	target, okTarget := optUser(opts, "member")
	rawTier, okTier := optString(opts, "tier")
	days, okDays := optInt(opts, "days")
	if !okTarget || !okTier || !okDays {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}
	tier := model.Tier(strings.ToLower(rawTier))

	userID, ok := parseSnowflake(target.ID)
	if !ok {
		respondEphemeral(s, i, "❌ Invalid member")
		return
	}

	expiresAt, err := h.entitlements.GrantOrExtend(ctx, userID, tier, time.Duration(days)*24*time.Hour)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTier):
			respondEphemeral(s, i, "❌ Tier must be bronze/silver/gold")
		case errors.Is(err, service.ErrInvalidDuration):
			respondEphemeral(s, i, "❌ Days must be positive")
		default:
			respondEphemeral(s, i, "❌ Grant failed, try again later")
		}
		return
	}

	respond(s, i, fmt.Sprintf(
		"✅ Granted **%s** premium to %s until <t:%d:f>",
		strings.ToUpper(string(tier)), mention(userID), expiresAt.Unix(),
	))
}

// HandleAdminRevoke handles /admin-revoke member.
func (h *PremiumHandler) HandleAdminRevoke(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	target, okTarget := optUser(opts, "member")
	if !okTarget {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}

	userID, ok := parseSnowflake(target.ID)
	if !ok {
		respondEphemeral(s, i, "❌ Invalid member")
		return
	}

	if err := h.entitlements.Revoke(ctx, userID); err != nil {
		if errors.Is(err, service.ErrNoEntitlement) {
			respondEphemeral(s, i, "❌ That member has no premium")
			return
		}
		respondEphemeral(s, i, "❌ Revoke failed, try again later")
		return
	}

	respond(s, i, fmt.Sprintf("✅ Revoked premium from %s", mention(userID)))
}

// HandleShopPanel handles /premium-shop: shows the tier catalog.
func (h *PremiumHandler) HandleShopPanel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var b strings.Builder
	b.WriteString("🪙 **Premium Shop**\n")
	for _, info := range h.shop.Catalog() {
		days := int(info.Duration / (24 * time.Hour))
		fmt.Fprintf(&b, "%s — %d coins for %d days\n", titleTier(info.Tier), info.Price, days)
	}
	b.WriteString("\nUse `/balance` to check coins and `/buy-premium` to purchase.")

	respond(s, i, b.String())
}

// titleTier capitalizes a tier name for display.
func titleTier(tier model.Tier) string {
	name := string(tier)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// formatRemaining renders a remaining duration as days and hours.
func formatRemaining(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	minutes := int(d/time.Minute) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

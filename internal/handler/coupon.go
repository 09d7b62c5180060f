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

// CouponHandler handles coupon admin commands.
type CouponHandler struct {
	coupons *service.CouponService
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(coupons *service.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// HandleCreate handles /coupon-create code kind value max_uses [days_valid].
func (h *CouponHandler) HandleCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	code, okCode := optString(opts, "code")
	rawKind, okKind := optString(opts, "kind")
	value, okValue := optInt(opts, "value")
	maxUses64, okMax := optInt(opts, "max_uses")
	if !okCode || !okKind || !okValue || !okMax {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}
	kind := model.CouponKind(rawKind)
	maxUses := int(maxUses64)

	var validFor time.Duration
	if days, ok := optInt(opts, "days_valid"); ok {
		validFor = time.Duration(days) * 24 * time.Hour
	}

	coupon, err := h.coupons.Create(ctx, code, kind, value, maxUses, validFor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponExists):
			respondEphemeral(s, i, "❌ That coupon code already exists")
		case errors.Is(err, service.ErrInvalidCoupon):
			respondEphemeral(s, i, "❌ Invalid coupon: kind must be flat/percent, value and max uses positive")
		default:
			respondEphemeral(s, i, "❌ Could not create coupon, try again later")
		}
		return
	}

	respond(s, i, fmt.Sprintf("✅ Coupon `%s` created (%s %d, %d uses)",
		coupon.Code, coupon.Kind, coupon.Value, coupon.MaxUses))
}

// HandleDelete handles /coupon-delete code.
func (h *CouponHandler) HandleDelete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	code, okCode := optString(opts, "code")
	if !okCode {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}

	if err := h.coupons.Delete(ctx, code); err != nil {
		if errors.Is(err, service.ErrInvalidCoupon) {
			respondEphemeral(s, i, "❌ No such coupon")
			return
		}
		respondEphemeral(s, i, "❌ Could not delete coupon, try again later")
		return
	}

	respond(s, i, fmt.Sprintf("✅ Coupon `%s` deleted", strings.ToUpper(code)))
}

// HandleList handles /coupon-list.
func (h *CouponHandler) HandleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	coupons, err := h.coupons.List(ctx)
	if err != nil {
		respondEphemeral(s, i, "❌ Could not list coupons, try again later")
		return
	}
	if len(coupons) == 0 {
		respondEphemeral(s, i, "No coupons configured")
		return
	}

	var b strings.Builder
	b.WriteString("🎟️ **Coupons**\n")
	for _, c := range coupons {
		fmt.Fprintf(&b, "`%s` — %s %d, %d/%d used", c.Code, c.Kind, c.Value, c.UsedCount, c.MaxUses)
		if c.ExpiresAt != nil {
			fmt.Fprintf(&b, ", expires <t:%d:d>", c.ExpiresAt.Unix())
		}
		b.WriteString("\n")
	}

	respondEphemeral(s, i, b.String())
}

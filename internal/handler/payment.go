package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"discord-premium-bot/internal/service"
)

// PaymentHandler handles manual payment confirmation commands.
type PaymentHandler struct {
	shop *service.ShopService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(shop *service.ShopService) *PaymentHandler {
	return &PaymentHandler{shop: shop}
}

// HandleConfirmPayment handles /confirm-payment member rupees (admin).
// An admin verifies an external UPI payment and credits the coins.
func (h *PaymentHandler) HandleConfirmPayment(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	target, okTarget := optUser(opts, "member")
	rupees, okRupees := optInt(opts, "rupees")
	if !okTarget || !okRupees {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}

	userID, ok := parseSnowflake(target.ID)
	if !ok {
		respondEphemeral(s, i, "❌ Invalid member")
		return
	}

	purchase, coins, err := h.shop.ConfirmPayment(ctx, userID, rupees)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayment) {
			respondEphemeral(s, i, "❌ Invalid amount")
			return
		}
		respondEphemeral(s, i, "❌ Payment confirmation failed, try again later")
		return
	}

	respond(s, i, fmt.Sprintf(
		"🧾 **Payment Confirmed**\n✅ Added **%d coins** to %s\nInvoice: `%s`",
		coins, mention(userID), purchase.InvoiceID,
	))
}

// HandlePurchases handles /purchases [member] (admin): lists recent invoices.
func (h *PaymentHandler) HandlePurchases(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, ok := SenderID(i)
	if !ok {
		return
	}
	opts := options(i)
	if target, found := optUser(opts, "member"); found {
		if id, valid := parseSnowflake(target.ID); valid {
			userID = id
		}
	}

	purchases, err := h.shop.History(ctx, userID, 10)
	if err != nil {
		respondEphemeral(s, i, "❌ Could not fetch purchases, try again later")
		return
	}
	if len(purchases) == 0 {
		respondEphemeral(s, i, "No purchases recorded for "+mention(userID))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧾 **Purchases for %s**\n", mention(userID))
	for _, p := range purchases {
		fmt.Fprintf(&b, "`%s` — %s for %d, <t:%d:f>", p.InvoiceID, p.Benefit, p.AmountCharged, p.CreatedAt.Unix())
		if p.CouponCode != nil {
			fmt.Fprintf(&b, " (coupon `%s`)", *p.CouponCode)
		}
		b.WriteString("\n")
	}

	respondEphemeral(s, i, b.String())
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"discord-premium-bot/internal/service"
)

// EconomyHandler handles coin balance commands.
type EconomyHandler struct {
	ledger *service.LedgerService
}

// NewEconomyHandler creates a new EconomyHandler.
func NewEconomyHandler(ledger *service.LedgerService) *EconomyHandler {
	return &EconomyHandler{ledger: ledger}
}

// HandleBalance handles /balance.
func (h *EconomyHandler) HandleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	userID, ok := SenderID(i)
	if !ok {
		return
	}

	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		respondEphemeral(s, i, "❌ Could not fetch your balance, try again later")
		return
	}

	respond(s, i, fmt.Sprintf("💰 %s you have **%d coins**", mention(userID), balance))
}

// HandleTransfer handles /transfer member amount.
func (h *EconomyHandler) HandleTransfer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	fromID, ok := SenderID(i)
	if !ok {
		return
	}

	opts := options(i)
	target, okTarget := optUser(opts, "member")
	amount, okAmount := optInt(opts, "amount")
	if !okTarget || !okAmount {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}

	toID, ok := parseSnowflake(target.ID)
	if !ok {
		respondEphemeral(s, i, "❌ Invalid member")
		return
	}

	_, _, err := h.ledger.Transfer(ctx, fromID, toID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			respondEphemeral(s, i, "❌ Amount must be positive")
		case errors.Is(err, service.ErrSelfTransfer):
			respondEphemeral(s, i, "❌ You cannot transfer coins to yourself")
		case errors.Is(err, service.ErrInsufficientFunds):
			respondEphemeral(s, i, "❌ Not enough coins")
		default:
			respondEphemeral(s, i, "❌ Transfer failed, try again later")
		}
		return
	}

	respond(s, i, fmt.Sprintf("✅ %s sent **%d coins** to %s", mention(fromID), amount, mention(toID)))
}

// HandleAddCoins handles /addcoins member amount (admin).
func (h *EconomyHandler) HandleAddCoins(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	target, okTarget := optUser(opts, "member")
	amount, okAmount := optInt(opts, "amount")
	if !okTarget || !okAmount {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}

	userID, ok := parseSnowflake(target.ID)
	if !ok {
		respondEphemeral(s, i, "❌ Invalid member")
		return
	}

	balance, err := h.ledger.AdminAdd(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			respondEphemeral(s, i, "❌ Amount must be positive")
			return
		}
		respondEphemeral(s, i, "❌ Could not add coins, try again later")
		return
	}

	respond(s, i, fmt.Sprintf("✅ Added **%d coins** to %s (balance: %d)", amount, mention(userID), balance))
}

// HandleRemoveCoins handles /removecoins member amount (admin).
// The balance floors at zero rather than going negative.
func (h *EconomyHandler) HandleRemoveCoins(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	opts := options(i)
	target, okTarget := optUser(opts, "member")
	amount, okAmount := optInt(opts, "amount")
	if !okTarget || !okAmount {
		respondEphemeral(s, i, "❌ Malformed command options")
		return
	}

	userID, ok := parseSnowflake(target.ID)
	if !ok {
		respondEphemeral(s, i, "❌ Invalid member")
		return
	}

	balance, err := h.ledger.AdminRemove(ctx, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			respondEphemeral(s, i, "❌ Amount must be positive")
		case errors.Is(err, service.ErrNotFound):
			respondEphemeral(s, i, "❌ That member has no coins")
		default:
			respondEphemeral(s, i, "❌ Could not remove coins, try again later")
		}
		return
	}

	respond(s, i, fmt.Sprintf("✅ Removed **%d coins** from %s\nNew balance: `%d`", amount, mention(userID), balance))
}

// HandleLeaderboard handles /coin-leaderboard.
func (h *EconomyHandler) HandleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	accounts, err := h.ledger.Leaderboard(ctx, 10)
	if err != nil {
		respondEphemeral(s, i, "❌ Could not fetch the leaderboard, try again later")
		return
	}
	if len(accounts) == 0 {
		respond(s, i, "❌ No data found")
		return
	}

	var b strings.Builder
	b.WriteString("🏆 **Coin Leaderboard**\n")
	for rank, acc := range accounts {
		fmt.Fprintf(&b, "%d. %s — 💰 %d coins\n", rank+1, mention(acc.UserID), acc.Balance)
	}

	respond(s, i, b.String())
}

// Package bot provides the Discord session wiring, slash command
// registration and interaction routing.
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"discord-premium-bot/internal/config"
	"discord-premium-bot/internal/handler"
	"discord-premium-bot/internal/service"
)

// Bot wraps the discordgo session with application dependencies.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config

	// Handlers
	economyHandler *handler.EconomyHandler
	premiumHandler *handler.PremiumHandler
	couponHandler  *handler.CouponHandler
	paymentHandler *handler.PaymentHandler

	routes map[string]route
}

// route binds a command name to its handler and admin requirement.
type route struct {
	admin bool
	fn    func(*discordgo.Session, *discordgo.InteractionCreate)
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config             *config.Config
	Session            *discordgo.Session
	LedgerService      *service.LedgerService
	EntitlementService *service.EntitlementService
	CouponService      *service.CouponService
	ShopService        *service.ShopService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Session == nil {
		return nil, fmt.Errorf("discord session is required")
	}

	b := &Bot{
		session: deps.Session,
		cfg:     deps.Config,
	}

	// Initialize handlers
	b.economyHandler = handler.NewEconomyHandler(deps.LedgerService)
	b.premiumHandler = handler.NewPremiumHandler(deps.ShopService, deps.EntitlementService)
	b.couponHandler = handler.NewCouponHandler(deps.CouponService)
	b.paymentHandler = handler.NewPaymentHandler(deps.ShopService)

	b.registerRoutes()

	b.session.Identify.Intents = discordgo.IntentsGuilds
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)

	return b, nil
}

// registerRoutes builds the command routing table.
func (b *Bot) registerRoutes() {
	b.routes = map[string]route{
		"balance":          {fn: b.economyHandler.HandleBalance},
		"transfer":         {fn: b.economyHandler.HandleTransfer},
		"coin-leaderboard": {fn: b.economyHandler.HandleLeaderboard},
		"premium-shop":     {fn: b.premiumHandler.HandleShopPanel},
		"buy-premium":      {fn: b.premiumHandler.HandleBuyPremium},
		"premium-status":   {fn: b.premiumHandler.HandleStatus},

		"addcoins":        {admin: true, fn: b.economyHandler.HandleAddCoins},
		"removecoins":     {admin: true, fn: b.economyHandler.HandleRemoveCoins},
		"admin-grant":     {admin: true, fn: b.premiumHandler.HandleAdminGrant},
		"admin-revoke":    {admin: true, fn: b.premiumHandler.HandleAdminRevoke},
		"coupon-create":   {admin: true, fn: b.couponHandler.HandleCreate},
		"coupon-delete":   {admin: true, fn: b.couponHandler.HandleDelete},
		"coupon-list":     {admin: true, fn: b.couponHandler.HandleList},
		"confirm-payment": {admin: true, fn: b.paymentHandler.HandleConfirmPayment},
		"purchases":       {admin: true, fn: b.paymentHandler.HandlePurchases},
	}
}

// Start opens the gateway connection. Commands are registered on ready.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close discord session")
	}
}

// onReady registers the slash commands once the session is identified.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().
		Str("username", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Bot connected")

	cmds := commands()
	_, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.cfg.Bot.GuildID, cmds)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register slash commands")
		return
	}
	log.Info().Int("count", len(cmds)).Msg("Slash commands registered")
}

// onInteraction routes slash command interactions to their handlers.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	rt, ok := b.routes[name]
	if !ok {
		return
	}

	userID, hasUser := handler.SenderID(i)
	log.Info().
		Str("command", name).
		Int64("user_id", userID).
		Msg("Command received")

	if rt.admin && (!hasUser || !b.cfg.IsAdmin(userID)) {
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "❌ This command is admin only",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	rt.fn(s, i)
}

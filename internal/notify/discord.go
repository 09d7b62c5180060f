package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"discord-premium-bot/internal/model"
	"discord-premium-bot/internal/premium"
)

// DiscordNotifier grants and revokes guild roles for premium tiers.
type DiscordNotifier struct {
	session *discordgo.Session
	guildID string
	catalog *premium.Catalog
}

// NewDiscordNotifier creates a DiscordNotifier for the given guild.
func NewDiscordNotifier(session *discordgo.Session, guildID string, catalog *premium.Catalog) *DiscordNotifier {
	return &DiscordNotifier{
		session: session,
		guildID: guildID,
		catalog: catalog,
	}
}

// GrantBenefit adds the tier's role to the guild member.
func (n *DiscordNotifier) GrantBenefit(ctx context.Context, userID int64, tier model.Tier) error {
	roleID := n.catalog.RoleID(tier)
	if roleID == "" {
		// No role configured for this tier; nothing to deliver.
		return nil
	}

	member := strconv.FormatInt(userID, 10)
	if err := n.session.GuildMemberRoleAdd(n.guildID, member, roleID); err != nil {
		return fmt.Errorf("%w: grant role %s to user %d: %v", ErrBenefitDelivery, roleID, userID, err)
	}
	return nil
}

// RevokeBenefit removes the tier's role from the guild member.
func (n *DiscordNotifier) RevokeBenefit(ctx context.Context, userID int64, tier model.Tier) error {
	roleID := n.catalog.RoleID(tier)
	if roleID == "" {
		return nil
	}

	member := strconv.FormatInt(userID, 10)
	if err := n.session.GuildMemberRoleRemove(n.guildID, member, roleID); err != nil {
		return fmt.Errorf("%w: revoke role %s from user %d: %v", ErrBenefitDelivery, roleID, userID, err)
	}
	return nil
}

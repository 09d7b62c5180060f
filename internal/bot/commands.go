package bot

import "github.com/bwmarrin/discordgo"

// commands returns the full slash command set registered on startup.
func commands() []*discordgo.ApplicationCommand {
	minOne := float64(1)

	tierChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Bronze", Value: "bronze"},
		{Name: "Silver", Value: "silver"},
		{Name: "Gold", Value: "gold"},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your coin balance",
		},
		{
			Name:        "transfer",
			Description: "Transfer coins to another member",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to send coins to",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount of coins to send",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "coin-leaderboard",
			Description: "Show the richest members",
		},
		{
			Name:        "premium-shop",
			Description: "Show the premium tiers and prices",
		},
		{
			Name:        "buy-premium",
			Description: "Buy a premium tier with coins",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "tier",
					Description: "Premium tier to buy",
					Required:    true,
					Choices:     tierChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "coupon",
					Description: "Coupon code for a discount",
				},
			},
		},
		{
			Name:        "premium-status",
			Description: "Check your premium status",
		},
		{
			Name:        "addcoins",
			Description: "Add coins to a member (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to credit",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount of coins to add",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "removecoins",
			Description: "Remove coins from a member (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to debit",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount of coins to remove",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "admin-grant",
			Description: "Grant premium to a member (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to grant premium to",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "tier",
					Description: "Premium tier to grant",
					Required:    true,
					Choices:     tierChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "Number of days to grant",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "admin-revoke",
			Description: "Revoke premium from a member (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to revoke premium from",
					Required:    true,
				},
			},
		},
		{
			Name:        "coupon-create",
			Description: "Create a discount coupon (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "code",
					Description: "Coupon code",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "Discount kind",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Flat coins", Value: "flat"},
						{Name: "Percent", Value: "percent"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "value",
					Description: "Discount value (coins or percent)",
					Required:    true,
					MinValue:    &minOne,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_uses",
					Description: "Maximum number of redemptions",
					Required:    true,
					MinValue:    &minOne,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days_valid",
					Description: "Days until the coupon expires (omit for no expiry)",
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "coupon-delete",
			Description: "Delete a coupon (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "code",
					Description: "Coupon code to delete",
					Required:    true,
				},
			},
		},
		{
			Name:        "coupon-list",
			Description: "List all coupons (admin)",
		},
		{
			Name:        "confirm-payment",
			Description: "Confirm a rupee payment and credit coins (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member who paid",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "rupees",
					Description: "Amount paid in rupees",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "purchases",
			Description: "List recent premium purchases (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to inspect (defaults to yourself)",
				},
			},
		},
	}
}

// Package handler provides Discord slash command handlers.
package handler

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// respond replies to an interaction with a plain message.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

// respondEphemeral replies with a message only the invoking user can see.
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

// SenderID extracts the invoking user's numeric ID.
// Interactions carry Member in guilds and User in DMs.
func SenderID(i *discordgo.InteractionCreate) (int64, bool) {
	var raw string
	if i.Member != nil && i.Member.User != nil {
		raw = i.Member.User.ID
	} else if i.User != nil {
		raw = i.User.ID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseSnowflake converts a Discord snowflake string to an int64 user key.
func parseSnowflake(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// options indexes a command's options by name.
func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// optUser reads a user option, reporting false when the option is missing
// or carries no resolvable user.
func optUser(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (*discordgo.User, bool) {
	opt, ok := opts[name]
	if !ok {
		return nil, false
	}
	u := opt.UserValue(nil)
	if u == nil {
		return nil, false
	}
	return u, true
}

// optInt reads an integer option, reporting false when it is missing.
func optInt(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, bool) {
	opt, ok := opts[name]
	if !ok {
		return 0, false
	}
	return opt.IntValue(), true
}

// optString reads a string option, reporting false when it is missing.
func optString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	opt, ok := opts[name]
	if !ok {
		return "", false
	}
	return opt.StringValue(), true
}

// mention renders a user id as a Discord mention.
func mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/gdbot/internal/platform"
)

func channelKind(guildID string) platform.ChannelKind {
	if guildID == "" {
		return platform.ChannelPrivate
	}
	return platform.ChannelGroup
}

func fromMessage(m *discordgo.Message) *platform.Message {
	if m == nil {
		return nil
	}
	out := &platform.Message{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		ChannelKind: channelKind(m.GuildID),
		GuildID:     m.GuildID,
		Content:     m.Content,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
		out.AuthorName = m.Author.Username
		out.AuthorBot = m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u != nil {
			out.Mentions = append(out.Mentions, u.ID)
		}
	}
	return out
}

func fromReaction(r *discordgo.MessageReaction) *platform.Reaction {
	return &platform.Reaction{
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		MessageID: r.MessageID,
		Emoji:     platform.Emoji{Name: r.Emoji.Name, ID: r.Emoji.ID},
	}
}

// MessageCreateEvent converts a gateway dispatch. ok is false for payloads
// without a message.
func MessageCreateEvent(m *discordgo.MessageCreate) (platform.Event, bool) {
	if m == nil || m.Message == nil {
		return platform.Event{}, false
	}
	return platform.MessageEvent(fromMessage(m.Message)), true
}

func ReactionAddEvent(r *discordgo.MessageReactionAdd) (platform.Event, bool) {
	if r == nil || r.MessageReaction == nil {
		return platform.Event{}, false
	}
	return platform.ReactionEvent(platform.EventReactionAdd, fromReaction(r.MessageReaction)), true
}

func ReactionRemoveEvent(r *discordgo.MessageReactionRemove) (platform.Event, bool) {
	if r == nil || r.MessageReaction == nil {
		return platform.Event{}, false
	}
	return platform.ReactionEvent(platform.EventReactionRemove, fromReaction(r.MessageReaction)), true
}

func toEmbed(e *platform.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

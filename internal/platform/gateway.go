package platform

import "context"

// Gateway is everything the engine needs to act on a chat platform.
type Gateway interface {
	// SelfID is the bot's own user ID.
	SelfID() string
	SendMessage(ctx context.Context, channelID string, p Prompt) (*Message, error)
	EditMessage(ctx context.Context, channelID, messageID string, p Prompt) (*Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RemoveAllReactions(ctx context.Context, channelID, messageID string) error
	// Permissions returns the effective permission bits of userID in channelID.
	Permissions(ctx context.Context, userID, channelID string) (int64, error)
}

// Permission bits understood by the predicates. They follow the Discord
// layout since that is the reference platform.
const (
	PermAdministrator  int64 = 1 << 3
	PermAddReactions   int64 = 1 << 6
	PermManageGuild    int64 = 1 << 5
	PermManageMessages int64 = 1 << 13
)

// Prompt is the abstract content of a bot message.
type Prompt struct {
	Content string
	Embed   *Embed
}

// Text returns a prompt made of plain text.
func Text(s string) Prompt { return Prompt{Content: s} }

// Embed is a structured card attached to a prompt.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

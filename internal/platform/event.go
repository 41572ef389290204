// Package platform describes the boundary between the engine and a chat
// platform: inbound events, the outbound gateway and the errors a platform
// client may report.
package platform

import "time"

// ChannelKind tells whether a channel is a private conversation or belongs
// to a group (guild).
type ChannelKind int

const (
	ChannelPrivate ChannelKind = iota + 1
	ChannelGroup
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelPrivate:
		return "private"
	case ChannelGroup:
		return "group"
	default:
		return "unknown"
	}
}

// EventKind enumerates the inbound events the engine consumes.
type EventKind int

const (
	EventMessageCreate EventKind = iota + 1
	EventReactionAdd
	EventReactionRemove
)

func (k EventKind) String() string {
	switch k {
	case EventMessageCreate:
		return "message_create"
	case EventReactionAdd:
		return "reaction_add"
	case EventReactionRemove:
		return "reaction_remove"
	default:
		return "unknown"
	}
}

// Event is a closed union: Message is set for EventMessageCreate, Reaction
// for the two reaction kinds.
type Event struct {
	Kind     EventKind
	Message  *Message
	Reaction *Reaction
	At       time.Time
}

// ID identifies the event for deduplication.
func (e Event) ID() string {
	switch e.Kind {
	case EventMessageCreate:
		if e.Message != nil {
			return "m:" + e.Message.ID
		}
	case EventReactionAdd, EventReactionRemove:
		if e.Reaction != nil {
			return e.Kind.String() + ":" + e.Reaction.MessageID + ":" + e.Reaction.UserID + ":" + e.Reaction.Emoji.Key()
		}
	}
	return ""
}

// ChannelID returns the channel the event happened in.
func (e Event) ChannelID() string {
	switch {
	case e.Message != nil:
		return e.Message.ChannelID
	case e.Reaction != nil:
		return e.Reaction.ChannelID
	}
	return ""
}

// UserID returns the acting user of the event.
func (e Event) UserID() string {
	switch {
	case e.Message != nil:
		return e.Message.AuthorID
	case e.Reaction != nil:
		return e.Reaction.UserID
	}
	return ""
}

// MessageEvent wraps m into a message-create event.
func MessageEvent(m *Message) Event {
	return Event{Kind: EventMessageCreate, Message: m, At: time.Now()}
}

// ReactionEvent wraps r into a reaction event of the given kind.
func ReactionEvent(kind EventKind, r *Reaction) Event {
	return Event{Kind: kind, Reaction: r, At: time.Now()}
}

// Message is a chat message, inbound or sent by the bot.
type Message struct {
	ID          string
	ChannelID   string
	ChannelKind ChannelKind
	GuildID     string
	AuthorID    string
	AuthorName  string
	AuthorBot   bool
	Content     string
	Mentions    []string
}

// Reaction is an emoji added to or removed from a message.
type Reaction struct {
	UserID    string
	ChannelID string
	GuildID   string
	MessageID string
	Emoji     Emoji
}

// Emoji identifies a unicode or custom emoji.
type Emoji struct {
	Name string
	ID   string
}

// Key is the identity used to match reaction triggers: the unicode
// character for standard emoji, "name:id" for custom ones.
func (e Emoji) Key() string {
	if e.ID == "" {
		return e.Name
	}
	return e.Name + ":" + e.ID
}

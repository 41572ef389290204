// Package menu runs interactive sessions: a prompt plus text and reaction
// triggers that stay live until closed, timed out or preempted by a newer
// session on the same conversation key.
package menu

import (
	"context"
	"time"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

// Action runs when a trigger matches.
type Action func(ctx context.Context, in *Interaction) error

type textTrigger struct {
	trigger string
	action  Action
}

type reactionTrigger struct {
	emoji  string
	action Action
}

// Menu describes a session before it is opened.
type Menu struct {
	prompt             platform.Prompt
	key                string
	texts              []textTrigger
	reactions          []reactionTrigger
	closeAfterMessage  bool
	closeAfterReaction bool
	deleteOnClose      bool
	deleteOnTimeout    bool
	timeout            time.Duration
	vars               map[string]any
}

func New(prompt platform.Prompt) *Menu {
	return &Menu{prompt: prompt, vars: make(map[string]any)}
}

// OnMessage binds a text trigger. Triggers match case-insensitively on a
// prefix ending at a word boundary, in registration order; "" matches any
// message no other trigger took.
func (m *Menu) OnMessage(trigger string, a Action) *Menu {
	m.texts = append(m.texts, textTrigger{trigger: trigger, action: a})
	return m
}

// OnReaction binds an emoji. Adding and removing the reaction both fire.
func (m *Menu) OnReaction(emoji string, a Action) *Menu {
	for i, r := range m.reactions {
		if r.emoji == emoji {
			m.reactions[i].action = a
			return m
		}
	}
	m.reactions = append(m.reactions, reactionTrigger{emoji: emoji, action: a})
	return m
}

func (m *Menu) CloseAfterMessageTrigger(on bool) *Menu {
	m.closeAfterMessage = on
	return m
}

func (m *Menu) CloseAfterReactionTrigger(on bool) *Menu {
	m.closeAfterReaction = on
	return m
}

func (m *Menu) DeleteOnClose(on bool) *Menu {
	m.deleteOnClose = on
	return m
}

func (m *Menu) DeleteOnTimeout(on bool) *Menu {
	m.deleteOnTimeout = on
	return m
}

// Timeout overrides the engine default. It runs from the moment the
// session opens and is never extended.
func (m *Menu) Timeout(d time.Duration) *Menu {
	m.timeout = d
	return m
}

// Key overrides the conversation key. By default it is channel + author.
func (m *Menu) Key(key string) *Menu {
	m.key = key
	return m
}

// Var seeds a session variable.
func (m *Menu) Var(key string, value any) *Menu {
	m.vars[key] = value
	return m
}

// ConversationKey is the default key for an author in a channel.
func ConversationKey(channelID, authorID string) string {
	return channelID + ":" + authorID
}

// Interaction is handed to an action for one matched event.
type Interaction struct {
	session *Session
	event   platform.Event
	trigger string
	args    tokenizer.Args
	flags   tokenizer.Flags
}

func (in *Interaction) Session() *Session        { return in.session }
func (in *Interaction) Event() platform.Event    { return in.event }
func (in *Interaction) Trigger() string          { return in.trigger }
func (in *Interaction) Args() tokenizer.Args     { return in.args }
func (in *Interaction) Flags() tokenizer.Flags   { return in.flags }
func (in *Interaction) Vars() *Vars              { return in.session.vars }
func (in *Interaction) Context() *command.Context { return in.session.cmdCtx }

// CloseMenu terminates the session now, whatever the close flags say.
func (in *Interaction) CloseMenu() {
	in.session.terminate(ReasonClosed)
}

// Reply sends text to the session's channel.
func (in *Interaction) Reply(ctx context.Context, text string) (*platform.Message, error) {
	return in.session.cmdCtx.Reply(ctx, text)
}

// Edit replaces the prompt's content.
func (in *Interaction) Edit(ctx context.Context, p platform.Prompt) error {
	return in.session.edit(ctx, p)
}

// DeleteTrigger removes the user's message that fired a text trigger.
func (in *Interaction) DeleteTrigger(ctx context.Context) error {
	if in.event.Message == nil {
		return nil
	}
	return in.session.engine.gw.DeleteMessage(ctx, in.event.Message.ChannelID, in.event.Message.ID)
}

package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

// ContextParams carries everything the router knows about an invocation.
type ContextParams struct {
	Message *platform.Message
	Command Command
	Args    tokenizer.Args
	Flags   tokenizer.Flags
	Prefix  string
	Printer *i18n.Printer
	Gateway platform.Gateway
	Logger  *zap.Logger
}

// Context is built once per inbound message and never mutated.
type Context struct {
	msg     platform.Message
	cmd     Command
	args    tokenizer.Args
	flags   tokenizer.Flags
	prefix  string
	printer *i18n.Printer
	gw      platform.Gateway
	log     *zap.Logger
}

func NewContext(p ContextParams) *Context {
	c := &Context{
		cmd:     p.Command,
		args:    p.Args,
		flags:   p.Flags,
		prefix:  p.Prefix,
		printer: p.Printer,
		gw:      p.Gateway,
		log:     p.Logger,
	}
	if p.Message != nil {
		c.msg = *p.Message
		c.msg.Mentions = append([]string(nil), p.Message.Mentions...)
	}
	if c.flags == nil {
		c.flags = tokenizer.Flags{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.cmd != nil {
		c.log = c.log.With(zap.String("command", c.cmd.Name()))
	}
	c.log = c.log.With(
		zap.String("author", c.msg.AuthorID),
		zap.String("channel", c.msg.ChannelID),
	)
	return c
}

func (c *Context) AuthorID() string                  { return c.msg.AuthorID }
func (c *Context) AuthorName() string                { return c.msg.AuthorName }
func (c *Context) ChannelID() string                 { return c.msg.ChannelID }
func (c *Context) ChannelKind() platform.ChannelKind { return c.msg.ChannelKind }
func (c *Context) GuildID() string                   { return c.msg.GuildID }
func (c *Context) MessageID() string                 { return c.msg.ID }
func (c *Context) Raw() string                       { return c.msg.Content }
func (c *Context) Command() Command                  { return c.cmd }
func (c *Context) Args() tokenizer.Args              { return c.args }
func (c *Context) Flags() tokenizer.Flags            { return c.flags }
func (c *Context) Prefix() string                    { return c.prefix }
func (c *Context) Printer() *i18n.Printer            { return c.printer }
func (c *Context) Gateway() platform.Gateway         { return c.gw }
func (c *Context) Logger() *zap.Logger               { return c.log }

// Message returns a copy of the originating message.
func (c *Context) Message() platform.Message { return c.msg }

// Locale is the BCP 47 tag replies are rendered in.
func (c *Context) Locale() string { return c.printer.Locale() }

// T renders a catalog message in the invocation's locale.
func (c *Context) T(key string, args ...any) string {
	return c.printer.Sprintf(key, args...)
}

// Reply sends text to the originating channel.
func (c *Context) Reply(ctx context.Context, text string) (*platform.Message, error) {
	return c.ReplyPrompt(ctx, platform.Text(text))
}

// ReplyPrompt sends a prompt to the originating channel.
func (c *Context) ReplyPrompt(ctx context.Context, p platform.Prompt) (*platform.Message, error) {
	if c.gw == nil {
		return nil, platform.ErrDiscarded
	}
	return c.gw.SendMessage(ctx, c.msg.ChannelID, p)
}

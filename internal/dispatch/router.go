// Package dispatch turns inbound platform events into session events and
// command invocations.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/jobmgr"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

const seenSize = 4096

// Reasons an event is dropped.
const (
	DropDuplicate = "duplicate"
	DropSelf      = "self"
	DropBot       = "bot"
)

// Settings resolves per-guild overrides.
type Settings interface {
	Prefix(ctx context.Context, guildID string) (string, bool, error)
	Locale(ctx context.Context, guildID string) (string, bool, error)
}

// Observer counts what the router accepts and drops.
type Observer interface {
	EventReceived(kind string)
	EventDropped(reason string)
}

type nopObserver struct{}

func (nopObserver) EventReceived(string) {}
func (nopObserver) EventDropped(string)  {}

type Options struct {
	Gateway       platform.Gateway
	Bus           *platform.Bus
	Commands      *command.Registry
	Pipeline      *command.Pipeline
	Settings      Settings
	Catalog       *i18n.Catalog
	Jobs          *jobmgr.Manager
	DefaultPrefix string
	FlagPrefix    string
	Observer      Observer
	Logger        *zap.Logger
}

type Router struct {
	gw       platform.Gateway
	bus      *platform.Bus
	commands *command.Registry
	pipeline *command.Pipeline
	settings Settings
	catalog  *i18n.Catalog
	jobs     *jobmgr.Manager
	prefix   string
	flags    string
	observer Observer
	log      *zap.Logger
	seen     *lru.Cache[string, struct{}]
}

func New(opts Options) (*Router, error) {
	if opts.Gateway == nil || opts.Bus == nil || opts.Commands == nil || opts.Jobs == nil {
		return nil, fmt.Errorf("dispatch: gateway, bus, commands and jobs are required")
	}
	seen, err := lru.New[string, struct{}](seenSize)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	r := &Router{
		gw:       opts.Gateway,
		bus:      opts.Bus,
		commands: opts.Commands,
		pipeline: opts.Pipeline,
		settings: opts.Settings,
		catalog:  opts.Catalog,
		jobs:     opts.Jobs,
		prefix:   opts.DefaultPrefix,
		flags:    opts.FlagPrefix,
		observer: opts.Observer,
		log:      opts.Logger,
		seen:     seen,
	}
	if r.pipeline == nil {
		r.pipeline = command.NewPipeline()
	}
	if r.prefix == "" {
		r.prefix = "!"
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.log = r.log.With(zap.String("component", "dispatch"))
	return r, nil
}

// Handle accepts one inbound event. It never blocks on command execution.
func (r *Router) Handle(ev platform.Event) {
	if reason, drop := r.filter(ev); drop {
		r.observer.EventDropped(reason)
		return
	}
	r.observer.EventReceived(ev.Kind.String())
	r.bus.Publish(ev)

	if ev.Kind != platform.EventMessageCreate {
		return
	}
	msg := ev.Message
	if err := r.jobs.Start("msg:"+msg.ID, func(ctx context.Context) error {
		return r.Execute(ctx, msg)
	}); err != nil {
		r.log.Warn("message not dispatched", zap.String("message", msg.ID), zap.Error(err))
	}
}

// filter drops the bot's own events, other bots' messages and message
// redeliveries. Reactions are never deduplicated: toggling one twice is
// two distinct user actions with the same ID.
func (r *Router) filter(ev platform.Event) (string, bool) {
	switch ev.Kind {
	case platform.EventMessageCreate:
		if ev.Message == nil {
			return "", true
		}
		if ev.Message.AuthorID == r.gw.SelfID() {
			return DropSelf, true
		}
		if ev.Message.AuthorBot {
			return DropBot, true
		}
		if found, _ := r.seen.ContainsOrAdd(ev.ID(), struct{}{}); found {
			return DropDuplicate, true
		}
	case platform.EventReactionAdd, platform.EventReactionRemove:
		if ev.Reaction == nil {
			return "", true
		}
		if ev.Reaction.UserID == r.gw.SelfID() {
			return DropSelf, true
		}
	}
	return "", false
}

// Execute runs msg as a command if it carries a prefix and names a known
// command. Anything else is ignored.
func (r *Router) Execute(ctx context.Context, msg *platform.Message) error {
	prefix, rest, ok := r.strip(ctx, msg)
	if !ok {
		return nil
	}
	res := tokenizer.Tokenize(rest, r.flags)
	cmd, ok := r.commands.Resolve(res.Args)
	if !ok {
		if res.Args.Len() > 0 {
			r.log.Debug("unknown command", zap.String("name", res.Args.At(0)))
		}
		return nil
	}

	c := command.NewContext(command.ContextParams{
		Message: msg,
		Command: cmd,
		Args:    res.Args,
		Flags:   res.Flags,
		Prefix:  prefix,
		Printer: r.printer(ctx, msg.GuildID),
		Gateway: r.gw,
		Logger:  r.log,
	})
	return r.pipeline.Bind(cmd, c).Run(ctx)
}

// strip removes the guild prefix, the default prefix or a mention of the
// bot. It returns the prefix that matched.
func (r *Router) strip(ctx context.Context, msg *platform.Message) (string, string, bool) {
	content := strings.TrimSpace(msg.Content)

	for _, mention := range []string{"<@" + r.gw.SelfID() + ">", "<@!" + r.gw.SelfID() + ">"} {
		if rest, ok := strings.CutPrefix(content, mention); ok {
			return r.guildPrefix(ctx, msg.GuildID), strings.TrimSpace(rest), true
		}
	}

	prefix := r.guildPrefix(ctx, msg.GuildID)
	rest, ok := strings.CutPrefix(content, prefix)
	if !ok || rest == "" {
		return "", "", false
	}
	return prefix, rest, true
}

func (r *Router) guildPrefix(ctx context.Context, guildID string) string {
	if guildID == "" || r.settings == nil {
		return r.prefix
	}
	p, ok, err := r.settings.Prefix(ctx, guildID)
	if err != nil {
		r.log.Warn("prefix lookup failed, using default", zap.String("guild", guildID), zap.Error(err))
		return r.prefix
	}
	if !ok || p == "" {
		return r.prefix
	}
	return p
}

func (r *Router) printer(ctx context.Context, guildID string) *i18n.Printer {
	if r.catalog == nil {
		return nil
	}
	locale := r.catalog.Fallback()
	if guildID != "" && r.settings != nil {
		l, ok, err := r.settings.Locale(ctx, guildID)
		switch {
		case err != nil:
			r.log.Warn("locale lookup failed, using default", zap.String("guild", guildID), zap.Error(err))
		case ok && l != "":
			locale = l
		}
	}
	return r.catalog.Printer(locale)
}

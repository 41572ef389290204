package core

import (
	"context"
	"strings"
	"unicode"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/storage"
)

const (
	maxPrefixLen = 5
	emojiYes     = "✅"
	emojiNo      = "❌"
)

type PrefixCommand struct {
	store    storage.Store
	menus    *menu.Engine
	fallback string
}

func (c *PrefixCommand) Name() string         { return "prefix" }
func (c *PrefixCommand) Aliases() []string    { return nil }
func (c *PrefixCommand) Description() string  { return "Show or change the command prefix" }
func (c *PrefixCommand) Category() string     { return config.CategorySettings }
func (c *PrefixCommand) Scope() command.Scope { return command.ScopeGroupOnly }
func (c *PrefixCommand) Usage() string        { return "prefix [new|reset]" }
func (c *PrefixCommand) Permission() permission.Requirement {
	return permission.AtLeast(permission.LevelServerAdmin)
}

func (c *PrefixCommand) Run(ctx context.Context, cc *command.Context) error {
	arg := cc.Args().At(1)
	switch {
	case arg == "":
		_, err := cc.Reply(ctx, cc.T(i18n.PrefixCurrent, cc.Prefix()))
		return err
	case strings.EqualFold(arg, "reset"):
		return c.confirmReset(ctx, cc)
	}

	if err := validPrefix(arg); err != nil {
		return err
	}
	if err := c.store.SetPrefix(ctx, cc.GuildID(), arg); err != nil {
		return err
	}
	_, err := cc.Reply(ctx, cc.T(i18n.PrefixSet, arg))
	return err
}

func validPrefix(p string) error {
	if len([]rune(p)) > maxPrefixLen {
		return command.Invalid("prefix", "at most %d characters", maxPrefixLen)
	}
	if strings.ContainsFunc(p, unicode.IsSpace) || strings.Contains(p, "`") {
		return command.Invalid("prefix", "no spaces or backticks")
	}
	return nil
}

// confirmReset asks before dropping the guild override.
func (c *PrefixCommand) confirmReset(ctx context.Context, cc *command.Context) error {
	yes := func(ctx context.Context, in *menu.Interaction) error {
		if err := c.store.SetPrefix(ctx, cc.GuildID(), ""); err != nil {
			return err
		}
		_, err := in.Reply(ctx, cc.T(i18n.PrefixResetDone, c.fallback))
		return err
	}
	no := func(ctx context.Context, in *menu.Interaction) error {
		_, err := in.Reply(ctx, cc.T(i18n.Cancelled))
		return err
	}

	m := menu.New(platform.Text(cc.T(i18n.PrefixConfirm, c.fallback))).
		OnReaction(emojiYes, yes).
		OnReaction(emojiNo, no).
		OnMessage("yes", yes).
		OnMessage("no", no).
		CloseAfterMessageTrigger(true).
		CloseAfterReactionTrigger(true).
		DeleteOnClose(true).
		DeleteOnTimeout(true)
	_, err := c.menus.Open(ctx, cc, m)
	return err
}

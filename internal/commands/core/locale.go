package core

import (
	"context"
	"strings"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/storage"
)

type LocaleCommand struct {
	store   storage.Store
	catalog *i18n.Catalog
}

func (c *LocaleCommand) Name() string         { return "locale" }
func (c *LocaleCommand) Aliases() []string    { return []string{"lang"} }
func (c *LocaleCommand) Description() string  { return "Show or change the reply language" }
func (c *LocaleCommand) Category() string     { return config.CategorySettings }
func (c *LocaleCommand) Scope() command.Scope { return command.ScopeGroupOnly }
func (c *LocaleCommand) Usage() string        { return "locale [tag]" }
func (c *LocaleCommand) Permission() permission.Requirement {
	return permission.AtLeast(permission.LevelServerAdmin)
}

func (c *LocaleCommand) Run(ctx context.Context, cc *command.Context) error {
	available := strings.Join(c.catalog.Supported(), ", ")
	raw := cc.Args().At(1)
	if raw == "" {
		_, err := cc.Reply(ctx, cc.T(i18n.LocaleCurrent, cc.Locale(), available))
		return err
	}

	tag, ok := c.catalog.Match(raw)
	if !ok {
		return command.Invalid("", "%s", cc.T(i18n.LocaleUnknown, raw, available))
	}
	if err := c.store.SetLocale(ctx, cc.GuildID(), tag); err != nil {
		return err
	}
	// confirm in the language just chosen
	_, err := cc.Reply(ctx, c.catalog.Printer(tag).Sprintf(i18n.LocaleSet, tag))
	return err
}

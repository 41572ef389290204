package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/storage"
)

const historyPerPage = 10

type HistoryCommand struct {
	store storage.Store
	menus *menu.Engine
}

func (c *HistoryCommand) Name() string         { return "history" }
func (c *HistoryCommand) Aliases() []string    { return []string{"cmd-log"} }
func (c *HistoryCommand) Description() string  { return "Review recent commands" }
func (c *HistoryCommand) Category() string     { return config.CategorySettings }
func (c *HistoryCommand) Scope() command.Scope { return command.ScopeGroupOnly }
func (c *HistoryCommand) Permission() permission.Requirement {
	return permission.AtLeast(permission.LevelServerAdmin)
}

func (c *HistoryCommand) Run(ctx context.Context, cc *command.Context) error {
	records, err := c.store.CommandHistory(ctx, cc.GuildID())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := cc.Reply(ctx, cc.T(i18n.HistoryEmpty))
		return err
	}

	// latest first
	lines := make([]string, 0, len(records))
	for _, r := range slices.Backward(records) {
		lines = append(lines, historyLine(cc.Prefix(), r))
	}
	provider := menu.Chunk(lines, historyPerPage, func(page, pages int, chunk []string) platform.Prompt {
		return platform.Prompt{Embed: &platform.Embed{
			Title:       cc.T(i18n.HistoryTitle),
			Description: strings.Join(chunk, "\n"),
			Color:       embedColor,
			Footer:      cc.T(i18n.PageFooter, page+1, pages),
		}}
	})
	_, err = c.menus.Paginate(ctx, cc, provider)
	return err
}

func historyLine(prefix string, r storage.CommandRecord) string {
	line := fmt.Sprintf("`%s` %s <#%s> `%s%s", r.Datetime.Format("2006-01-02 15:04"), r.Username, r.ChannelID, prefix, r.Command)
	if r.Param != "" {
		line += " " + r.Param
	}
	line += "`"
	if r.Failed {
		line += " ❌"
	}
	return line
}

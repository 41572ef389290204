package gd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
)

const (
	embedColor     = 0xf1c40f
	defaultPerPage = 10
	maxPerPage     = 25
)

// RankCommand shows a leaderboard category, highlighting the players named
// after it.
type RankCommand struct {
	board Leaderboard
	menus *menu.Engine
}

func NewRankCommand(board Leaderboard, menus *menu.Engine) *RankCommand {
	return &RankCommand{board: board, menus: menus}
}

func (c *RankCommand) Name() string                       { return "rank" }
func (c *RankCommand) Aliases() []string                  { return []string{"top", "lb"} }
func (c *RankCommand) Description() string                { return "Show a leaderboard" }
func (c *RankCommand) Category() string                   { return config.CategoryGameplay }
func (c *RankCommand) Scope() command.Scope               { return command.ScopeAny }
func (c *RankCommand) Permission() permission.Requirement { return permission.Requirement{} }
func (c *RankCommand) Usage() string                      { return `rank <category> [player…] [--per-page=n]` }

func (c *RankCommand) Run(ctx context.Context, cc *command.Context) error {
	categories := strings.Join(c.board.Categories(), ", ")
	category := strings.ToLower(cc.Args().At(1))
	if category == "" {
		return command.Invalid("", "%s", cc.T(i18n.RankUnknown, "", categories))
	}

	perPage, err := perPageFlag(cc)
	if err != nil {
		return err
	}

	entries, err := c.board.Entries(ctx, category)
	if errors.Is(err, ErrUnknownCategory) {
		return command.Invalid("", "%s", cc.T(i18n.RankUnknown, category, categories))
	}
	if err != nil {
		return command.FailedWrap(err, "leaderboard unavailable")
	}
	if len(entries) == 0 {
		return command.Failed("%s", cc.T(i18n.RankEmpty, category))
	}

	wanted := make(map[string]bool)
	players := cc.Args()[min(2, cc.Args().Len()):]
	for _, p := range players {
		wanted[strings.ToLower(p)] = true
	}
	if len(players) > 1 {
		// An unquoted name with spaces arrives split, so also try the whole tail.
		wanted[strings.ToLower(cc.Args().Collapse(3).At(2))] = true
	}
	found := 0
	lines := make([]string, len(entries))
	for i, e := range entries {
		line := fmt.Sprintf("`#%-3d` %s · %d", e.Position, e.Player, e.Score)
		if wanted[strings.ToLower(e.Player)] {
			line = "**" + line + "** ⬅️"
			found++
		}
		lines[i] = line
	}
	if len(wanted) > 0 && found == 0 {
		return command.Failed("%s", cc.T(i18n.RankUsersNotFound, category))
	}

	title := cc.T(i18n.RankTitle, category)
	provider := menu.Chunk(lines, perPage, func(page, pages int, chunk []string) platform.Prompt {
		return platform.Prompt{Embed: &platform.Embed{
			Title:       "🏆 " + title,
			Description: strings.Join(chunk, "\n"),
			Color:       embedColor,
			Footer:      cc.T(i18n.PageFooter, page+1, pages),
		}}
	})
	_, err = c.menus.Paginate(ctx, cc, provider)
	return err
}

func perPageFlag(cc *command.Context) (int, error) {
	raw, ok := cc.Flags().Value("per-page")
	if !ok {
		return defaultPerPage, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxPerPage {
		return 0, command.Invalid("per-page", "must be a number between 1 and %d", maxPerPage)
	}
	return n, nil
}

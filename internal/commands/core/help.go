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
)

const helpPerPage = 8

type HelpCommand struct {
	commands *command.Registry
	menus    *menu.Engine
}

func (c *HelpCommand) Name() string                       { return "help" }
func (c *HelpCommand) Aliases() []string                  { return []string{"h", "commands"} }
func (c *HelpCommand) Description() string                { return "List commands, or describe one" }
func (c *HelpCommand) Category() string                   { return config.CategoryInformation }
func (c *HelpCommand) Scope() command.Scope               { return command.ScopeAny }
func (c *HelpCommand) Permission() permission.Requirement { return permission.Requirement{} }
func (c *HelpCommand) Usage() string                      { return "help [command]" }

func (c *HelpCommand) Run(ctx context.Context, cc *command.Context) error {
	if name := cc.Args().At(1); name != "" {
		return c.describe(ctx, cc, name)
	}

	lines := c.lines(cc)
	provider := menu.Chunk(lines, helpPerPage, func(page, pages int, chunk []string) platform.Prompt {
		return platform.Prompt{Embed: &platform.Embed{
			Title:       "📖 " + cc.T(i18n.HelpTitle),
			Description: strings.Join(chunk, "\n"),
			Color:       embedColor,
			Footer:      cc.T(i18n.PageFooter, page+1, pages),
		}}
	})
	_, err := c.menus.Paginate(ctx, cc, provider)
	return err
}

// lines lists commands grouped by category, categories ordered by weight.
func (c *HelpCommand) lines(cc *command.Context) []string {
	cmds := c.commands.All()
	slices.SortStableFunc(cmds, func(a, b command.Command) int {
		return config.CategoryWeight(a.Category()) - config.CategoryWeight(b.Category())
	})

	var out []string
	category := ""
	for _, cmd := range cmds {
		if cmd.Category() != category {
			category = cmd.Category()
			out = append(out, "**"+cc.T(i18n.HelpCategory, category)+"**")
		}
		out = append(out, fmt.Sprintf("`%s%s` - %s", cc.Prefix(), cmd.Name(), cmd.Description()))
	}
	return out
}

func (c *HelpCommand) describe(ctx context.Context, cc *command.Context, name string) error {
	cmd, ok := c.commands.Get(name)
	if !ok {
		return command.Invalid("", "unknown command %q", name)
	}
	usage := cmd.Name()
	if u, ok := cmd.(command.Usage); ok {
		usage = u.Usage()
	}
	fields := []platform.EmbedField{
		{Name: "Usage", Value: "`" + cc.Prefix() + usage + "`"},
		{Name: "Category", Value: cmd.Category(), Inline: true},
	}
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fields = append(fields, platform.EmbedField{Name: "Aliases", Value: strings.Join(aliases, ", "), Inline: true})
	}
	_, err := cc.ReplyPrompt(ctx, platform.Prompt{Embed: &platform.Embed{
		Title:       cmd.Name(),
		Description: cmd.Description(),
		Color:       embedColor,
		Fields:      fields,
	}})
	return err
}

// Package docs renders the command reference from the registry.
package docs

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/template"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/config"
)

var reference = template.Must(template.New("commands").Parse(`# Commands

Prefix: ` + "`{{.Prefix}}`" + ` (configurable per server with ` + "`{{.Prefix}}prefix`" + `).
{{range .Sections}}
## {{.Category}}
{{range .Commands}}
- **{{.Usage}}** - {{.Description}}{{if .Aliases}} (aliases: {{.Aliases}}){{end}}{{if .Permission}} _requires {{.Permission}}_{{end}}{{end}}
{{end}}`))

type entry struct {
	Usage       string
	Description string
	Aliases     string
	Permission  string
}

type section struct {
	Category string
	Commands []entry
}

// Write renders every registered command as Markdown, grouped by category
// in help order.
func Write(w io.Writer, reg *command.Registry, prefix string) error {
	cmds := reg.All()
	slices.SortStableFunc(cmds, func(a, b command.Command) int {
		if d := config.CategoryWeight(a.Category()) - config.CategoryWeight(b.Category()); d != 0 {
			return d
		}
		return strings.Compare(a.Name(), b.Name())
	})

	var sections []section
	for _, c := range cmds {
		if len(sections) == 0 || sections[len(sections)-1].Category != c.Category() {
			sections = append(sections, section{Category: c.Category()})
		}
		usage := c.Name()
		if u, ok := c.(command.Usage); ok {
			usage = u.Usage()
		}
		e := entry{
			Usage:       "`" + prefix + usage + "`",
			Description: c.Description(),
			Aliases:     strings.Join(c.Aliases(), ", "),
		}
		if req := c.Permission(); req.Level > 0 {
			e.Permission = req.Level.String()
		}
		last := &sections[len(sections)-1]
		last.Commands = append(last.Commands, e)
	}

	err := reference.Execute(w, struct {
		Prefix   string
		Sections []section
	}{prefix, sections})
	if err != nil {
		return fmt.Errorf("render command reference: %w", err)
	}
	return nil
}

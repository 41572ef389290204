package core

import (
	"context"
	"time"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/permission"
)

type PingCommand struct {
	latency func() time.Duration
}

func (c *PingCommand) Name() string                       { return "ping" }
func (c *PingCommand) Aliases() []string                  { return nil }
func (c *PingCommand) Description() string                { return "Check bot latency" }
func (c *PingCommand) Category() string                   { return config.CategoryMaintenance }
func (c *PingCommand) Scope() command.Scope               { return command.ScopeAny }
func (c *PingCommand) Permission() permission.Requirement { return permission.Requirement{} }

func (c *PingCommand) Run(ctx context.Context, cc *command.Context) error {
	_, err := cc.Reply(ctx, cc.T(i18n.Pong, c.latency().Round(time.Millisecond)))
	return err
}

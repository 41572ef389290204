// Package core holds the bot's built-in commands: ping, help, prefix,
// locale, grant, revoke and history.
package core

import (
	"time"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/storage"
)

const embedColor = 0x9b59b6

// Deps are the collaborators the core commands share.
type Deps struct {
	Store         storage.Store
	Menus         *menu.Engine
	Commands      *command.Registry
	Catalog       *i18n.Catalog
	DefaultPrefix string
	// Latency reports the gateway heartbeat round trip. Nil reports zero.
	Latency func() time.Duration
}

// Register adds every core command to reg.
func Register(reg *command.Registry, d Deps) {
	latency := d.Latency
	if latency == nil {
		latency = func() time.Duration { return 0 }
	}
	commands := d.Commands
	if commands == nil {
		commands = reg
	}
	reg.Register(
		&PingCommand{latency: latency},
		&HelpCommand{commands: commands, menus: d.Menus},
		&PrefixCommand{store: d.Store, menus: d.Menus, fallback: d.DefaultPrefix},
		&LocaleCommand{store: d.Store, catalog: d.Catalog},
		&GrantCommand{store: d.Store},
		&RevokeCommand{store: d.Store},
		&HistoryCommand{store: d.Store, menus: d.Menus},
	)
}

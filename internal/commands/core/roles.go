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

type GrantCommand struct {
	store storage.Store
}

func (c *GrantCommand) Name() string         { return "grant" }
func (c *GrantCommand) Aliases() []string    { return nil }
func (c *GrantCommand) Description() string  { return "Give a user a bot role" }
func (c *GrantCommand) Category() string     { return config.CategoryMaintenance }
func (c *GrantCommand) Scope() command.Scope { return command.ScopeAny }
func (c *GrantCommand) Usage() string        { return "grant <user> <admin|moderator>" }
func (c *GrantCommand) Permission() permission.Requirement {
	return permission.AtLeast(permission.LevelBotOwner)
}

func (c *GrantCommand) Run(ctx context.Context, cc *command.Context) error {
	userID, role, err := roleArgs(cc)
	if err != nil {
		return err
	}
	if err := c.store.Grant(ctx, userID, role); err != nil {
		return err
	}
	_, err = cc.Reply(ctx, cc.T(i18n.RoleGranted, role, mention(userID)))
	return err
}

type RevokeCommand struct {
	store storage.Store
}

func (c *RevokeCommand) Name() string         { return "revoke" }
func (c *RevokeCommand) Aliases() []string    { return nil }
func (c *RevokeCommand) Description() string  { return "Take a bot role from a user" }
func (c *RevokeCommand) Category() string     { return config.CategoryMaintenance }
func (c *RevokeCommand) Scope() command.Scope { return command.ScopeAny }
func (c *RevokeCommand) Usage() string        { return "revoke <user> <admin|moderator>" }
func (c *RevokeCommand) Permission() permission.Requirement {
	return permission.AtLeast(permission.LevelBotOwner)
}

func (c *RevokeCommand) Run(ctx context.Context, cc *command.Context) error {
	userID, role, err := roleArgs(cc)
	if err != nil {
		return err
	}
	if err := c.store.Revoke(ctx, userID, role); err != nil {
		return err
	}
	_, err = cc.Reply(ctx, cc.T(i18n.RoleRevoked, role, mention(userID)))
	return err
}

func roleArgs(cc *command.Context) (string, string, error) {
	userID, ok := parseUserID(cc.Args().At(1))
	if !ok {
		return "", "", command.Invalid("user", "mention a user or give their ID")
	}
	role := strings.ToLower(cc.Args().At(2))
	if !storage.ValidRole(role) {
		return "", "", command.Invalid("", "%s", cc.T(i18n.RoleUnknown, role))
	}
	return userID, role, nil
}

// parseUserID accepts <@id>, <@!id> or a bare numeric ID.
func parseUserID(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "<@"); ok {
		rest = strings.TrimPrefix(rest, "!")
		s, ok = strings.CutSuffix(rest, ">")
		if !ok {
			return "", false
		}
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

func mention(userID string) string { return "<@" + userID + ">" }

package permission

import (
	"context"
	"slices"

	"github.com/keshon/gdbot/internal/platform"
)

// Roles persisted as grants in storage.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Named permissions registered by RegisterDefaults.
const (
	ManageMessages = "manage_messages"
	AddReactions   = "add_reactions"
)

// GrantStore answers whether a user was granted a bot role.
type GrantStore interface {
	HasGrant(ctx context.Context, userID, role string) (bool, error)
}

// PermissionQuerier reports a user's effective platform permissions.
type PermissionQuerier interface {
	Permissions(ctx context.Context, userID, channelID string) (int64, error)
}

// Owner holds for any of the given user IDs.
func Owner(ids ...string) Predicate {
	return func(_ context.Context, s Subject) (bool, error) {
		return slices.Contains(ids, s.AuthorID()), nil
	}
}

// Grant holds when storage has role granted to the author.
func Grant(store GrantStore, role string) Predicate {
	return func(ctx context.Context, s Subject) (bool, error) {
		return store.HasGrant(ctx, s.AuthorID(), role)
	}
}

// ServerAdmin holds in a guild for members with Administrator or Manage
// Server.
func ServerAdmin(q PermissionQuerier) Predicate {
	return func(ctx context.Context, s Subject) (bool, error) {
		if s.GuildID() == "" {
			return false, nil
		}
		perms, err := q.Permissions(ctx, s.AuthorID(), s.ChannelID())
		if err != nil {
			return false, err
		}
		return perms&(platform.PermAdministrator|platform.PermManageGuild) != 0, nil
	}
}

// Bit holds when the author has the permission bit in the channel.
// Administrators hold every bit.
func Bit(q PermissionQuerier, bit int64) Predicate {
	return func(ctx context.Context, s Subject) (bool, error) {
		if s.GuildID() == "" {
			return true, nil
		}
		perms, err := q.Permissions(ctx, s.AuthorID(), s.ChannelID())
		if err != nil {
			return false, err
		}
		return perms&platform.PermAdministrator != 0 || perms&bit != 0, nil
	}
}

// Defaults wires the standard predicates.
type Defaults struct {
	Owners   []string
	Grants   GrantStore
	Platform PermissionQuerier
}

// RegisterDefaults registers the owner, grant and platform predicates.
func RegisterDefaults(c *Checker, d Defaults) {
	if len(d.Owners) > 0 {
		c.RegisterLevel(LevelBotOwner, Owner(d.Owners...))
	}
	if d.Grants != nil {
		c.RegisterLevel(LevelBotAdmin, Grant(d.Grants, RoleAdmin))
		c.RegisterLevel(LevelBotModerator, Grant(d.Grants, RoleModerator))
	}
	if d.Platform != nil {
		c.RegisterLevel(LevelServerAdmin, ServerAdmin(d.Platform))
		c.Register(ManageMessages, Bit(d.Platform, platform.PermManageMessages))
		c.Register(AddReactions, Bit(d.Platform, platform.PermAddReactions))
	}
}

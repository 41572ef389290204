// Package storage persists per-guild settings, bot role grants and the
// command history.
package storage

import (
	"context"
	"fmt"
	"time"
)

const commandHistoryLimit = 20

// Roles that can be granted to a user.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// ValidRole reports whether role can be granted.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

// CommandRecord is one executed command.
type CommandRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Failed    bool      `json:"failed"`
	Datetime  time.Time `json:"datetime"`
}

// GuildSettings are the per-guild overrides. Empty fields mean "use the
// default".
type GuildSettings struct {
	Prefix string `json:"prefix,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// Store is implemented by every backend. Getters return ok=false when
// nothing was set.
type Store interface {
	Prefix(ctx context.Context, guildID string) (string, bool, error)
	// SetPrefix stores prefix; an empty prefix clears the override.
	SetPrefix(ctx context.Context, guildID, prefix string) error
	Locale(ctx context.Context, guildID string) (string, bool, error)
	SetLocale(ctx context.Context, guildID, locale string) error

	Grant(ctx context.Context, userID, role string) error
	Revoke(ctx context.Context, userID, role string) error
	HasGrant(ctx context.Context, userID, role string) (bool, error)

	// AppendCommand keeps only the newest records per guild.
	AppendCommand(ctx context.Context, guildID string, rec CommandRecord) error
	// CommandHistory returns records oldest first.
	CommandHistory(ctx context.Context, guildID string) ([]CommandRecord, error)

	Close() error
}

// Error wraps every backend failure so callers can tell storage outages
// apart from other errors.
type Error struct {
	Op      string
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Backend: backend, Err: err}
}

// Ping probes backends that hold a connection. File-backed stores are
// always reachable.
func Ping(ctx context.Context, s Store) error {
	if c, ok := s.(*Cached); ok {
		s = c.Store
	}
	if p, ok := s.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

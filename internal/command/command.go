// Package command holds the command contract, the alias registry and the
// execution pipeline that binds a command to one invocation.
package command

import (
	"context"

	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
)

// Scope restricts the kinds of channel a command runs in.
type Scope int

const (
	ScopeAny Scope = iota
	ScopePrivateOnly
	ScopeGroupOnly
)

func (s Scope) String() string {
	switch s {
	case ScopePrivateOnly:
		return "private"
	case ScopeGroupOnly:
		return "group"
	default:
		return "any"
	}
}

// Allows reports whether a channel of kind k is in scope.
func (s Scope) Allows(k platform.ChannelKind) bool {
	switch s {
	case ScopePrivateOnly:
		return k == platform.ChannelPrivate
	case ScopeGroupOnly:
		return k == platform.ChannelGroup
	default:
		return true
	}
}

// Command is an immutable descriptor plus its body.
type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Category() string
	Scope() Scope
	Permission() permission.Requirement
	Run(ctx context.Context, c *Context) error
}

// Usage is implemented by commands that document their arguments.
type Usage interface {
	Usage() string
}

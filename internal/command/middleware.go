package command

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/storage"
)

// Middleware decorates a command. The descriptor methods pass through so
// a wrapped command still reports its own name, scope and permission.
type Middleware func(Command) Command

// RunFunc is the shape of a command body.
type RunFunc func(ctx context.Context, c *Context) error

type wrappedCommand struct {
	Command
	run RunFunc
}

func (w *wrappedCommand) Run(ctx context.Context, c *Context) error {
	if w.run != nil {
		return w.run(ctx, c)
	}
	return w.Command.Run(ctx, c)
}

// Wrap replaces cmd's body with run while keeping its descriptor.
func Wrap(cmd Command, run RunFunc) Command {
	return &wrappedCommand{Command: cmd, run: run}
}

// Root strips every middleware layer and returns the registered command.
func Root(cmd Command) Command {
	for {
		w, ok := cmd.(*wrappedCommand)
		if !ok {
			return cmd
		}
		cmd = w.Command
	}
}

// Apply wraps cmd so that the first middleware is the outermost.
func Apply(cmd Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			cmd = mws[i](cmd)
		}
	}
	return cmd
}

// WithScope drops invocations from channels outside the command's scope.
func WithScope() Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, c *Context) error {
			if !cmd.Scope().Allows(c.ChannelKind()) {
				c.Logger().Debug("out of scope",
					zap.String("scope", cmd.Scope().String()),
					zap.String("channel_kind", c.ChannelKind().String()))
				return nil
			}
			return cmd.Run(ctx, c)
		})
	}
}

// WithPermission requires both the named and the level gate to pass.
func WithPermission(checker *permission.Checker) Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, c *Context) error {
			req := cmd.Permission()
			ok, err := checker.Allowed(ctx, req, c)
			if err != nil {
				return fmt.Errorf("check permission for %s: %w", cmd.Name(), err)
			}
			if !ok {
				return &PermissionDeniedError{Command: cmd.Name(), Requirement: req}
			}
			return cmd.Run(ctx, c)
		})
	}
}

// WithPanicRecovery turns a panicking body into a *PanicError.
func WithPanicRecovery() Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, c *Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			return cmd.Run(ctx, c)
		})
	}
}

// History records executed commands.
type History interface {
	AppendCommand(ctx context.Context, guildID string, rec storage.CommandRecord) error
}

// WithCommandLog appends every guild invocation to the command history
// after the body returns. Logging failures never change the outcome.
func WithCommandLog(h History) Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, c *Context) error {
			err := cmd.Run(ctx, c)
			if c.GuildID() == "" || h == nil {
				return err
			}
			rec := storage.CommandRecord{
				ChannelID: c.ChannelID(),
				UserID:    c.AuthorID(),
				Username:  c.AuthorName(),
				Command:   cmd.Name(),
				Param:     c.Args().JoinFrom(0),
				Failed:    err != nil,
				Datetime:  time.Now().UTC(),
			}
			if e := h.AppendCommand(context.WithoutCancel(ctx), c.GuildID(), rec); e != nil {
				c.Logger().Warn("failed to log command", zap.Error(e))
			}
			return err
		})
	}
}

// Observer receives one sample per finished invocation.
type Observer interface {
	ObserveCommand(name, outcome string, elapsed time.Duration)
}

// Outcome labels passed to an Observer.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// WithMetrics reports duration and outcome of every invocation. Placed
// outside the recovery layer it sees only errors nothing claimed.
func WithMetrics(o Observer) Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, c *Context) error {
			start := time.Now()
			err := cmd.Run(ctx, c)
			outcome := OutcomeOK
			if err != nil {
				outcome = OutcomeError
			}
			o.ObserveCommand(cmd.Name(), outcome, time.Since(start))
			return err
		})
	}
}

// WithLogging logs each invocation at debug and unclaimed errors at error.
func WithLogging() Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, c *Context) error {
			start := time.Now()
			err := cmd.Run(ctx, c)
			if err != nil {
				c.Logger().Error("command failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
				return err
			}
			c.Logger().Debug("command done", zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
}

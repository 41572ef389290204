// Package recovery turns errors escaping a command or a menu action into
// replies. Handlers form an ordered chain: each one may claim the error or
// pass it (or a replacement) to the next, and a fallback claims whatever is
// left.
package recovery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/command"
)

// Handler deals with err. Returning nil claims it; returning an error
// hands that error to the remaining handlers.
type Handler func(ctx context.Context, c *command.Context, err error) error

// Fallback receives errors no handler claimed.
type Fallback func(ctx context.Context, c *command.Context, err error)

type entry struct {
	name   string
	match  func(error) bool
	handle Handler
}

// Chain is built at startup and read concurrently afterwards.
type Chain struct {
	entries  []entry
	fallback Fallback
	observe  func(handler string)
	log      *zap.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithFallback sets the terminal handler.
func WithFallback(f Fallback) Option {
	return func(ch *Chain) { ch.fallback = f }
}

// WithObserver is called with the name of the handler that claimed an
// error, or "fallback".
func WithObserver(fn func(handler string)) Option {
	return func(ch *Chain) { ch.observe = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(ch *Chain) { ch.log = l }
}

func New(opts ...Option) *Chain {
	ch := &Chain{log: zap.NewNop()}
	for _, o := range opts {
		o(ch)
	}
	return ch
}

// Register adds a handler for errors assignable to E, found with errors.As
// so wrapped errors match too. Earlier registrations are consulted first.
func Register[E error](ch *Chain, name string, h func(ctx context.Context, c *command.Context, err E) error) {
	ch.entries = append(ch.entries, entry{
		name: name,
		match: func(err error) bool {
			var target E
			return errors.As(err, &target)
		},
		handle: func(ctx context.Context, c *command.Context, err error) error {
			var target E
			errors.As(err, &target)
			return h(ctx, c, target)
		},
	})
}

// RegisterIs adds a handler for errors matching target with errors.Is.
func RegisterIs(ch *Chain, name string, target error, h Handler) {
	ch.entries = append(ch.entries, entry{
		name:   name,
		match:  func(err error) bool { return errors.Is(err, target) },
		handle: h,
	})
}

// Handle runs err through the chain. It returns nil once something claims
// the error and err itself only when no fallback is set.
func (ch *Chain) Handle(ctx context.Context, c *command.Context, err error) error {
	if err == nil {
		return nil
	}
	for _, e := range ch.entries {
		if !e.match(err) {
			continue
		}
		next := ch.run(ctx, c, e, err)
		if next == nil {
			ch.claimed(e.name)
			return nil
		}
		err = next
	}
	if ch.fallback == nil {
		return err
	}
	ch.fallback(ctx, c, err)
	ch.claimed("fallback")
	return nil
}

// run isolates a panicking handler so the chain keeps going.
func (ch *Chain) run(ctx context.Context, c *command.Context, e entry, err error) (next error) {
	defer func() {
		if r := recover(); r != nil {
			ch.log.Error("recovery handler panicked", zap.String("handler", e.name), zap.Any("panic", r))
			next = err
		}
	}()
	return e.handle(ctx, c, err)
}

func (ch *Chain) claimed(name string) {
	if ch.observe != nil {
		ch.observe(name)
	}
}

// Names lists handlers in consultation order.
func (ch *Chain) Names() []string {
	out := make([]string, len(ch.entries))
	for i, e := range ch.entries {
		out[i] = e.name
	}
	return out
}

// Middleware routes errors returned by the wrapped command through ch.
func Middleware(ch *Chain) command.Middleware {
	return func(cmd command.Command) command.Command {
		return command.Wrap(cmd, func(ctx context.Context, c *command.Context) error {
			err := cmd.Run(ctx, c)
			if err == nil {
				return nil
			}
			return ch.Handle(ctx, c, err)
		})
	}
}

package menu

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

const (
	defaultTimeout        = 2 * time.Minute
	defaultCleanupTimeout = 10 * time.Second
)

// ErrorHandler receives action errors other than retries.
type ErrorHandler interface {
	Handle(ctx context.Context, c *command.Context, err error) error
}

// Observer is told when sessions open and close.
type Observer interface {
	SessionOpened()
	SessionClosed(reason string)
}

type nopObserver struct{}

func (nopObserver) SessionOpened()       {}
func (nopObserver) SessionClosed(string) {}

type logErrors struct{ log *zap.Logger }

func (l logErrors) Handle(_ context.Context, _ *command.Context, err error) error {
	l.log.Error("session action failed", zap.Error(err))
	return nil
}

// Options configures an Engine.
type Options struct {
	Gateway    platform.Gateway
	Bus        *platform.Bus
	Registry   *Registry
	Errors     ErrorHandler
	Observer   Observer
	Logger     *zap.Logger
	Timeout    time.Duration
	FlagPrefix string
	// Context is the parent of every action. It defaults to Background.
	Context context.Context
}

// Engine opens sessions and owns the registry they live in.
type Engine struct {
	gw             platform.Gateway
	bus            *platform.Bus
	registry       *Registry
	errors         ErrorHandler
	observer       Observer
	log            *zap.Logger
	timeout        time.Duration
	cleanupTimeout time.Duration
	flagPrefix     string
	base           context.Context
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		gw:             opts.Gateway,
		bus:            opts.Bus,
		registry:       opts.Registry,
		errors:         opts.Errors,
		observer:       opts.Observer,
		log:            opts.Logger,
		timeout:        opts.Timeout,
		cleanupTimeout: defaultCleanupTimeout,
		flagPrefix:     opts.FlagPrefix,
		base:           opts.Context,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log = e.log.With(zap.String("component", "menu"))
	if e.bus == nil {
		e.bus = platform.NewBus(e.log)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.errors == nil {
		e.errors = logErrors{log: e.log}
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.timeout <= 0 {
		e.timeout = defaultTimeout
	}
	if e.flagPrefix == "" {
		e.flagPrefix = tokenizer.DefaultFlagPrefix
	}
	if e.base == nil {
		e.base = context.Background()
	}
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }

// Open sends the prompt, replaces any session on the same key, adds the
// reaction affordances and starts listening. The returned session may
// already be terminated if a newer one preempted it while opening.
func (e *Engine) Open(ctx context.Context, c *command.Context, m *Menu) (*Session, error) {
	msg, err := e.gw.SendMessage(ctx, c.ChannelID(), m.prompt)
	if err != nil {
		return nil, fmt.Errorf("send menu prompt: %w", err)
	}

	key := m.key
	if key == "" {
		key = ConversationKey(c.ChannelID(), c.AuthorID())
	}
	timeout := m.timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	loopCtx, cancel := context.WithCancel(e.base)
	s := &Session{
		engine: e,
		menu:   m,
		key:    key,
		cmdCtx: c,
		vars:   newVars(m.vars),
		prompt: *msg,
		cancel: cancel,
		done:   make(chan struct{}),
		log: e.log.With(
			zap.String("session", key),
			zap.String("prompt", msg.ID),
		),
	}
	events, unsub := e.bus.Subscribe(sessionFilter(c.AuthorID(), c.ChannelID(), msg.ID))
	s.unsub = unsub

	e.observer.SessionOpened()
	e.registry.Put(key, s)
	// Armed only once s is registered, so a timeout's Remove always finds it.
	s.timer.Store(time.AfterFunc(timeout, func() { s.terminate(ReasonTimeout) }))
	if s.State() == StateTerminated {
		s.timer.Load().Stop()
	}

	e.addReactions(ctx, s)

	if !s.activate() {
		return s, nil
	}
	go s.listen(loopCtx, events)
	s.log.Debug("session active", zap.Duration("timeout", timeout))
	return s, nil
}

// addReactions adds the affordances in trigger order. When the platform
// refuses, the user is told once and text triggers keep working.
func (e *Engine) addReactions(ctx context.Context, s *Session) {
	p := s.Prompt()
	for _, r := range s.menu.reactions {
		if s.State() == StateTerminated {
			return
		}
		err := e.gw.AddReaction(ctx, p.ChannelID, p.ID, r.emoji)
		if err == nil {
			continue
		}
		if platform.IsForbidden(err) {
			s.log.Info("cannot add reactions", zap.Error(err))
			if _, rerr := s.cmdCtx.Reply(ctx, s.cmdCtx.T(i18n.ReactionsForbidden)); rerr != nil {
				s.log.Debug("reactions warning not delivered", zap.Error(rerr))
			}
			return
		}
		s.log.Warn("add reaction failed", zap.String("emoji", r.emoji), zap.Error(err))
	}
}

// sessionFilter keeps the author's messages in the channel and the
// author's reactions on the prompt.
func sessionFilter(authorID, channelID, promptID string) platform.Filter {
	return func(ev platform.Event) bool {
		switch ev.Kind {
		case platform.EventMessageCreate:
			return ev.Message != nil && ev.Message.AuthorID == authorID && ev.Message.ChannelID == channelID
		case platform.EventReactionAdd, platform.EventReactionRemove:
			return ev.Reaction != nil && ev.Reaction.UserID == authorID && ev.Reaction.MessageID == promptID
		}
		return false
	}
}

// CloseAll terminates every session, for shutdown.
func (e *Engine) CloseAll() int {
	var sessions []*Session
	e.registry.Range(func(_ string, s *Session) bool {
		sessions = append(sessions, s)
		return true
	})
	n := 0
	for _, s := range sessions {
		if s.terminate(ReasonShutdown) {
			n++
		}
	}
	return n
}

package menu

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

// State of a session. Transitions only move forward.
type State int32

const (
	StateOpen State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateActive:
		return "active"
	default:
		return "terminated"
	}
}

// Reason records which path terminated a session.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonClosed
	ReasonTimeout
	ReasonPreempted
	ReasonFailed
	ReasonShutdown
)

func (r Reason) String() string {
	switch r {
	case ReasonClosed:
		return "closed"
	case ReasonTimeout:
		return "timeout"
	case ReasonPreempted:
		return "preempted"
	case ReasonFailed:
		return "failed"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// Session is one live menu.
type Session struct {
	engine *Engine
	menu   *Menu
	key    string
	cmdCtx *command.Context
	vars   *Vars
	log    *zap.Logger

	promptMu sync.Mutex
	prompt   platform.Message

	state      atomic.Int32
	reason     atomic.Int32
	dispatchMu sync.Mutex
	timer      atomic.Pointer[time.Timer]
	cancel     context.CancelFunc
	unsub      func()
	done       chan struct{}
}

func (s *Session) Key() string  { return s.key }
func (s *Session) Vars() *Vars  { return s.vars }
func (s *Session) State() State { return State(s.state.Load()) }

// Reason is ReasonNone until the session terminates.
func (s *Session) Reason() Reason { return Reason(s.reason.Load()) }

// Prompt returns the prompt message as last sent or edited.
func (s *Session) Prompt() platform.Message {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	return s.prompt
}

// Done is closed once cleanup has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session terminates or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the session from outside any action.
func (s *Session) Close() bool { return s.terminate(ReasonClosed) }

func (s *Session) edit(ctx context.Context, p platform.Prompt) error {
	cur := s.Prompt()
	m, err := s.engine.gw.EditMessage(ctx, cur.ChannelID, cur.ID, p)
	if err != nil {
		return err
	}
	s.promptMu.Lock()
	s.prompt = *m
	s.promptMu.Unlock()
	return nil
}

// activate moves Open to Active. It fails when the session was terminated
// while opening.
func (s *Session) activate() bool {
	return s.state.CompareAndSwap(int32(StateOpen), int32(StateActive))
}

// terminate runs cleanup exactly once, whichever path gets here first.
// It never waits for an in-flight action, so an action may close its own
// session or open a successor on the same key.
func (s *Session) terminate(reason Reason) bool {
	for {
		cur := s.state.Load()
		if cur == int32(StateTerminated) {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(StateTerminated)) {
			break
		}
	}
	s.reason.Store(int32(reason))

	// Barrier: a dispatch that saw Active before the swap has committed to
	// its action; every later one sees Terminated.
	s.dispatchMu.Lock()
	s.dispatchMu.Unlock()

	if t := s.timer.Load(); t != nil {
		t.Stop()
	}
	s.cancel()
	s.unsub()
	s.engine.registry.Remove(s.key, s)
	s.cleanup(reason)

	s.log.Debug("session terminated", zap.Stringer("reason", reason))
	s.engine.observer.SessionClosed(reason.String())
	close(s.done)
	return true
}

// cleanup deletes the prompt or strips its reactions. Failures are logged
// and otherwise ignored.
func (s *Session) cleanup(reason Reason) {
	ctx, cancel := context.WithTimeout(context.Background(), s.engine.cleanupTimeout)
	defer cancel()

	p := s.Prompt()
	del := s.menu.deleteOnClose
	if reason == ReasonTimeout {
		del = s.menu.deleteOnTimeout
	}
	switch {
	case del:
		if err := s.engine.gw.DeleteMessage(ctx, p.ChannelID, p.ID); err != nil {
			s.log.Debug("cleanup: delete prompt failed", zap.Error(err))
		}
	case len(s.menu.reactions) > 0:
		if err := s.engine.gw.RemoveAllReactions(ctx, p.ChannelID, p.ID); err != nil {
			s.log.Debug("cleanup: strip reactions failed", zap.Error(err))
		}
	}
}

func (s *Session) listen(ctx context.Context, events <-chan platform.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev platform.Event) {
	action, in, closeAfter := s.match(ev)
	if action == nil {
		return
	}

	s.dispatchMu.Lock()
	active := s.State() == StateActive
	s.dispatchMu.Unlock()
	if !active {
		return
	}

	err := s.run(action, in)
	if err == nil {
		if closeAfter {
			s.terminate(ReasonClosed)
		}
		return
	}

	var retry *RetryError
	if errors.As(err, &retry) {
		// the wait resumes with the next event
		if _, rerr := in.Reply(s.engine.base, retry.Message); rerr != nil {
			s.log.Warn("retry reply failed", zap.Error(rerr))
		}
		return
	}

	if herr := s.engine.errors.Handle(s.engine.base, s.cmdCtx, err); herr != nil {
		s.log.Error("session action failed", zap.Error(herr))
	}
	s.terminate(ReasonFailed)
}

func (s *Session) run(action Action, in *Interaction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &command.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return action(s.engine.base, in)
}

func (s *Session) match(ev platform.Event) (Action, *Interaction, bool) {
	switch ev.Kind {
	case platform.EventMessageCreate:
		trigger, action, rest, ok := matchText(s.menu.texts, ev.Message.Content)
		if !ok {
			return nil, nil, false
		}
		res := tokenizer.Tokenize(rest, s.engine.flagPrefix)
		in := &Interaction{session: s, event: ev, trigger: trigger, args: res.Args, flags: res.Flags}
		return action, in, s.menu.closeAfterMessage

	case platform.EventReactionAdd, platform.EventReactionRemove:
		key := ev.Reaction.Emoji.Key()
		for _, r := range s.menu.reactions {
			if r.emoji == key {
				in := &Interaction{session: s, event: ev, trigger: key, flags: tokenizer.Flags{}}
				return r.action, in, s.menu.closeAfterReaction
			}
		}
	}
	return nil, nil, false
}

// matchText picks the first trigger that prefixes content at a word
// boundary, or the "" trigger when none does.
func matchText(triggers []textTrigger, content string) (string, Action, string, bool) {
	content = strings.TrimSpace(content)
	var fallback *textTrigger
	for i, t := range triggers {
		if t.trigger == "" {
			if fallback == nil {
				fallback = &triggers[i]
			}
			continue
		}
		if rest, ok := cutTrigger(content, t.trigger); ok {
			return t.trigger, t.action, rest, true
		}
	}
	if fallback != nil {
		return "", fallback.action, content, true
	}
	return "", nil, "", false
}

func cutTrigger(content, trigger string) (string, bool) {
	if len(content) < len(trigger) || !strings.EqualFold(content[:len(trigger)], trigger) {
		return "", false
	}
	rest := content[len(trigger):]
	if rest == "" {
		return "", true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

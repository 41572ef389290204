package recovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/platform/console"
	"github.com/keshon/gdbot/internal/storage"
)

const channel = "c1"

func newContext(t *testing.T, gw platform.Gateway) *command.Context {
	t.Helper()
	cat, err := i18n.New("en")
	require.NoError(t, err)
	return command.NewContext(command.ContextParams{
		Message: &platform.Message{
			ID: "m1", ChannelID: channel, ChannelKind: platform.ChannelGroup,
			GuildID: "g1", AuthorID: "u1", AuthorName: "alice", Content: "!rank demon",
		},
		Printer: cat.Printer("en"),
		Gateway: gw,
	})
}

func lastReply(t *testing.T, gw *console.Gateway) string {
	t.Helper()
	m, ok := gw.Last(channel)
	require.True(t, ok, "expected a reply")
	return m.Content
}

func TestDefaultReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"failed", command.Failed("no such category"), "❌ no such category"},
		{"wrapped failed", fmt.Errorf("rank: %w", command.Failed("boom")), "❌ boom"},
		{"validation", command.Invalid("per-page", "must be positive"), "⚠️ per-page: must be positive"},
		{"permission", &command.PermissionDeniedError{Command: "grant", Requirement: permission.AtLeast(permission.LevelBotOwner)}, i18n.NotAllowed},
		{"storage", fmt.Errorf("load: %w", &storage.Error{Op: "prefix", Backend: "sqlite", Err: errors.New("locked")}), i18n.StorageUnavailable},
		{"client", &platform.ClientError{Op: "send", Status: 400, Message: "Invalid   Form\nBody"}, "Discord rejected the request (400): Invalid Form Body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := console.New("bot", nil)
			ch := NewDefault(Options{})
			require.NoError(t, ch.Handle(context.Background(), newContext(t, gw), tt.err))
			assert.Equal(t, tt.want, lastReply(t, gw))
		})
	}
}

func TestPermissionReplyDoesNotLeakRequirement(t *testing.T) {
	gw := console.New("bot", nil)
	err := &command.PermissionDeniedError{Command: "grant", Requirement: permission.Requirement{Name: "secret_perm", Level: permission.LevelBotOwner}}
	require.NoError(t, NewDefault(Options{}).Handle(context.Background(), newContext(t, gw), err))

	reply := lastReply(t, gw)
	assert.NotContains(t, reply, "secret_perm")
	assert.NotContains(t, reply, "bot_owner")
}

func TestForbiddenClientErrorHint(t *testing.T) {
	gw := console.New("bot", nil)
	err := &platform.ClientError{Op: "react", Status: 403, Code: 50013, Message: "Missing Permissions"}
	require.NoError(t, NewDefault(Options{}).Handle(context.Background(), newContext(t, gw), err))
	assert.Contains(t, lastReply(t, gw), i18n.ForbiddenHint)
}

func TestSilentErrors(t *testing.T) {
	for _, err := range []error{platform.ErrDiscarded, fmt.Errorf("wait: %w", context.Canceled)} {
		gw := console.New("bot", nil)
		require.NoError(t, NewDefault(Options{}).Handle(context.Background(), newContext(t, gw), err))
		_, replied := gw.Last(channel)
		assert.False(t, replied, "%v must not produce a reply", err)
	}
}

func TestPrecedenceFirstRegisteredWins(t *testing.T) {
	var claimed []string
	gw := console.New("bot", nil)
	ch := NewDefault(Options{Observer: func(h string) { claimed = append(claimed, h) }})

	// a FailedError caused by a storage error is both; the earlier entry wins
	err := command.FailedWrap(&storage.Error{Op: "grant", Backend: "json", Err: errors.New("closed")}, "could not save")
	require.NoError(t, ch.Handle(context.Background(), newContext(t, gw), err))

	assert.Equal(t, "❌ could not save", lastReply(t, gw))
	assert.Equal(t, []string{"failed"}, claimed)
	assert.Equal(t, []string{"failed", "validation", "permission", "client", "storage", "discarded", "canceled"}, ch.Names())
}

type quotaError struct{ left int }

func (e *quotaError) Error() string { return fmt.Sprintf("quota: %d left", e.left) }

func TestHandlerPassesOutward(t *testing.T) {
	var trail []string
	var fellThrough error
	ch := New(WithFallback(func(_ context.Context, _ *command.Context, err error) { fellThrough = err }))

	Register(ch, "quota", func(_ context.Context, _ *command.Context, err *quotaError) error {
		trail = append(trail, "quota")
		return command.Invalid("", "slow down (%d left)", err.left)
	})
	Register(ch, "validation", func(_ context.Context, _ *command.Context, err *command.ValidationError) error {
		trail = append(trail, "validation:"+err.Message)
		return errors.New("still unhappy")
	})

	require.NoError(t, ch.Handle(context.Background(), nil, &quotaError{left: 2}))
	assert.Equal(t, []string{"quota", "validation:slow down (2 left)"}, trail)
	assert.EqualError(t, fellThrough, "still unhappy")
}

func TestNoFallbackReturnsError(t *testing.T) {
	ch := New()
	boom := errors.New("boom")
	assert.ErrorIs(t, ch.Handle(context.Background(), nil, boom), boom)
	assert.NoError(t, ch.Handle(context.Background(), nil, nil))
}

func TestPanickingHandlerIsSkipped(t *testing.T) {
	var got error
	ch := New(WithFallback(func(_ context.Context, _ *command.Context, err error) { got = err }))
	RegisterIs(ch, "bad", platform.ErrDiscarded, func(context.Context, *command.Context, error) error { panic("oops") })

	require.NoError(t, ch.Handle(context.Background(), nil, platform.ErrDiscarded))
	assert.ErrorIs(t, got, platform.ErrDiscarded)
}

func TestFallbackReportsIncident(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gw := console.New("bot", nil)
	ch := NewDefault(Options{
		OpsChannelID:  "ops",
		Logger:        zap.New(core),
		NewIncidentID: func() string { return "inc-1" },
	})

	err := &command.PanicError{Value: "nil map", Stack: []byte("goroutine 1")}
	require.NoError(t, ch.Handle(context.Background(), newContext(t, gw), err))

	assert.Equal(t, "Something went wrong on our side. Incident `inc-1` has been reported.", lastReply(t, gw))

	report, ok := gw.Last("ops")
	require.True(t, ok)
	p, _ := gw.Prompt(report.ID)
	require.NotNil(t, p.Embed)
	assert.Equal(t, "Incident inc-1", p.Embed.Title)
	rendered := console.Render(p)
	assert.Contains(t, rendered, "alice (u1)")
	assert.Contains(t, rendered, "!rank demon")
	assert.Contains(t, rendered, "*command.PanicError")

	entries := logs.FilterMessage("unhandled error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "inc-1", fields["incident"])
	assert.Equal(t, "goroutine 1", fields["stack"])
}

func TestFallbackWithoutOpsChannel(t *testing.T) {
	gw := console.New("bot", nil)
	ch := NewDefault(Options{NewIncidentID: func() string { return "x" }})
	require.NoError(t, ch.Handle(context.Background(), newContext(t, gw), errors.New("mystery")))

	_, reported := gw.Last("ops")
	assert.False(t, reported)
	assert.Contains(t, lastReply(t, gw), "`x`")
}

func TestMiddleware(t *testing.T) {
	gw := console.New("bot", nil)
	c := newContext(t, gw)
	cmd := command.Wrap(nil, func(context.Context, *command.Context) error { return command.Failed("nope") })

	err := command.NewPipeline(Middleware(NewDefault(Options{}))).Bind(cmd, c).Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "❌ nope", lastReply(t, gw))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "-", sanitize("  "))
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, []rune(sanitize(string(long))), maxDiagnostic+1)
}

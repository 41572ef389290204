package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/retrylimit"
)

type fakeREST struct {
	sends   []*discordgo.MessageSend
	edits   []*discordgo.MessageEdit
	errs    []error
	calls   int
	perms   int64
	deleted []string
}

// next pops the next scripted error.
func (f *fakeREST) next() error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeREST) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	f.sends = append(f.sends, data)
	return &discordgo.Message{
		ID: "m1", ChannelID: channelID, GuildID: "g1", Content: data.Content,
		Author: &discordgo.User{ID: "bot", Username: "gdbot", Bot: true},
	}, nil
}

func (f *fakeREST) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel, Content: *m.Content}, nil
}

func (f *fakeREST) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	if err := f.next(); err != nil {
		return err
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeREST) MessageReactionAdd(_, _, _ string, _ ...discordgo.RequestOption) error {
	return f.next()
}

func (f *fakeREST) MessageReactionsRemoveAll(_, _ string, _ ...discordgo.RequestOption) error {
	return f.next()
}

func (f *fakeREST) UserChannelPermissions(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
	return f.perms, f.next()
}

func restErr(status, code int, msg string) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: msg},
	}
}

func newGateway(rest RESTSession) *Gateway {
	cfg := retrylimit.DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return NewGateway(rest, "bot", nil, cfg, nil)
}

func TestSendMessageRendersEmbed(t *testing.T) {
	rest := &fakeREST{}
	g := newGateway(rest)

	msg, err := g.SendMessage(context.Background(), "c1", platform.Prompt{Embed: &platform.Embed{
		Title:  "Leaderboard",
		Footer: "Page 1 of 3",
		Fields: []platform.EmbedField{{Name: "a", Value: "b", Inline: true}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, platform.ChannelGroup, msg.ChannelKind)
	assert.True(t, msg.AuthorBot)

	require.Len(t, rest.sends, 1)
	embed := rest.sends[0].Embeds[0]
	assert.Equal(t, "Leaderboard", embed.Title)
	assert.Equal(t, "Page 1 of 3", embed.Footer.Text)
	assert.True(t, embed.Fields[0].Inline)
}

func TestEditClearsEmbedsForText(t *testing.T) {
	rest := &fakeREST{}
	g := newGateway(rest)

	_, err := g.EditMessage(context.Background(), "c1", "m9", platform.Text("plain"))
	require.NoError(t, err)
	require.Len(t, rest.edits, 1)
	assert.Equal(t, "plain", *rest.edits[0].Content)
	assert.NotNil(t, rest.edits[0].Embeds)
	assert.Empty(t, *rest.edits[0].Embeds)
}

func TestServerErrorsAreRetried(t *testing.T) {
	rest := &fakeREST{errs: []error{restErr(502, 0, ""), restErr(429, 0, "slow down")}}
	g := newGateway(rest)

	require.NoError(t, g.DeleteMessage(context.Background(), "c1", "m1"))
	assert.Equal(t, 3, rest.calls)
	assert.Equal(t, []string{"m1"}, rest.deleted)
}

func TestForbiddenIsNotRetried(t *testing.T) {
	rest := &fakeREST{errs: []error{restErr(http.StatusForbidden, 50013, "Missing Permissions")}}
	g := newGateway(rest)

	err := g.AddReaction(context.Background(), "c1", "m1", "▶️")
	require.Error(t, err)
	assert.Equal(t, 1, rest.calls)
	assert.True(t, platform.IsForbidden(err))

	var ce *platform.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "react", ce.Op)
	assert.Equal(t, "Missing Permissions", ce.Message)
}

func TestUnauthorizedIsFatal(t *testing.T) {
	rest := &fakeREST{errs: []error{restErr(http.StatusUnauthorized, 0, "")}}
	g := newGateway(rest)

	_, err := g.Permissions(context.Background(), "u1", "c1")
	var ce *platform.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Unauthorized", ce.Message)
	assert.Equal(t, 1, rest.calls)
}

func TestClassifyPassesOtherErrors(t *testing.T) {
	assert.NoError(t, classify("send", nil))
	assert.ErrorIs(t, classify("send", context.Canceled), context.Canceled)

	plain := errors.New("socket closed")
	err := classify("send", plain)
	assert.ErrorIs(t, err, plain)
	var ce *platform.ClientError
	assert.False(t, errors.As(err, &ce))
}

func TestConvertEvents(t *testing.T) {
	ev, ok := MessageCreateEvent(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m1", ChannelID: "dm", Content: "!ping",
		Author:   &discordgo.User{ID: "u1", Username: "alice"},
		Mentions: []*discordgo.User{{ID: "bot"}},
	}})
	require.True(t, ok)
	assert.Equal(t, platform.EventMessageCreate, ev.Kind)
	assert.Equal(t, platform.ChannelPrivate, ev.Message.ChannelKind)
	assert.Equal(t, []string{"bot"}, ev.Message.Mentions)
	assert.Equal(t, "u1", ev.UserID())

	ev, ok = ReactionRemoveEvent(&discordgo.MessageReactionRemove{MessageReaction: &discordgo.MessageReaction{
		UserID: "u1", MessageID: "m1", ChannelID: "c1", GuildID: "g1",
		Emoji: discordgo.Emoji{Name: "party", ID: "42"},
	}})
	require.True(t, ok)
	assert.Equal(t, platform.EventReactionRemove, ev.Kind)
	assert.Equal(t, "party:42", ev.Reaction.Emoji.Key())

	_, ok = ReactionAddEvent(&discordgo.MessageReactionAdd{})
	assert.False(t, ok)
	_, ok = MessageCreateEvent(nil)
	assert.False(t, ok)
}

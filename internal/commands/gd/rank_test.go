package gd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/platform/console"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type brokenBoard struct{ err error }

func (b brokenBoard) Categories() []string { return []string{"demon"} }
func (b brokenBoard) Entries(context.Context, string) ([]Entry, error) {
	return nil, b.err
}

func runRank(t *testing.T, board Leaderboard, text string) (*console.Gateway, *menu.Engine, error) {
	t.Helper()
	gw := console.New("bot", nil)
	bus := platform.NewBus(nil)
	engine := menu.NewEngine(menu.Options{Gateway: gw, Bus: bus, Timeout: time.Minute})
	t.Cleanup(func() {
		engine.CloseAll()
		bus.Close()
	})
	catalog, err := i18n.New("en")
	require.NoError(t, err)

	cmd := NewRankCommand(board, engine)
	res := tokenizer.Tokenize(text, "--")
	msg := &platform.Message{
		ID: gw.NextID(), ChannelID: "c1", ChannelKind: platform.ChannelGroup,
		GuildID: "g1", AuthorID: "u1", AuthorName: "alice", Content: "!" + text,
	}
	c := command.NewContext(command.ContextParams{
		Message: msg,
		Command: cmd,
		Args:    res.Args,
		Flags:   res.Flags,
		Prefix:  "!",
		Printer: catalog.Printer("en"),
		Gateway: gw,
	})
	return gw, engine, cmd.Run(context.Background(), c)
}

func TestMemoryRanking(t *testing.T) {
	m := NewMemory()
	m.Set("Stars", map[string]int{"b": 10, "a": 10, "c": 30})

	entries, err := m.Entries(context.Background(), "STARS")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Position: 1, Player: "c", Score: 30},
		{Position: 2, Player: "a", Score: 10},
		{Position: 3, Player: "b", Score: 10},
	}, entries)
	assert.Equal(t, []string{"stars"}, m.Categories())

	entries[0].Player = "mutated"
	again, _ := m.Entries(context.Background(), "stars")
	assert.Equal(t, "c", again[0].Player)

	_, err = m.Entries(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRankPaginatesAndHighlights(t *testing.T) {
	gw, engine, err := runRank(t, Sample(), `rank demon "User Name"`)
	require.NoError(t, err)

	last, ok := gw.Last("c1")
	require.True(t, ok)
	p, _ := gw.Prompt(last.ID)
	require.NotNil(t, p.Embed)
	assert.Equal(t, "🏆 demon leaderboard", p.Embed.Title)
	assert.Equal(t, "Page 1 of 3", p.Embed.Footer)

	lines := strings.Split(p.Embed.Description, "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "`#1  ` Zoink · 412", lines[0])
	assert.Equal(t, "**`#4  ` User Name · 365** ⬅️", lines[3])
	assert.Equal(t, 1, engine.Registry().Len())
}

func TestRankUnquotedPlayerName(t *testing.T) {
	gw, _, err := runRank(t, Sample(), "rank demon user name")
	require.NoError(t, err)
	last, _ := gw.Last("c1")
	p, _ := gw.Prompt(last.ID)
	require.NotNil(t, p.Embed)
	lines := strings.Split(p.Embed.Description, "\n")
	assert.Equal(t, "**`#4  ` User Name · 365** ⬅️", lines[3])

	gw, _, err = runRank(t, Sample(), `rank demon Zoink "User Name"`)
	require.NoError(t, err)
	last, _ = gw.Last("c1")
	p, _ = gw.Prompt(last.ID)
	require.NotNil(t, p.Embed)
	lines = strings.Split(p.Embed.Description, "\n")
	assert.Equal(t, "**`#1  ` Zoink · 412** ⬅️", lines[0])
	assert.Equal(t, "**`#4  ` User Name · 365** ⬅️", lines[3])
}

func TestRankPerPage(t *testing.T) {
	gw, _, err := runRank(t, Sample(), "rank stars --per-page=3")
	require.NoError(t, err)
	last, _ := gw.Last("c1")
	p, _ := gw.Prompt(last.ID)
	require.NotNil(t, p.Embed)
	assert.Equal(t, "Page 1 of 3", p.Embed.Footer)

	for _, bad := range []string{"0", "26", "x"} {
		_, _, err := runRank(t, Sample(), "rank stars --per-page="+bad)
		var verr *command.ValidationError
		require.ErrorAs(t, err, &verr, bad)
		assert.Equal(t, "per-page", verr.Field)
	}
}

func TestRankErrors(t *testing.T) {
	var verr *command.ValidationError
	var ferr *command.FailedError

	_, _, err := runRank(t, Sample(), "rank")
	require.ErrorAs(t, err, &verr)

	_, _, err = runRank(t, Sample(), "rank coins")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Unknown category `coins`. Try one of: creator, demon, stars", verr.Error())

	_, _, err = runRank(t, Sample(), "rank creator nobody")
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "None of the requested players are ranked in `creator`.", ferr.Error())

	empty := NewMemory()
	empty.Set("demon", nil)
	_, _, err = runRank(t, empty, "rank demon")
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "Nobody is ranked in `demon` yet.", ferr.Error())

	down := errors.New("upstream down")
	_, _, err = runRank(t, brokenBoard{err: down}, "rank demon")
	require.ErrorAs(t, err, &ferr)
	assert.ErrorIs(t, err, down)
}

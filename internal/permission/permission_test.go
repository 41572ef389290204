package permission

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/gdbot/internal/platform"
)

type subject struct{ author, channel, guild string }

func (s subject) AuthorID() string  { return s.author }
func (s subject) ChannelID() string { return s.channel }
func (s subject) GuildID() string   { return s.guild }

func always(v bool) Predicate {
	return func(context.Context, Subject) (bool, error) { return v, nil }
}

func counting(v bool, n *atomic.Int32) Predicate {
	return func(context.Context, Subject) (bool, error) {
		n.Add(1)
		return v, nil
	}
}

func TestGrantedNamed(t *testing.T) {
	ctx := context.Background()
	c := NewChecker()
	c.Register("yes", always(true))
	c.Register("no", always(false))
	c.Register("broken", func(context.Context, Subject) (bool, error) { return true, errors.New("db down") })

	ok, err := c.Granted(ctx, "", subject{})
	require.NoError(t, err)
	assert.True(t, ok, "empty name always passes")

	ok, _ = c.Granted(ctx, "yes", subject{})
	assert.True(t, ok)
	ok, _ = c.Granted(ctx, "no", subject{})
	assert.False(t, ok)
	ok, err = c.Granted(ctx, "unregistered", subject{})
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Granted(ctx, "broken", subject{})
	assert.False(t, ok)
	assert.ErrorContains(t, err, "db down")
}

func TestGrantedLevelEscalation(t *testing.T) {
	ctx := context.Background()
	c := NewChecker()
	c.RegisterLevel(LevelBotOwner, Owner("owner"))

	owner := subject{author: "owner"}
	for _, l := range Levels() {
		ok, err := c.GrantedLevel(ctx, l, owner)
		require.NoError(t, err)
		assert.True(t, ok, "owner holds %s", l)
	}

	stranger := subject{author: "someone"}
	ok, _ := c.GrantedLevel(ctx, LevelPublic, stranger)
	assert.True(t, ok, "public is always granted")
	ok, _ = c.GrantedLevel(ctx, LevelServerAdmin, stranger)
	assert.False(t, ok)
}

func TestGrantedLevelDoesNotLookDown(t *testing.T) {
	c := NewChecker()
	c.RegisterLevel(LevelServerAdmin, always(true))

	ok, err := c.GrantedLevel(context.Background(), LevelBotAdmin, subject{})
	require.NoError(t, err)
	assert.False(t, ok, "a weaker predicate never grants a stronger level")
}

func TestGrantedLevelShortCircuits(t *testing.T) {
	var calls atomic.Int32
	c := NewChecker()
	c.RegisterLevel(LevelServerAdmin, counting(true, &calls))
	c.RegisterLevel(LevelBotOwner, counting(true, &calls))

	ok, err := c.GrantedLevel(context.Background(), LevelServerAdmin, subject{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGrantedLevelErrorOnlyWhenNothingHolds(t *testing.T) {
	failing := func(context.Context, Subject) (bool, error) { return false, errors.New("lookup failed") }

	c := NewChecker()
	c.RegisterLevel(LevelBotAdmin, failing)
	c.RegisterLevel(LevelBotOwner, always(true))
	ok, err := c.GrantedLevel(context.Background(), LevelBotAdmin, subject{})
	assert.NoError(t, err)
	assert.True(t, ok)

	c = NewChecker()
	c.RegisterLevel(LevelBotAdmin, failing)
	ok, err = c.GrantedLevel(context.Background(), LevelBotAdmin, subject{})
	assert.False(t, ok)
	assert.ErrorContains(t, err, "lookup failed")
}

func TestAllowedNeedsBothGates(t *testing.T) {
	ctx := context.Background()
	c := NewChecker()
	c.Register("named", always(true))
	c.RegisterLevel(LevelBotAdmin, always(false))

	ok, _ := c.Allowed(ctx, Named("named"), subject{})
	assert.True(t, ok)
	ok, _ = c.Allowed(ctx, Requirement{Name: "named", Level: LevelBotAdmin}, subject{})
	assert.False(t, ok)
	ok, _ = c.Allowed(ctx, Requirement{Name: "other"}, subject{})
	assert.False(t, ok)
	ok, _ = c.Allowed(ctx, Requirement{}, subject{})
	assert.True(t, ok)
}

func TestHighest(t *testing.T) {
	c := NewChecker()
	c.RegisterLevel(LevelBotModerator, Owner("mod"))
	c.RegisterLevel(LevelBotOwner, Owner("owner"))

	ctx := context.Background()
	assert.Equal(t, LevelBotOwner, c.Highest(ctx, subject{author: "owner"}))
	assert.Equal(t, LevelBotModerator, c.Highest(ctx, subject{author: "mod"}))
	assert.Equal(t, LevelPublic, c.Highest(ctx, subject{author: "x"}))
}

type fakeGrants map[string]string

func (g fakeGrants) HasGrant(_ context.Context, userID, role string) (bool, error) {
	return g[userID] == role, nil
}

type fakePerms map[string]int64

func (p fakePerms) Permissions(_ context.Context, userID, _ string) (int64, error) {
	return p[userID], nil
}

func TestRegisterDefaults(t *testing.T) {
	ctx := context.Background()
	c := NewChecker()
	RegisterDefaults(c, Defaults{
		Owners: []string{"owner"},
		Grants: fakeGrants{"adm": RoleAdmin, "mod": RoleModerator},
		Platform: fakePerms{
			"guildadmin": platform.PermManageGuild,
			"janitor":    platform.PermManageMessages,
		},
	})

	guild := func(author string) subject { return subject{author: author, channel: "c", guild: "g"} }

	ok, _ := c.GrantedLevel(ctx, LevelBotModerator, guild("adm"))
	assert.True(t, ok, "bot admin escalates to moderator")
	ok, _ = c.GrantedLevel(ctx, LevelBotAdmin, guild("mod"))
	assert.False(t, ok)
	ok, _ = c.GrantedLevel(ctx, LevelServerAdmin, guild("guildadmin"))
	assert.True(t, ok)
	ok, _ = c.GrantedLevel(ctx, LevelServerAdmin, subject{author: "guildadmin"})
	assert.False(t, ok, "server admin needs a guild")
	ok, _ = c.GrantedLevel(ctx, LevelServerAdmin, guild("mod"))
	assert.True(t, ok, "bot moderator escalates to server admin")

	ok, _ = c.Granted(ctx, ManageMessages, guild("janitor"))
	assert.True(t, ok)
	ok, _ = c.Granted(ctx, ManageMessages, guild("guildadmin"))
	assert.False(t, ok)
	ok, _ = c.Granted(ctx, ManageMessages, subject{author: "anyone"})
	assert.True(t, ok, "private channels carry no permission bits")
}

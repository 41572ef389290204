// Package permission holds named permissions and an ordered privilege
// hierarchy. A predicate registered at a level also grants every weaker
// level, so a bot owner passes an admin check without separate registration.
package permission

import (
	"context"
	"fmt"
	"sync"
)

// Level is a rank in the privilege hierarchy; larger is stronger.
type Level int

const (
	LevelPublic Level = iota
	LevelServerAdmin
	LevelBotModerator
	LevelBotAdmin
	LevelBotOwner
)

var levelNames = map[Level]string{
	LevelPublic:       "public",
	LevelServerAdmin:  "server_admin",
	LevelBotModerator: "bot_moderator",
	LevelBotAdmin:     "bot_admin",
	LevelBotOwner:     "bot_owner",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Levels lists every level from weakest to strongest.
func Levels() []Level {
	return []Level{LevelPublic, LevelServerAdmin, LevelBotModerator, LevelBotAdmin, LevelBotOwner}
}

// Subject is who is asking and where.
type Subject interface {
	AuthorID() string
	ChannelID() string
	GuildID() string
}

// Predicate decides whether subject holds a permission.
type Predicate func(ctx context.Context, subject Subject) (bool, error)

// Requirement is what a command demands. The zero value requires nothing.
type Requirement struct {
	Name  string
	Level Level
}

// Named returns a requirement on a named permission only.
func Named(name string) Requirement { return Requirement{Name: name} }

// AtLeast returns a requirement on a privilege level only.
func AtLeast(level Level) Requirement { return Requirement{Level: level} }

// Checker is filled at startup and read concurrently afterwards.
type Checker struct {
	mu     sync.RWMutex
	named  map[string]Predicate
	levels map[Level][]Predicate
}

func NewChecker() *Checker {
	return &Checker{
		named:  make(map[string]Predicate),
		levels: make(map[Level][]Predicate),
	}
}

// Register binds a named permission to its predicate, replacing any
// previous one.
func (c *Checker) Register(name string, p Predicate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.named[name] = p
}

// RegisterLevel attaches a predicate to a level.
func (c *Checker) RegisterLevel(level Level, p Predicate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels[level] = append(c.levels[level], p)
}

// Granted evaluates a named permission. Empty names always pass, unknown
// names never do.
func (c *Checker) Granted(ctx context.Context, name string, s Subject) (bool, error) {
	if name == "" {
		return true, nil
	}
	c.mu.RLock()
	p, ok := c.named[name]
	c.mu.RUnlock()
	if !ok || p == nil {
		return false, nil
	}
	granted, err := p(ctx, s)
	if err != nil {
		return false, fmt.Errorf("permission %q: %w", name, err)
	}
	return granted, nil
}

// GrantedLevel is true iff a predicate at level or at any stronger level
// holds. Predicates are evaluated lazily, weakest level first, and the
// first true short-circuits. If nothing holds the first predicate error is
// returned.
func (c *Checker) GrantedLevel(ctx context.Context, level Level, s Subject) (bool, error) {
	if level <= LevelPublic {
		return true, nil
	}

	var firstErr error
	for _, l := range Levels() {
		if l < level {
			continue
		}
		for _, p := range c.predicates(l) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			ok, err := p(ctx, s)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("level %s: %w", l, err)
				}
				continue
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, firstErr
}

// Allowed requires both the named gate and the level gate.
func (c *Checker) Allowed(ctx context.Context, r Requirement, s Subject) (bool, error) {
	ok, err := c.Granted(ctx, r.Name, s)
	if err != nil || !ok {
		return false, err
	}
	return c.GrantedLevel(ctx, r.Level, s)
}

// Highest returns the strongest level subject holds.
func (c *Checker) Highest(ctx context.Context, s Subject) Level {
	levels := Levels()
	for i := len(levels) - 1; i > 0; i-- {
		for _, p := range c.predicates(levels[i]) {
			if ok, err := p(ctx, s); err == nil && ok {
				return levels[i]
			}
		}
	}
	return LevelPublic
}

func (c *Checker) predicates(l Level) []Predicate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.levels[l]
}

// Package gd holds the Geometry Dash commands.
package gd

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownCategory is returned for a category the source does not rank.
var ErrUnknownCategory = errors.New("unknown leaderboard category")

// Entry is one ranked player.
type Entry struct {
	Position int
	Player   string
	Score    int
}

// Leaderboard is a ranking source.
type Leaderboard interface {
	Categories() []string
	// Entries returns the ranking of category, best first.
	Entries(ctx context.Context, category string) ([]Entry, error)
}

// Memory is an in-process Leaderboard.
type Memory struct {
	mu     sync.RWMutex
	boards map[string][]Entry
}

func NewMemory() *Memory {
	return &Memory{boards: make(map[string][]Entry)}
}

// Set replaces a category. Entries are ranked by score, highest first.
func (m *Memory) Set(category string, scores map[string]int) {
	entries := make([]Entry, 0, len(scores))
	for player, score := range scores {
		entries = append(entries, Entry{Player: player, Score: score})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Player, b.Player)
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[strings.ToLower(category)] = entries
}

func (m *Memory) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.boards))
	for c := range m.boards {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func (m *Memory) Entries(_ context.Context, category string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, ok := m.boards[strings.ToLower(category)]
	if !ok {
		return nil, ErrUnknownCategory
	}
	return slices.Clone(entries), nil
}

// Sample returns a small fixed leaderboard for demos and the console.
func Sample() *Memory {
	m := NewMemory()
	m.Set("demon", map[string]int{
		"Zoink": 412, "Trusta": 398, "Doggie": 377, "User Name": 365, "Cursed": 351,
		"Npesta": 340, "Riot": 333, "SpaceUK": 321, "Wulzy": 310, "Technical": 302,
		"Dolphy": 295, "Mbed": 287, "Sunix": 276, "Xander": 264, "Krazyman": 259,
		"Evw": 248, "Viprin": 240, "Aeonair": 233, "Knobbelboy": 221, "Tride": 215,
		"Manix": 204, "Colon": 198, "Juniper": 187, "Partition": 176, "Sohn": 169,
	})
	m.Set("stars", map[string]int{
		"Colon": 42000, "Viprin": 39500, "User Name": 28750, "Juniper": 24300,
		"Evw": 21000, "Sohn": 18200, "Partition": 16400, "Riot": 12800,
	})
	m.Set("creator", map[string]int{
		"Viprin": 310, "Juniper": 287, "Serponge": 265, "Knobbelboy": 240,
		"Aeonair": 222, "Partition": 190,
	})
	return m
}

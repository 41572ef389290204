package storage

import (
	"context"
	"slices"

	"github.com/keshon/gdbot/internal/datastore"
)

const (
	guildKeyPrefix = "guild:"
	grantsKey      = "grants"
)

type guildRecord struct {
	Settings        GuildSettings   `json:"settings"`
	CommandsHistory []CommandRecord `json:"cmd_history"`
}

// grantRecord maps a user ID to its granted roles.
type grantRecord map[string][]string

// JSONStore keeps everything in one datastore file.
type JSONStore struct {
	ds *datastore.DataStore
}

// NewJSON wraps an open datastore.
func NewJSON(ds *datastore.DataStore) *JSONStore {
	return &JSONStore{ds: ds}
}

// OpenJSON opens or creates the datastore file at path.
func OpenJSON(cfg *datastore.Config) (*JSONStore, error) {
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, wrap("json", "open", err)
	}
	return NewJSON(ds), nil
}

func (s *JSONStore) Close() error {
	return wrap("json", "close", s.ds.Close())
}

// Stats exposes the datastore counters.
func (s *JSONStore) Stats() datastore.Stats { return s.ds.Stats() }

func (s *JSONStore) guild(guildID string) (guildRecord, error) {
	var rec guildRecord
	if _, err := s.ds.Get(guildKeyPrefix+guildID, &rec); err != nil {
		return guildRecord{}, err
	}
	return rec, nil
}

func (s *JSONStore) updateGuild(guildID string, fn func(*guildRecord)) error {
	return datastore.Update(s.ds, guildKeyPrefix+guildID, func(rec *guildRecord) error {
		fn(rec)
		return nil
	})
}

func (s *JSONStore) Prefix(_ context.Context, guildID string) (string, bool, error) {
	rec, err := s.guild(guildID)
	if err != nil {
		return "", false, wrap("json", "prefix", err)
	}
	return rec.Settings.Prefix, rec.Settings.Prefix != "", nil
}

func (s *JSONStore) SetPrefix(_ context.Context, guildID, prefix string) error {
	return wrap("json", "set prefix", s.updateGuild(guildID, func(rec *guildRecord) {
		rec.Settings.Prefix = prefix
	}))
}

func (s *JSONStore) Locale(_ context.Context, guildID string) (string, bool, error) {
	rec, err := s.guild(guildID)
	if err != nil {
		return "", false, wrap("json", "locale", err)
	}
	return rec.Settings.Locale, rec.Settings.Locale != "", nil
}

func (s *JSONStore) SetLocale(_ context.Context, guildID, locale string) error {
	return wrap("json", "set locale", s.updateGuild(guildID, func(rec *guildRecord) {
		rec.Settings.Locale = locale
	}))
}

func (s *JSONStore) Grant(_ context.Context, userID, role string) error {
	err := datastore.Update(s.ds, grantsKey, func(g *grantRecord) error {
		if *g == nil {
			*g = grantRecord{}
		}
		if !slices.Contains((*g)[userID], role) {
			(*g)[userID] = append((*g)[userID], role)
		}
		return nil
	})
	return wrap("json", "grant", err)
}

func (s *JSONStore) Revoke(_ context.Context, userID, role string) error {
	err := datastore.Update(s.ds, grantsKey, func(g *grantRecord) error {
		if *g == nil {
			return nil
		}
		roles := slices.DeleteFunc((*g)[userID], func(r string) bool { return r == role })
		if len(roles) == 0 {
			delete(*g, userID)
		} else {
			(*g)[userID] = roles
		}
		return nil
	})
	return wrap("json", "revoke", err)
}

func (s *JSONStore) HasGrant(_ context.Context, userID, role string) (bool, error) {
	var g grantRecord
	if _, err := s.ds.Get(grantsKey, &g); err != nil {
		return false, wrap("json", "has grant", err)
	}
	return slices.Contains(g[userID], role), nil
}

func (s *JSONStore) AppendCommand(_ context.Context, guildID string, rec CommandRecord) error {
	return wrap("json", "append command", s.updateGuild(guildID, func(g *guildRecord) {
		g.CommandsHistory = append(g.CommandsHistory, rec)
		if n := len(g.CommandsHistory); n > commandHistoryLimit {
			g.CommandsHistory = g.CommandsHistory[n-commandHistoryLimit:]
		}
	}))
}

func (s *JSONStore) CommandHistory(_ context.Context, guildID string) ([]CommandRecord, error) {
	rec, err := s.guild(guildID)
	if err != nil {
		return nil, wrap("json", "command history", err)
	}
	return rec.CommandsHistory, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps settings, grants and history in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, wrap("sqlite", "open", errors.New("empty db path"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wrap("sqlite", "open", fmt.Errorf("creating dir: %w", err))
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, wrap("sqlite", "open", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, wrap("sqlite", "migrate", err)
	}
	return NewSQLite(db), nil
}

// NewSQLite uses an already migrated database handle.
func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id TEXT PRIMARY KEY,
	prefix TEXT NOT NULL DEFAULT '',
	locale TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS grants (
	user_id TEXT NOT NULL,
	role TEXT NOT NULL,
	granted_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, role)
);
CREATE TABLE IF NOT EXISTS command_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	command TEXT NOT NULL,
	param TEXT NOT NULL,
	failed INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_history_guild ON command_history(guild_id, id);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return wrap("sqlite", "close", s.db.Close())
}

// Ping checks the connection for the health endpoint.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return wrap("sqlite", "ping", s.db.PingContext(ctx))
}

func (s *SQLiteStore) setting(ctx context.Context, op, column, guildID string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT "+column+" FROM guild_settings WHERE guild_id = ?", guildID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("sqlite", op, err)
	}
	return v, v != "", nil
}

func (s *SQLiteStore) setSetting(ctx context.Context, op, column, guildID, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO guild_settings (guild_id, "+column+", updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(guild_id) DO UPDATE SET "+column+" = excluded."+column+", updated_at = excluded.updated_at",
		guildID, value, time.Now().UTC())
	return wrap("sqlite", op, err)
}

func (s *SQLiteStore) Prefix(ctx context.Context, guildID string) (string, bool, error) {
	return s.setting(ctx, "prefix", "prefix", guildID)
}

func (s *SQLiteStore) SetPrefix(ctx context.Context, guildID, prefix string) error {
	return s.setSetting(ctx, "set prefix", "prefix", guildID, prefix)
}

func (s *SQLiteStore) Locale(ctx context.Context, guildID string) (string, bool, error) {
	return s.setting(ctx, "locale", "locale", guildID)
}

func (s *SQLiteStore) SetLocale(ctx context.Context, guildID, locale string) error {
	return s.setSetting(ctx, "set locale", "locale", guildID, locale)
}

func (s *SQLiteStore) Grant(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO grants (user_id, role, granted_at) VALUES (?, ?, ?) ON CONFLICT(user_id, role) DO NOTHING",
		userID, role, time.Now().UTC())
	return wrap("sqlite", "grant", err)
}

func (s *SQLiteStore) Revoke(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM grants WHERE user_id = ? AND role = ?", userID, role)
	return wrap("sqlite", "revoke", err)
}

func (s *SQLiteStore) HasGrant(ctx context.Context, userID, role string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM grants WHERE user_id = ? AND role = ?", userID, role).Scan(&n)
	if err != nil {
		return false, wrap("sqlite", "has grant", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) AppendCommand(ctx context.Context, guildID string, rec CommandRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("sqlite", "append command", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO command_history (guild_id, channel_id, user_id, username, command, param, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		guildID, rec.ChannelID, rec.UserID, rec.Username, rec.Command, rec.Param, rec.Failed, rec.Datetime.UTC())
	if err != nil {
		return wrap("sqlite", "append command", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM command_history WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM command_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?)`,
		guildID, guildID, commandHistoryLimit)
	if err != nil {
		return wrap("sqlite", "trim history", err)
	}
	return wrap("sqlite", "append command", tx.Commit())
}

func (s *SQLiteStore) CommandHistory(ctx context.Context, guildID string) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel_id, user_id, username, command, param, failed, created_at
		 FROM command_history WHERE guild_id = ? ORDER BY id ASC`, guildID)
	if err != nil {
		return nil, wrap("sqlite", "command history", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		if err := rows.Scan(&rec.ChannelID, &rec.UserID, &rec.Username, &rec.Command, &rec.Param, &rec.Failed, &rec.Datetime); err != nil {
			return nil, wrap("sqlite", "scan history", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("sqlite", "command history", err)
	}
	return out, nil
}

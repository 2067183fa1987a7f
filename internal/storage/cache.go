// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/fixonway/fixonway-tui/internal/model"
)

// schema creates the cache tables. Messages cascade with their chat row.
const schema = `
CREATE TABLE IF NOT EXISTS chats (
	chat_id          TEXT PRIMARY KEY,
	counterpart_id   TEXT NOT NULL,
	counterpart_name TEXT NOT NULL,
	unread           INTEGER NOT NULL DEFAULT 0,
	position         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	chat_id    TEXT NOT NULL REFERENCES chats(chat_id) ON DELETE CASCADE,
	sender_id  TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_chat_time ON messages(chat_id, created_at);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is the SQLite-backed transcript cache. Safe for concurrent use; the
// underlying database/sql pool serializes access.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path. An empty path
// selects ~/.fixonway/cache.db.
func Open(path string) (*Cache, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".fixonway", "cache.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure cache: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// ROSTER
// =============================================================================

// SaveRoster replaces the cached chat list, preserving server order.
func (c *Cache) SaveRoster(chats []model.Chat) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chats"); err != nil {
		return err
	}
	for i, chat := range chats {
		if chat.ChatID == "" {
			continue
		}
		unread := 0
		if chat.Unread {
			unread = 1
		}
		_, err := tx.Exec(`
			INSERT INTO chats (chat_id, counterpart_id, counterpart_name, unread, position)
			VALUES (?, ?, ?, ?, ?)`,
			chat.ChatID, chat.Counterpart.ID, chat.Counterpart.FullName, unread, i)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRoster returns the cached chat list in saved order, each entry carrying
// its most recent cached message as the preview.
func (c *Cache) LoadRoster() ([]model.Chat, error) {
	rows, err := c.db.Query(`
		SELECT chat_id, counterpart_id, counterpart_name, unread
		FROM chats ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		var chat model.Chat
		var unread int
		if err := rows.Scan(&chat.ChatID, &chat.Counterpart.ID, &chat.Counterpart.FullName, &unread); err != nil {
			return nil, err
		}
		chat.Unread = unread != 0
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		last, err := c.lastMessage(chats[i].ChatID)
		if err != nil {
			return nil, err
		}
		chats[i].LastMessage = last
	}
	return chats, nil
}

func (c *Cache) lastMessage(chatID string) (*model.Message, error) {
	row := c.db.QueryRow(`
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages WHERE chat_id = ?
		ORDER BY created_at DESC LIMIT 1`, chatID)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// SaveMessages replaces the cached transcript of a chat with a confirmed
// history response.
func (c *Cache) SaveMessages(chatID string, msgs []model.Message) error {
	if chatID == "" {
		return nil
	}
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureChat(tx, chatID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := insertMessage(tx, msg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveMessage upserts a single confirmed message.
func (c *Cache) SaveMessage(msg model.Message) error {
	if msg.ID == "" || msg.ChatID == "" || msg.IsPending() {
		return nil
	}
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureChat(tx, msg.ChatID); err != nil {
		return err
	}
	if err := insertMessage(tx, msg); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadMessages returns the cached transcript of a chat ordered by creation
// time ascending.
func (c *Cache) LoadMessages(chatID string) ([]model.Message, error) {
	rows, err := c.db.Query(`
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages WHERE chat_id = ?
		ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Purge deletes everything. Used on logout so transcripts never outlive the
// session that fetched them.
func (c *Cache) Purge() error {
	_, err := c.db.Exec("DELETE FROM chats")
	return err
}

// =============================================================================
// ROW HELPERS
// =============================================================================

// ensureChat inserts a placeholder chat row so message rows always have a
// parent, even when history arrives before the roster.
func ensureChat(tx *sql.Tx, chatID string) error {
	_, err := tx.Exec(`
		INSERT INTO chats (chat_id, counterpart_id, counterpart_name, unread, position)
		VALUES (?, '', '', 0, (SELECT COALESCE(MAX(position), -1) + 1 FROM chats))
		ON CONFLICT(chat_id) DO NOTHING`, chatID)
	return err
}

func insertMessage(tx *sql.Tx, msg model.Message) error {
	if msg.ID == "" || msg.IsPending() {
		return nil
	}
	_, err := tx.Exec(`
		INSERT INTO messages (id, chat_id, sender_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content`,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.CreatedAt.UnixMilli())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (model.Message, error) {
	var msg model.Message
	var createdAt int64
	if err := row.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &createdAt); err != nil {
		return model.Message{}, err
	}
	msg.CreatedAt = time.UnixMilli(createdAt).UTC()
	msg.Delivery = model.DeliveryConfirmed
	return msg, nil
}

package telegram

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

const registrySchema = `
CREATE TABLE IF NOT EXISTS dialogs (
	chat_id   INTEGER PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	broadcast INTEGER NOT NULL DEFAULT 0,
	last_seen INTEGER NOT NULL
)`

// Registry is the transport's private record of chats seen in updates,
// persisted so the group locator works right after a restart, before any
// new update arrives. The rest of the system never touches it.
type Registry struct {
	db *sql.DB
	mu sync.RWMutex
	// Full cache; the table stays tiny (one row per chat the account sees).
	cache map[int64]dialogRow
}

type dialogRow struct {
	group transport.Group
	seen  time.Time
}

// OpenRegistry opens or creates the registry database. An empty path keeps
// the registry purely in memory.
func OpenRegistry(path string) (*Registry, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open dialog registry %q: %w", path, err)
	}
	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init dialog registry schema: %w", err)
	}

	r := &Registry{db: db, cache: make(map[int64]dialogRow)}
	if err := r.warm(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load dialog registry: %w", err)
	}
	return r, nil
}

func (r *Registry) warm() error {
	rows, err := r.db.Query("SELECT chat_id, title, broadcast, last_seen FROM dialogs")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, seen int64
		var title string
		var broadcast bool
		if err := rows.Scan(&id, &title, &broadcast, &seen); err != nil {
			return err
		}
		r.cache[id] = dialogRow{
			group: transport.Group{ID: id, Title: title, Broadcast: broadcast},
			seen:  time.Unix(seen, 0),
		}
	}
	return rows.Err()
}

// Upsert records a chat sighting. Write failures only cost persistence
// across restarts, so they are logged and swallowed.
func (r *Registry) Upsert(g transport.Group) {
	now := time.Now()

	r.mu.Lock()
	r.cache[g.ID] = dialogRow{group: g, seen: now}
	r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO dialogs (chat_id, title, broadcast, last_seen)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET
			title = excluded.title,
			broadcast = excluded.broadcast,
			last_seen = excluded.last_seen`,
		g.ID, g.Title, g.Broadcast, now.Unix(),
	)
	if err != nil {
		slog.Debug("dialog registry write failed", "chat_id", g.ID, "error", err)
	}
}

// All returns the known chats, most recently seen first.
func (r *Registry) All() []transport.Group {
	r.mu.RLock()
	rows := make([]dialogRow, 0, len(r.cache))
	for _, row := range r.cache {
		rows = append(rows, row)
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].seen.Equal(rows[j].seen) {
			return rows[i].seen.After(rows[j].seen)
		}
		return rows[i].group.ID < rows[j].group.ID
	})

	groups := make([]transport.Group, len(rows))
	for i, row := range rows {
		groups[i] = row.group
	}
	return groups
}

func (r *Registry) Close() error {
	return r.db.Close()
}

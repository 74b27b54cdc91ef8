package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SnapshotCache keeps the last generated snapshot per user, one fixed file
// slot each, so the previous report survives restarts. Every successful
// generation overwrites the slot.
type SnapshotCache struct {
	dir string

	mu     sync.RWMutex
	byUser map[string]Snapshot
}

// NewSnapshotCache opens the cache directory and loads every existing slot.
// Unreadable slots are skipped with a warning rather than failing startup.
func NewSnapshotCache(dir string) (*SnapshotCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot cache directory: %w", err)
	}

	c := &SnapshotCache{
		dir:    dir,
		byUser: make(map[string]Snapshot),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot cache directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("Skipping unreadable snapshot slot", "file", name, "error", err)
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			slog.Warn("Skipping corrupt snapshot slot", "file", name, "error", err)
			continue
		}
		c.byUser[strings.TrimSuffix(name, ".json")] = snap
	}
	return c, nil
}

func (c *SnapshotCache) Get(userID string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.byUser[slotKey(userID)]
	return snap, ok
}

// Put overwrites the user's slot in memory and on disk. The file write goes
// through a temp file and rename so a crash never leaves a half-written slot.
func (c *SnapshotCache) Put(userID string, snap Snapshot) error {
	key := slotKey(userID)
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp := filepath.Join(c.dir, key+".json.tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot slot: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, key+".json")); err != nil {
		return fmt.Errorf("replace snapshot slot: %w", err)
	}
	c.byUser[key] = snap
	return nil
}

// slotKey maps a user id to a filesystem-safe slot name. Bytes outside the
// safe set are hex-escaped, so distinct ids never share a slot.
func slotKey(userID string) string {
	var b strings.Builder
	for _, c := range []byte(userID) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

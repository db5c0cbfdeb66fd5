// Package history keeps recent dispatched commands when no database is configured.
package history

import (
	"context"
	"sync"

	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// DefaultCapacity is the number of entries kept per guild
const DefaultCapacity = 20

// MemoryLog keeps the latest entries of every guild in process memory
type MemoryLog struct {
	capacity int

	mu     sync.Mutex
	guilds map[string][]models.CommandLogEntry
}

// NewMemoryLog returns a log keeping capacity entries per guild
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &MemoryLog{capacity: capacity, guilds: make(map[string][]models.CommandLogEntry)}
}

// Record appends e, dropping the oldest entry of the guild when full. Direct
// message commands are not kept.
func (l *MemoryLog) Record(ctx context.Context, e models.CommandLogEntry) error {
	if e.GuildID == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.guilds[e.GuildID], e)
	if len(entries) > l.capacity {
		entries = append([]models.CommandLogEntry(nil), entries[len(entries)-l.capacity:]...)
	}
	l.guilds[e.GuildID] = entries
	return nil
}

// RecentCommands returns up to limit entries of a guild, newest first
func (l *MemoryLog) RecentCommands(ctx context.Context, guildID string, limit int) ([]models.CommandLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.guilds[guildID]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]models.CommandLogEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

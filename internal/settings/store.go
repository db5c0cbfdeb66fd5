// Package settings keeps per-guild runtime configuration in memory, guarded per guild,
// and writes changes through to a Repository.
package settings

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/models"
)

// Repository persists guild settings
type Repository interface {
	// Load returns false when nothing is stored for the guild.
	Load(ctx context.Context, guildID string) (models.GuildSettings, bool, error)
	Save(ctx context.Context, s models.GuildSettings) error
}

type guildEntry struct {
	mu       sync.RWMutex
	loaded   bool
	settings models.GuildSettings
}

// Store hands out guild settings. Each guild has its own lock; reads take it
// shared, writes take it exclusively for the changed field only. Persistence
// happens after the lock is released, so a crash in between loses the change.
type Store struct {
	repo     Repository
	defaults models.GuildSettings

	mu     sync.Mutex
	guilds map[string]*guildEntry
}

// NewStore returns a store backed by repo. defaults seeds guilds that have no stored settings.
func NewStore(repo Repository, defaults models.GuildSettings) *Store {
	return &Store{
		repo:     repo,
		defaults: defaults,
		guilds:   make(map[string]*guildEntry),
	}
}

// Defaults returns the settings used for guilds without stored configuration and for DMs
func (s *Store) Defaults() models.GuildSettings {
	return s.defaults
}

func (s *Store) entry(guildID string) *guildEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.guilds[guildID]
	if !ok {
		e = &guildEntry{}
		s.guilds[guildID] = e
	}
	return e
}

// load fills e from the repository once. Callers must not hold e.mu.
func (s *Store) load(ctx context.Context, guildID string, e *guildEntry) error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if loaded {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}
	stored, ok, err := s.repo.Load(ctx, guildID)
	if err != nil {
		return errors.Wrapf(err, "load settings for guild %s", guildID)
	}
	if !ok {
		stored = s.defaults
		stored.GuildID = guildID
	}
	if stored.Prefix == "" {
		stored.Prefix = s.defaults.Prefix
	}
	e.settings = stored
	e.loaded = true
	return nil
}

// Get returns a snapshot of the guild's settings. An empty guildID yields the defaults.
func (s *Store) Get(ctx context.Context, guildID string) (models.GuildSettings, error) {
	if guildID == "" {
		return s.defaults, nil
	}
	e := s.entry(guildID)
	if err := s.load(ctx, guildID, e); err != nil {
		return s.defaults, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings, nil
}

func (s *Store) update(ctx context.Context, guildID string, apply func(*models.GuildSettings)) error {
	if guildID == "" {
		return errors.New("settings can only be changed inside a guild")
	}
	e := s.entry(guildID)
	if err := s.load(ctx, guildID, e); err != nil {
		return err
	}

	e.mu.Lock()
	apply(&e.settings)
	e.settings.UpdatedAt = time.Now()
	snapshot := e.settings
	e.mu.Unlock()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return errors.Wrapf(err, "save settings for guild %s", guildID)
	}
	return nil
}

// MaxPrefixLength is the longest prefix the dispatch pattern can capture
const MaxPrefixLength = 5

// ValidatePrefix checks that prefix is 1 to MaxPrefixLength characters without whitespace
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return errors.New("prefix cannot be empty")
	}
	if utf8.RuneCountInString(prefix) > MaxPrefixLength {
		return errors.Errorf("prefix %q is longer than %d characters", prefix, MaxPrefixLength)
	}
	if strings.IndexFunc(prefix, unicode.IsSpace) >= 0 {
		return errors.Errorf("prefix %q contains whitespace", prefix)
	}
	return nil
}

// SetPrefix changes the text command prefix of a guild
func (s *Store) SetPrefix(ctx context.Context, guildID, prefix string) error {
	if err := ValidatePrefix(prefix); err != nil {
		return err
	}
	return s.update(ctx, guildID, func(g *models.GuildSettings) {
		g.Prefix = prefix
	})
}

// SetAllowedRole sets the role granted managed commands. An empty roleID removes the restriction.
func (s *Store) SetAllowedRole(ctx context.Context, guildID, roleID string) error {
	return s.update(ctx, guildID, func(g *models.GuildSettings) {
		g.AllowedRoleID = roleID
	})
}

// SetManagerBypass toggles whether manage-guild holders bypass the allowed role
func (s *Store) SetManagerBypass(ctx context.Context, guildID string, enabled bool) error {
	return s.update(ctx, guildID, func(g *models.GuildSettings) {
		g.ManagerBypass = enabled
	})
}

// MemoryRepository keeps settings in process memory
type MemoryRepository struct {
	mu     sync.RWMutex
	guilds map[string]models.GuildSettings
}

// NewMemoryRepository returns an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{guilds: make(map[string]models.GuildSettings)}
}

// Load implements Repository
func (m *MemoryRepository) Load(ctx context.Context, guildID string) (models.GuildSettings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.guilds[guildID]
	return g, ok, nil
}

// Save implements Repository
func (m *MemoryRepository) Save(ctx context.Context, s models.GuildSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guilds[s.GuildID] = s
	return nil
}

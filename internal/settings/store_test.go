package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/oatsaysai/guild-dispatch/internal/models"
)

var defaults = models.GuildSettings{Prefix: "!", ManagerBypass: true}

type failingRepo struct {
	loadErr error
	saveErr error
	loads   int
}

func (f *failingRepo) Load(ctx context.Context, guildID string) (models.GuildSettings, bool, error) {
	f.loads++
	return models.GuildSettings{}, false, f.loadErr
}

func (f *failingRepo) Save(ctx context.Context, s models.GuildSettings) error {
	return f.saveErr
}

func TestStoreDefaultsForUnknownGuild(t *testing.T) {
	store := NewStore(NewMemoryRepository(), defaults)

	got, err := store.Get(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.GuildID != "g1" || got.Prefix != "!" || !got.ManagerBypass {
		t.Errorf("Get() = %+v", got)
	}
	if got.RoleRestricted() {
		t.Error("fresh guild should not be role restricted")
	}

	dm, err := store.Get(context.Background(), "")
	if err != nil || dm.Prefix != "!" {
		t.Errorf("Get(\"\") = %+v, %v", dm, err)
	}
}

func TestStoreLoadsStoredSettingsOnce(t *testing.T) {
	repo := NewMemoryRepository()
	_ = repo.Save(context.Background(), models.GuildSettings{GuildID: "g1", Prefix: "?", AllowedRoleID: "r1"})
	store := NewStore(repo, defaults)

	got, err := store.Get(context.Background(), "g1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Prefix != "?" || got.AllowedRoleID != "r1" {
		t.Errorf("Get() = %+v", got)
	}
	if !got.RoleRestricted() {
		t.Error("RoleRestricted() = false, want true")
	}

	counting := &failingRepo{}
	store = NewStore(counting, defaults)
	for i := 0; i < 3; i++ {
		if _, err := store.Get(context.Background(), "g2"); err != nil {
			t.Fatal(err)
		}
	}
	if counting.loads != 1 {
		t.Errorf("repository loaded %d times, want 1", counting.loads)
	}
}

func TestStoreWritesThrough(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, defaults)
	ctx := context.Background()

	if err := store.SetPrefix(ctx, "g1", "$"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetAllowedRole(ctx, "g1", "role"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetManagerBypass(ctx, "g1", false); err != nil {
		t.Fatal(err)
	}

	stored, ok, _ := repo.Load(ctx, "g1")
	if !ok {
		t.Fatal("settings were not persisted")
	}
	if stored.Prefix != "$" || stored.AllowedRoleID != "role" || stored.ManagerBypass {
		t.Errorf("persisted = %+v", stored)
	}
	if stored.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	if err := store.SetPrefix(ctx, "g1", ""); err == nil {
		t.Error("SetPrefix(\"\") should fail")
	}
	if err := store.SetPrefix(ctx, "", "?"); err == nil {
		t.Error("SetPrefix outside a guild should fail")
	}
}

func TestStoreKeepsInMemoryValueWhenSaveFails(t *testing.T) {
	repo := &failingRepo{saveErr: errors.New("db down")}
	store := NewStore(repo, defaults)
	ctx := context.Background()

	if err := store.SetPrefix(ctx, "g1", "%"); err == nil {
		t.Fatal("SetPrefix() should report the save failure")
	}
	got, _ := store.Get(ctx, "g1")
	if got.Prefix != "%" {
		t.Errorf("Prefix = %q, want the in-memory update to stick", got.Prefix)
	}
}

func TestStoreLoadErrorFallsBackToDefaults(t *testing.T) {
	store := NewStore(&failingRepo{loadErr: errors.New("db down")}, defaults)
	got, err := store.Get(context.Background(), "g1")
	if err == nil {
		t.Fatal("Get() should return the load error")
	}
	if got.Prefix != "!" {
		t.Errorf("Get() = %+v, want defaults", got)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(NewMemoryRepository(), defaults)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, "g1")
		}()
		go func() {
			defer wg.Done()
			_ = store.SetAllowedRole(ctx, "g1", "r")
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "g1")
	if got.AllowedRoleID != "r" {
		t.Errorf("AllowedRoleID = %q", got.AllowedRoleID)
	}
}

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"!", false},
		{"$$", false},
		{"ééééé", false},
		{"", true},
		{"!!!!!!", true},
		{"a b", true},
		{"!\n", true},
	}
	for _, tt := range tests {
		if err := ValidatePrefix(tt.prefix); (err != nil) != tt.wantErr {
			t.Errorf("ValidatePrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
		}
	}
}
